// Package database opens and maintains the bridge's SQLite store.
//
// The store holds zone state history (see internal/history) plus the
// schema_migrations bookkeeping table. Migrations are embedded into the
// binary (see the migrations package) and applied at startup:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// WAL mode keeps reads from blocking behind the writer, and the busy
// timeout absorbs short lock contention. All queries use parameterised
// statements, and the database file is chmodded to 0600.
//
// Schema changes are additive only: new columns are nullable or carry a
// default, and nothing is dropped or renamed, so a .down.sql rollback is
// always safe.
package database
