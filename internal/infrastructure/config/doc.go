// Package config loads the bridge's YAML configuration and applies
// environment overrides on top of it.
//
// Load reads the file once at startup, fills in defaults (receiver
// port, zone list, history retention), lets AVRBRIDGE_* environment
// variables override the file, then validates the result. Secrets —
// broker passwords, InfluxDB tokens — belong in the environment, not in
// the file, and the file itself should be mode 0600.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.Host)
package config
