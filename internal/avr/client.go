package avr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// Default timeouts and intervals for receiver communication.
const (
	// defaultPort is the Anthem IP-control port.
	defaultPort = 14999

	// defaultConnectTimeout is the maximum time to wait for one dial attempt.
	defaultConnectTimeout = 10 * time.Second

	// defaultMaxRetries is the number of connection attempts before giving up.
	defaultMaxRetries = 5

	// defaultRetryDelay is the pause between connection attempts.
	defaultRetryDelay = 2 * time.Second

	// defaultWriteTimeout is the timeout for command writes.
	defaultWriteTimeout = 5 * time.Second

	// readTimeout bounds individual socket reads. The receiver is silent
	// between state changes, so a timeout here is normal and the read loop
	// simply tries again.
	readTimeout = 60 * time.Second

	// readBufferSize is the size of the read buffer for incoming data.
	readBufferSize = 1024

	// listenerStartupDelay gives the read loop a moment to start before
	// the first commands go out.
	listenerStartupDelay = 100 * time.Millisecond

	// echoSettleDelay lets the receiver apply echo suppression before
	// discovery traffic begins.
	echoSettleDelay = 50 * time.Millisecond
)

// DeviceConfig holds receiver connection configuration.
type DeviceConfig struct {
	// Name is a human-readable label used in log output.
	Name string

	// Host is the receiver's IP address or hostname.
	Host string

	// Port is the IP-control port. Default: 14999.
	Port int

	// ConnectTimeout is the maximum time for one dial attempt.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// MaxRetries is the number of connection attempts before Connect
	// gives up. Default: 5.
	MaxRetries int

	// RetryDelay is the pause between attempts. Default: 2 seconds.
	RetryDelay time.Duration
}

// Stats holds operational statistics.
type Stats struct {
	CommandsTx    uint64
	LinesRx       uint64
	LinesDropped  uint64 // Lines that matched no known pattern
	ErrorsTotal   uint64
	ConnectsTotal uint64 // Successful connection establishments
	LastActivity  time.Time
	Connected     bool
	InputsFound   int
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Controller is the command surface the client exposes to callers.
// It allows mocking the receiver client in tests.
type Controller interface {
	Connect(ctx context.Context) bool
	Disconnect()
	IsConnected() bool
	SendCommand(cmd string) bool
	PowerOn(zone int) bool
	PowerOff(zone int) bool
	SetVolume(zone, volumeDB int) bool
	VolumeUp(zone int) bool
	VolumeDown(zone int) bool
	SetMute(zone int, muted bool) bool
	SelectInput(zone, input int) bool
	QueryAll(ctx context.Context, zone int) bool
	SetOnUpdate(callback func(Update))
	State() *StateCache
	Stats() Stats
}

// Ensure Client implements Controller.
var _ Controller = (*Client)(nil)

// Client manages a line-oriented TCP session with an Anthem receiver.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - The update callback is invoked from the read loop goroutine.
//
// Lifecycle:
//   - Connect dials with bounded retries, then runs the startup handshake
//     (echo off, input-name discovery, initial power query).
//   - Disconnect is idempotent; a disconnected client can Connect again.
type Client struct {
	cfg   DeviceConfig
	cache *StateCache

	// Connection state
	conn      net.Conn
	connMu    sync.RWMutex
	connected bool

	// Serializes Connect/Disconnect so the lifecycle cannot interleave.
	lifecycleMu sync.Mutex

	// Serializes socket writes.
	writeMu sync.Mutex

	// Update callback (single slot, last registration wins)
	onUpdate   func(Update)
	callbackMu sync.RWMutex

	// Shutdown coordination for the read loop
	done *closeOnce
	wg   sync.WaitGroup

	// Logger (optional)
	logger   Logger
	loggerMu sync.RWMutex

	// Statistics (atomic for performance)
	commandsTx    atomic.Uint64
	linesRx       atomic.Uint64
	linesDropped  atomic.Uint64
	errorsTotal   atomic.Uint64
	connectsTotal atomic.Uint64
	lastActivity  atomic.Int64 // Unix timestamp
}

// NewClient creates a client for one receiver. Defaults are applied to
// any zero-valued config field; the client does not connect until
// Connect is called.
func NewClient(cfg DeviceConfig) *Client {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	return &Client{
		cfg:   cfg,
		cache: NewStateCache(),
		done:  newCloseOnce(),
	}
}

// Connect establishes the TCP session and runs the startup handshake.
//
// Dialing is retried up to MaxRetries times with RetryDelay between
// attempts; transient network failures (timeout, refused, reset,
// unreachable) trigger a retry rather than an immediate failure.
// Returns true once the session is up, false if every attempt failed
// or the context was cancelled.
func (c *Client) Connect(ctx context.Context) bool {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.IsConnected() {
		return true
	}

	// A previous session may have died on a write failure with its read
	// loop still draining. Join it before starting a new one.
	c.teardown()

	if ctx == nil {
		ctx = context.Background()
	}

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		conn, err := c.dial(ctx, addr)
		if err == nil {
			c.establish(conn)
			c.startup(ctx)
			c.logInfo("connected to receiver",
				"device", c.cfg.Name, "addr", addr, "attempt", attempt)
			return true
		}

		c.errorsTotal.Add(1)

		if !isTransientDialError(err) {
			c.logError("connection failed", err, "device", c.cfg.Name, "addr", addr)
		}

		if attempt == c.cfg.MaxRetries {
			break
		}

		c.logWarn("connection attempt failed, retrying",
			"device", c.cfg.Name, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.cfg.RetryDelay):
		}
	}

	c.logError("connection failed after retries",
		fmt.Errorf("%w: %d attempts to %s", ErrConnectionFailed, c.cfg.MaxRetries, addr),
		"device", c.cfg.Name)
	return false
}

// dial performs one connection attempt with the configured timeout.
func (c *Client) dial(ctx context.Context, addr string) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, addr, err)
	}
	return conn, nil
}

// isTransientDialError reports whether a dial failure is worth retrying.
// Timeouts, refusals, resets, and unreachable networks are the expected
// failure modes of a receiver that is booting or briefly offline.
func isTransientDialError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, context.DeadlineExceeded)
}

// establish installs the connection and starts the read loop.
func (c *Client) establish(conn net.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connected = true
	c.connMu.Unlock()

	c.done = newCloseOnce()
	c.connectsTotal.Add(1)
	c.lastActivity.Store(time.Now().Unix())

	c.wg.Add(1)
	go c.readLoop(conn)
}

// startup runs the post-connect handshake: give the read loop a moment
// to start, disable command echo, discover input names, and prime the
// cache with a power query. Every step is best-effort; state that fails
// to arrive now will arrive as later notifications.
func (c *Client) startup(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(listenerStartupDelay):
	}

	if !c.SendCommand(echoOffCommand) {
		c.logWarn("echo-off command failed", "device", c.cfg.Name)
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(echoSettleDelay):
	}

	c.discoverInputs(ctx)

	c.SendCommand(QueryModelCommand())
	c.SendCommand(QueryPowerCommand(1))
}

// Disconnect tears down the session. Safe to call multiple times and
// safe to call on a never-connected client.
func (c *Client) Disconnect() {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.teardown() {
		c.logInfo("disconnected from receiver", "device", c.cfg.Name)
	}
}

// teardown stops the read loop and closes the socket. Returns true if a
// live session was torn down. Caller must hold lifecycleMu.
func (c *Client) teardown() bool {
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	wasConnected := c.connected
	c.connected = false
	c.connMu.Unlock()

	c.done.Close()

	if conn != nil {
		conn.Close()
	}

	c.wg.Wait()
	return wasConnected
}

// IsConnected returns true if the session is established.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// SendCommand writes one protocol command to the receiver, appending the
// CR terminator. Returns true if the full command was written. A write
// failure marks the session as disconnected.
func (c *Client) SendCommand(cmd string) bool {
	c.connMu.RLock()
	conn := c.conn
	connected := c.connected
	c.connMu.RUnlock()

	if !connected || conn == nil {
		c.logWarn("command dropped", "command", cmd, "error", ErrNotConnected)
		return false
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout)); err != nil {
		c.errorsTotal.Add(1)
		c.logError("set write deadline failed", err, "command", cmd)
		return false
	}

	if _, err := conn.Write([]byte(cmd + "\r")); err != nil {
		c.errorsTotal.Add(1)
		c.logError("command write failed",
			fmt.Errorf("%w: %w", ErrWriteFailed, err), "command", cmd)
		c.markDisconnected()
		return false
	}

	c.commandsTx.Add(1)
	c.lastActivity.Store(time.Now().Unix())
	c.logDebug("command sent", "command", cmd)
	return true
}

// markDisconnected downgrades the connection state after an IO failure.
func (c *Client) markDisconnected() {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.connMu.Unlock()

	if wasConnected {
		c.logWarn("connection lost", "device", c.cfg.Name)
	}
}

// readLoop continuously reads from the socket, frames complete lines,
// and dispatches each one. It exits on shutdown or connection loss.
func (c *Client) readLoop(conn net.Conn) {
	defer c.wg.Done()

	var framer lineFramer
	buf := make([]byte, readBufferSize)

	for {
		select {
		case <-c.done.Done():
			return
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			c.logError("set read deadline failed", err)
			c.markDisconnected()
			return
		}

		n, err := conn.Read(buf)
		if err != nil {
			if c.isClosed() {
				return
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// The receiver is quiet between state changes. Keep waiting.
				continue
			}

			c.errorsTotal.Add(1)
			c.logWarn("read failed, closing session", "error", err)
			c.markDisconnected()
			return
		}

		if n == 0 {
			continue
		}

		c.lastActivity.Store(time.Now().Unix())

		for _, line := range framer.Feed(buf[:n]) {
			c.processLine(line)
		}
	}
}

// processLine parses one complete line, applies it to the cache, and
// notifies the observer. Unrecognized lines are counted and logged at
// debug level but never fail the loop.
func (c *Client) processLine(line string) {
	c.linesRx.Add(1)

	update := ParseLine(line)
	if update.Kind == UpdateUnrecognized {
		c.linesDropped.Add(1)
		c.logDebug("unrecognized line", "line", line)
		return
	}

	c.cache.Apply(update)
	c.logDebug("state update", "line", line)

	c.callbackMu.RLock()
	callback := c.onUpdate
	c.callbackMu.RUnlock()

	if callback != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logError("update callback panic", fmt.Errorf("%v", r))
				}
			}()
			callback(update)
		}()
	}
}

// SetOnUpdate sets the callback for recognized state notifications.
//
// A single callback slot is maintained; registering again replaces the
// previous callback, and nil clears it. The callback runs on the read
// loop goroutine, so it must not block. Panics are recovered and logged.
func (c *Client) SetOnUpdate(callback func(Update)) {
	c.callbackMu.Lock()
	c.onUpdate = callback
	c.callbackMu.Unlock()
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// State returns the client's state cache.
func (c *Client) State() *StateCache {
	return c.cache
}

// Name returns the configured device name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Address returns the receiver address as host:port.
func (c *Client) Address() string {
	return fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
}

// Stats returns current operational statistics.
func (c *Client) Stats() Stats {
	return Stats{
		CommandsTx:    c.commandsTx.Load(),
		LinesRx:       c.linesRx.Load(),
		LinesDropped:  c.linesDropped.Load(),
		ErrorsTotal:   c.errorsTotal.Load(),
		ConnectsTotal: c.connectsTotal.Load(),
		LastActivity:  time.Unix(c.lastActivity.Load(), 0),
		Connected:     c.IsConnected(),
		InputsFound:   len(c.cache.InputNames()),
	}
}

// isClosed returns true if shutdown has been signalled.
func (c *Client) isClosed() bool {
	select {
	case <-c.done.Done():
		return true
	default:
		return false
	}
}

// logDebug logs a debug message if logger is set.
func (c *Client) logDebug(msg string, keysAndValues ...any) {
	if l := c.getLogger(); l != nil {
		l.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if logger is set.
func (c *Client) logInfo(msg string, keysAndValues ...any) {
	if l := c.getLogger(); l != nil {
		l.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning message if logger is set.
func (c *Client) logWarn(msg string, keysAndValues ...any) {
	if l := c.getLogger(); l != nil {
		l.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (c *Client) logError(msg string, err error, keysAndValues ...any) {
	if l := c.getLogger(); l != nil {
		l.Error(msg, append([]any{"error", err}, keysAndValues...)...)
	}
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
