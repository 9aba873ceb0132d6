package avr

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeReceiver is an in-process stand-in for a receiver's IP-control port.
// It answers input-name and identity queries and lets tests push
// unsolicited notifications.
type fakeReceiver struct {
	t        *testing.T
	listener net.Listener

	mu            sync.Mutex
	conn          net.Conn
	received      []string
	maxInputReply int // 0 answers every ISN query

	connReady chan struct{}
}

func newFakeReceiver(t *testing.T) *fakeReceiver {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	r := newFakeReceiverOn(t, listener)

	t.Cleanup(func() {
		listener.Close()
		r.mu.Lock()
		if r.conn != nil {
			r.conn.Close()
		}
		r.mu.Unlock()
	})

	return r
}

// newFakeReceiverOn serves on an existing listener; the caller owns the
// listener's lifetime.
func newFakeReceiverOn(t *testing.T, listener net.Listener) *fakeReceiver {
	r := &fakeReceiver{
		t:         t,
		listener:  listener,
		connReady: make(chan struct{}),
	}
	go r.serve()
	return r
}

// limitInputReplies makes the fake answer ISN queries only for slots
// 1..n, simulating a receiver with fewer configured inputs.
func (r *fakeReceiver) limitInputReplies(n int) {
	r.mu.Lock()
	r.maxInputReply = n
	r.mu.Unlock()
}

func (r *fakeReceiver) addr() (host string, port int) {
	tcpAddr := r.listener.Addr().(*net.TCPAddr)
	return "127.0.0.1", tcpAddr.Port
}

func (r *fakeReceiver) serve() {
	conn, err := r.listener.Accept()
	if err != nil {
		return
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()
	close(r.connReady)

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\r')
		if err != nil {
			return
		}
		cmd := strings.TrimSuffix(line, "\r")

		r.mu.Lock()
		r.received = append(r.received, cmd)
		r.mu.Unlock()

		r.respond(conn, cmd)
	}
}

// respond answers the queries the startup handshake issues.
func (r *fakeReceiver) respond(conn net.Conn, cmd string) {
	switch {
	case strings.HasPrefix(cmd, "ISN") && strings.HasSuffix(cmd, "?"):
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(cmd, "ISN"), "?"))
		if err != nil {
			return
		}
		r.mu.Lock()
		limit := r.maxInputReply
		r.mu.Unlock()
		if limit > 0 && n > limit {
			return
		}
		fmt.Fprintf(conn, "ISN%d\"Source %d\"\r", n, n)
	case cmd == "IDM?":
		fmt.Fprint(conn, "IDMMRX 740\r")
	case cmd == "Z1POW?":
		fmt.Fprint(conn, "Z1POW0\r")
	}
}

// push writes an unsolicited notification to the client.
func (r *fakeReceiver) push(line string) {
	r.t.Helper()

	select {
	case <-r.connReady:
	case <-time.After(2 * time.Second):
		r.t.Fatal("no client connection to push to")
	}

	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()

	if _, err := fmt.Fprint(conn, line+"\r"); err != nil {
		r.t.Fatalf("push %q: %v", line, err)
	}
}

func (r *fakeReceiver) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.received))
	copy(out, r.received)
	return out
}

// captureLogger records log calls so tests can assert on them.
type captureLogger struct {
	mu      sync.Mutex
	entries []logRecord
}

type logRecord struct {
	level string
	msg   string
	args  []any
}

func (l *captureLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	l.entries = append(l.entries, logRecord{level: level, msg: msg, args: args})
	l.mu.Unlock()
}

func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

// find returns the first record with the given level and message.
func (l *captureLogger) find(level, msg string) (logRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return e, true
		}
	}
	return logRecord{}, false
}

// argValue extracts the value following key in a key/value argument list.
func argValue(args []any, key string) any {
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok && k == key {
			return args[i+1]
		}
	}
	return nil
}

func newTestClient(receiver *fakeReceiver) *Client {
	host, port := receiver.addr()
	return NewClient(DeviceConfig{
		Name:           "test-avr",
		Host:           host,
		Port:           port,
		ConnectTimeout: 2 * time.Second,
		MaxRetries:     1,
		RetryDelay:     10 * time.Millisecond,
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestClientConnectRunsHandshake(t *testing.T) {
	receiver := newFakeReceiver(t)
	client := newTestClient(receiver)
	defer client.Disconnect()

	if !client.Connect(context.Background()) {
		t.Fatal("Connect() = false, want true")
	}
	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}

	commands := receiver.commands()
	if len(commands) == 0 || commands[0] != "ECH0" {
		t.Fatalf("first command = %v, want ECH0", commands)
	}

	sent := make(map[string]bool, len(commands))
	for _, cmd := range commands {
		sent[cmd] = true
	}
	for i := 1; i <= 15; i++ {
		q := fmt.Sprintf("ISN%d?", i)
		if !sent[q] {
			t.Errorf("input query %s never sent", q)
		}
	}
	if !sent["IDM?"] {
		t.Error("model query never sent")
	}
	if !sent["Z1POW?"] {
		t.Error("power prime query never sent")
	}

	// Discovery replies should have landed in the cache.
	if !waitFor(t, 2*time.Second, func() bool {
		return len(client.State().InputNames()) == 15
	}) {
		t.Errorf("discovered %d inputs, want 15", len(client.State().InputNames()))
	}
	if got := client.State().InputName(3); got != "Source 3" {
		t.Errorf("InputName(3) = %q, want Source 3", got)
	}
}

func TestClientConnectAlreadyConnected(t *testing.T) {
	receiver := newFakeReceiver(t)
	client := newTestClient(receiver)
	defer client.Disconnect()

	if !client.Connect(context.Background()) {
		t.Fatal("first Connect failed")
	}
	before := client.Stats().ConnectsTotal

	if !client.Connect(context.Background()) {
		t.Fatal("second Connect on a live session should report true")
	}
	if got := client.Stats().ConnectsTotal; got != before {
		t.Errorf("ConnectsTotal = %d after redundant Connect, want %d", got, before)
	}
}

func TestClientConnectRetriesThenFails(t *testing.T) {
	// Reserve a port, then close it so every dial is refused.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	client := NewClient(DeviceConfig{
		Name:           "test-avr",
		Host:           "127.0.0.1",
		Port:           port,
		ConnectTimeout: time.Second,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	})

	start := time.Now()
	if client.Connect(context.Background()) {
		t.Fatal("Connect() = true against closed port")
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after failed Connect")
	}

	// Three attempts with two delays between them.
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Connect returned after %v, expected at least two retry delays", elapsed)
	}
	if errs := client.Stats().ErrorsTotal; errs != 3 {
		t.Errorf("ErrorsTotal = %d, want 3 (one per attempt)", errs)
	}
}

func TestClientConnectRetriesThenSucceeds(t *testing.T) {
	// Reserve a port and close it so the first attempts are refused.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	client := NewClient(DeviceConfig{
		Name:           "test-avr",
		Host:           "127.0.0.1",
		Port:           port,
		ConnectTimeout: time.Second,
		MaxRetries:     10,
		RetryDelay:     100 * time.Millisecond,
	})
	defer client.Disconnect()

	// The receiver comes up mid-retry, a few refused attempts in.
	listeners := make(chan net.Listener, 1)
	go func() {
		time.Sleep(250 * time.Millisecond)
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			t.Errorf("relisten: %v", err)
			return
		}
		listeners <- l
		newFakeReceiverOn(t, l)
	}()

	if !client.Connect(context.Background()) {
		t.Fatal("Connect() = false, want success once the receiver came up")
	}
	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if client.Stats().ErrorsTotal == 0 {
		t.Error("ErrorsTotal = 0, expected refused attempts before success")
	}

	select {
	case l := <-listeners:
		defer l.Close()
	case <-time.After(time.Second):
	}
}

func TestClientConnectPartialDiscoveryBounded(t *testing.T) {
	receiver := newFakeReceiver(t)
	receiver.limitInputReplies(5)

	logger := &captureLogger{}
	client := newTestClient(receiver)
	client.SetLogger(logger)
	defer client.Disconnect()

	start := time.Now()
	if !client.Connect(context.Background()) {
		t.Fatal("Connect() = false with a partially answering receiver")
	}
	elapsed := time.Since(start)

	// 15 paced queries plus the 3s reply window: Connect must return
	// shortly after the reply timeout, not wait for the missing slots.
	if elapsed > 8*time.Second {
		t.Fatalf("Connect took %v, discovery wait is not bounded", elapsed)
	}

	if got := client.Stats().InputsFound; got != 5 {
		t.Errorf("InputsFound = %d, want 5", got)
	}
	if got := client.State().InputName(9); got != "Input 9" {
		t.Errorf("InputName(9) = %q, want positional fallback", got)
	}

	entry, ok := logger.find("warn", "input discovery timed out")
	if !ok {
		t.Fatal("no discovery timeout warning logged")
	}
	missing, ok := argValue(entry.args, "missing").([]int)
	if !ok {
		t.Fatalf("timeout warning carries no missing slot list: %v", entry.args)
	}
	if len(missing) != 10 || missing[0] != 6 || missing[9] != 15 {
		t.Errorf("missing slots = %v, want 6 through 15", missing)
	}
}

func TestClientConnectCancelledContext(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	client := NewClient(DeviceConfig{
		Name:       "test-avr",
		Host:       "127.0.0.1",
		Port:       port,
		MaxRetries: 5,
		RetryDelay: 10 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if client.Connect(ctx) {
		t.Fatal("Connect() = true with cancelled context and closed port")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Connect took %v, cancelled context should short-circuit the retry wait", elapsed)
	}
}

func TestClientNotificationsUpdateStateAndCallback(t *testing.T) {
	receiver := newFakeReceiver(t)
	client := newTestClient(receiver)
	defer client.Disconnect()

	var mu sync.Mutex
	var updates []Update
	client.SetOnUpdate(func(u Update) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})

	if !client.Connect(context.Background()) {
		t.Fatal("Connect failed")
	}

	receiver.push("Z1POW1")
	receiver.push("Z1VOL-38")
	receiver.push("XYZZY") // must not reach the callback

	if !waitFor(t, 2*time.Second, func() bool {
		vol, ok := client.State().ZoneVolume(1)
		return ok && vol == -38
	}) {
		t.Fatal("volume notification never reached the cache")
	}

	if on, ok := client.State().ZonePower(1); !ok || !on {
		t.Errorf("ZonePower(1) = %v, %v", on, ok)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, u := range updates {
		if u.Kind == UpdateUnrecognized {
			t.Errorf("callback invoked for unrecognized line %q", u.Raw)
		}
	}
	var sawVolume bool
	for _, u := range updates {
		if u.Kind == UpdateZoneVolume && u.Level == -38 {
			sawVolume = true
		}
	}
	if !sawVolume {
		t.Error("callback never saw the volume update")
	}
}

func TestClientCallbackPanicIsRecovered(t *testing.T) {
	receiver := newFakeReceiver(t)
	client := newTestClient(receiver)
	defer client.Disconnect()

	client.SetOnUpdate(func(Update) {
		panic("observer bug")
	})

	if !client.Connect(context.Background()) {
		t.Fatal("Connect failed")
	}

	receiver.push("Z1POW1")
	receiver.push("Z1VOL-20")

	// The read loop must survive the panicking callback.
	if !waitFor(t, 2*time.Second, func() bool {
		vol, ok := client.State().ZoneVolume(1)
		return ok && vol == -20
	}) {
		t.Fatal("read loop stopped processing after callback panic")
	}
}

func TestClientSendCommandNotConnected(t *testing.T) {
	client := NewClient(DeviceConfig{Name: "test-avr", Host: "127.0.0.1"})
	logger := &captureLogger{}
	client.SetLogger(logger)

	if client.SendCommand("Z1POW1") {
		t.Error("SendCommand() = true on a disconnected client")
	}
	if client.PowerOn(1) {
		t.Error("PowerOn() = true on a disconnected client")
	}

	entry, ok := logger.find("warn", "command dropped")
	if !ok {
		t.Fatal("dropped command was not logged")
	}
	err, ok := argValue(entry.args, "error").(error)
	if !ok || !errors.Is(err, ErrNotConnected) {
		t.Errorf("drop logged with error %v, want ErrNotConnected", err)
	}
}

func TestClientCommandsNeverMutateCache(t *testing.T) {
	receiver := newFakeReceiver(t)
	client := newTestClient(receiver)
	defer client.Disconnect()

	if !client.Connect(context.Background()) {
		t.Fatal("Connect failed")
	}

	if !client.SetVolume(1, -30) {
		t.Fatal("SetVolume failed to send")
	}

	// No notification has been pushed, so the cache must stay empty for
	// the volume key. Only the receiver's echo populates state.
	time.Sleep(100 * time.Millisecond)
	if vol, ok := client.State().ZoneVolume(1); ok {
		t.Errorf("ZoneVolume(1) = %d after command without notification", vol)
	}
}

func TestClientQueryAll(t *testing.T) {
	receiver := newFakeReceiver(t)
	client := newTestClient(receiver)
	defer client.Disconnect()

	if !client.Connect(context.Background()) {
		t.Fatal("Connect failed")
	}

	if !client.QueryAll(context.Background(), 1) {
		t.Fatal("QueryAll() = false")
	}

	want := []string{"Z1POW?", "Z1VOL?", "Z1MUT?", "Z1INP?"}
	if !waitFor(t, 2*time.Second, func() bool {
		sent := make(map[string]int)
		for _, cmd := range receiver.commands() {
			sent[cmd]++
		}
		// Z1POW? is also sent once by the startup handshake.
		return sent["Z1POW?"] >= 2 && sent["Z1VOL?"] >= 1 &&
			sent["Z1MUT?"] >= 1 && sent["Z1INP?"] >= 1
	}) {
		t.Errorf("QueryAll commands missing, got %v, want all of %v",
			receiver.commands(), want)
	}
}

func TestClientDisconnectIdempotent(t *testing.T) {
	receiver := newFakeReceiver(t)
	client := newTestClient(receiver)

	if !client.Connect(context.Background()) {
		t.Fatal("Connect failed")
	}

	client.Disconnect()
	client.Disconnect() // must not panic or block

	if client.IsConnected() {
		t.Error("IsConnected() = true after Disconnect")
	}
	if client.SendCommand("Z1POW1") {
		t.Error("SendCommand() = true after Disconnect")
	}
}

func TestClientDisconnectNeverConnected(t *testing.T) {
	client := NewClient(DeviceConfig{Name: "test-avr", Host: "127.0.0.1"})
	client.Disconnect() // must not panic
	client.Disconnect()
}

func TestClientStats(t *testing.T) {
	receiver := newFakeReceiver(t)
	client := newTestClient(receiver)
	defer client.Disconnect()

	if !client.Connect(context.Background()) {
		t.Fatal("Connect failed")
	}

	stats := client.Stats()
	if !stats.Connected {
		t.Error("Stats().Connected = false while connected")
	}
	if stats.ConnectsTotal != 1 {
		t.Errorf("ConnectsTotal = %d, want 1", stats.ConnectsTotal)
	}
	if stats.CommandsTx == 0 {
		t.Error("CommandsTx = 0 after startup handshake")
	}
	if stats.InputsFound != 15 {
		t.Errorf("InputsFound = %d, want 15", stats.InputsFound)
	}
}

func TestClientIdentityAccessors(t *testing.T) {
	client := NewClient(DeviceConfig{Name: "living-room", Host: "192.168.1.50", Port: 14999})

	if got := client.Name(); got != "living-room" {
		t.Errorf("Name() = %q, want %q", got, "living-room")
	}
	if got := client.Address(); got != "192.168.1.50:14999" {
		t.Errorf("Address() = %q, want %q", got, "192.168.1.50:14999")
	}
}
