package push

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pingdeck/pingdeck/internal/tower"
)

// ErrNotConnected reports that a send was attempted without an active transport.
var ErrNotConnected = errors.New("not connected")

// ConnectionState describes the lifecycle of the push channel.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateError
)

// String implements fmt.Stringer.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Applier receives decoded messages in transport-delivery order. The live
// collection is mutated only through this interface, only from the
// manager's read loop.
type Applier interface {
	ApplySnapshot(services []tower.ServiceStatus)
	ApplyUpdate(service tower.ServiceStatus)
}

// EventKind classifies subscriber notifications.
type EventKind int

const (
	EventStateChanged EventKind = iota
	EventSnapshotApplied
	EventUpdateApplied
	EventChannelError
)

// Event is delivered to subscribers after the manager has finished the
// corresponding state or collection change.
type Event struct {
	Kind  EventKind
	State ConnectionState
	Error string
}

// Status is an observable snapshot of the manager.
type Status struct {
	State             ConnectionState
	LastError         string
	LastApplied       time.Time
	ReconnectAttempts int
}

// Options configure a Manager. The zero value of every field has a usable
// default except URL, which is required.
type Options struct {
	URL                  string
	ReconnectDelay       time.Duration // default 5s
	MaxReconnectAttempts int           // default 10; automatic retry stops after this many
	HeartbeatInterval    time.Duration // default 4s
	HeartbeatTimeout     time.Duration // default 10s; read deadline extended on each pong
	Dialer               *websocket.Dialer
}

const (
	defaultReconnectDelay    = 5 * time.Second
	defaultMaxReconnects     = 10
	defaultHeartbeatInterval = 4 * time.Second
	defaultHeartbeatTimeout  = 10 * time.Second
	writeTimeout             = 5 * time.Second
)

// Manager owns one logical push-channel connection: dial, heartbeat,
// reconnect with a fixed delay, teardown, and outbound refresh requests.
// Instances are explicitly constructed and owned by the caller; there is
// no package-level connection.
type Manager struct {
	opts    Options
	applier Applier

	mu          sync.Mutex
	state       ConnectionState
	lastErr     string
	lastApplied time.Time
	attempts    int
	conn        *websocket.Conn
	reconnect   *time.Timer
	gen         uint64 // bumped on every connect/disconnect; stale goroutines compare and bail
	subs        []*Subscription
	nextSubID   int

	writeMu sync.Mutex
}

// NewManager builds a Manager for the given dashboard channel URL. The
// applier receives decoded snapshot and update messages; it may be nil
// when only connection state is of interest.
func NewManager(opts Options, applier Applier) (*Manager, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("push: url required")
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.MaxReconnectAttempts == 0 {
		opts.MaxReconnectAttempts = defaultMaxReconnects
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeatInterval
	}
	if opts.HeartbeatTimeout <= 0 {
		opts.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{HandshakeTimeout: writeTimeout}
	}
	return &Manager{
		opts:    opts,
		applier: applier,
		state:   StateDisconnected,
	}, nil
}

// Connect establishes the transport. It is a no-op when the manager is
// already connected or connecting. The dial happens on a background
// goroutine; progress is observable through Status and subscriptions.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.state == StateConnected || m.state == StateConnecting {
		m.mu.Unlock()
		return
	}
	m.cancelReconnectLocked()
	m.state = StateConnecting
	m.lastErr = ""
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.notify(Event{Kind: EventStateChanged, State: StateConnecting})
	go m.dial(gen)
}

// Disconnect tears the transport down, cancels any pending reconnect
// timer, and resets the attempt counter. Safe to call repeatedly and
// from any state.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.cancelReconnectLocked()
	m.gen++ // invalidate in-flight dials, read loops, and fired timers
	m.attempts = 0
	m.lastErr = ""
	conn := m.conn
	m.conn = nil
	changed := m.state != StateDisconnected
	m.state = StateDisconnected
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if changed {
		m.notify(Event{Kind: EventStateChanged, State: StateDisconnected})
	}
}

// Refresh sends a REFRESH_REQUEST frame over the active transport. It
// fails with ErrNotConnected instead of queuing when no transport is up.
func (m *Manager) Refresh() error {
	m.mu.Lock()
	conn := m.conn
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	frame := refreshRequest{
		Type:      msgRefreshRequest,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("send refresh request: %w", err)
	}
	return nil
}

// Status returns the current observable state of the manager.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:             m.state,
		LastError:         m.lastErr,
		LastApplied:       m.lastApplied,
		ReconnectAttempts: m.attempts,
	}
}

// Subscription is the handle returned by Subscribe. Cancel is safe to
// call at any time, including from inside the callback while an event is
// being delivered.
type Subscription struct {
	id int
	m  *Manager
	fn func(Event)

	cancelMu  sync.Mutex
	cancelled bool
}

// Cancel removes the subscription. No events are delivered after Cancel
// returns.
func (s *Subscription) Cancel() {
	s.cancelMu.Lock()
	s.cancelled = true
	s.cancelMu.Unlock()

	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for i, sub := range s.m.subs {
		if sub.id == s.id {
			s.m.subs = append(s.m.subs[:i], s.m.subs[i+1:]...)
			break
		}
	}
}

func (s *Subscription) isCancelled() bool {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	return s.cancelled
}

// Subscribe registers fn for manager events and returns an explicit
// handle for unsubscribing. Callbacks run on the manager's internal
// goroutines and must not block.
func (m *Manager) Subscribe(fn func(Event)) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSubID++
	sub := &Subscription{id: m.nextSubID, m: m, fn: fn}
	m.subs = append(m.subs, sub)
	return sub
}

func (m *Manager) notify(ev Event) {
	m.mu.Lock()
	subs := make([]*Subscription, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	// A subscriber cancelled mid-delivery is skipped; the rest of the
	// snapshot still receives the event.
	for _, sub := range subs {
		if sub.isCancelled() {
			continue
		}
		sub.fn(ev)
	}
}

func (m *Manager) dial(gen uint64) {
	conn, resp, err := m.opts.Dialer.Dial(m.opts.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		m.fail(gen, nil, fmt.Errorf("dial %s: %w", m.opts.URL, err))
		return
	}

	m.mu.Lock()
	if gen != m.gen {
		// Disconnected (or reconnected) while the handshake was in
		// flight; this transport is an orphan.
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.conn = conn
	m.state = StateConnected
	m.attempts = 0
	m.lastErr = ""
	m.mu.Unlock()

	_ = conn.SetReadDeadline(time.Now().Add(m.opts.HeartbeatTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(m.opts.HeartbeatTimeout))
	})

	m.notify(Event{Kind: EventStateChanged, State: StateConnected})

	go m.heartbeat(gen, conn)
	m.readLoop(gen, conn)
}

func (m *Manager) heartbeat(gen uint64, conn *websocket.Conn) {
	ticker := time.NewTicker(m.opts.HeartbeatInterval)
	defer ticker.Stop()
	for range ticker.C {
		m.mu.Lock()
		stale := gen != m.gen
		m.mu.Unlock()
		if stale {
			return
		}
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
			// The read loop observes the broken transport and handles
			// the transition; nothing more to do here.
			return
		}
	}
}

func (m *Manager) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.fail(gen, conn, fmt.Errorf("read message: %w", err))
			return
		}
		m.handleMessage(gen, data)
	}
}

// handleMessage decodes and applies one inbound frame. Malformed frames
// never tear the connection down and never touch the live collection;
// they are recorded as the channel's last error and dropped.
func (m *Manager) handleMessage(gen uint64, data []byte) {
	var env envelope
	if err := unmarshalEnvelope(data, &env); err != nil {
		m.recordError(gen, err.Error())
		return
	}

	switch env.Type {
	case msgSnapshot:
		services, err := decodeSnapshot(env.Data)
		if err != nil {
			m.recordError(gen, err.Error())
			return
		}
		if m.applier != nil {
			m.applier.ApplySnapshot(services)
		}
		m.markApplied(gen)
		m.notify(Event{Kind: EventSnapshotApplied, State: StateConnected})
	case msgUpdate:
		service, err := decodeUpdate(env.Data)
		if err != nil {
			m.recordError(gen, err.Error())
			return
		}
		if m.applier != nil {
			m.applier.ApplyUpdate(service)
		}
		m.markApplied(gen)
		m.notify(Event{Kind: EventUpdateApplied, State: StateConnected})
	case msgError:
		m.recordError(gen, decodeDiagnostic(env.Data))
	default:
		m.recordError(gen, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func (m *Manager) markApplied(gen uint64) {
	m.mu.Lock()
	if gen == m.gen {
		m.lastApplied = time.Now()
	}
	m.mu.Unlock()
}

func (m *Manager) recordError(gen uint64, msg string) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.lastErr = msg
	state := m.state
	m.mu.Unlock()
	m.notify(Event{Kind: EventChannelError, State: state, Error: msg})
}

// fail moves the manager to StateError and arms exactly one reconnect
// timer, unless the attempt budget is spent or the failure belongs to a
// transport that has already been replaced.
func (m *Manager) fail(gen uint64, conn *websocket.Conn, err error) {
	if conn != nil {
		_ = conn.Close()
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.state = StateError
	m.lastErr = err.Error()
	m.attempts++
	retry := m.opts.MaxReconnectAttempts < 0 || m.attempts <= m.opts.MaxReconnectAttempts
	if retry {
		m.scheduleReconnectLocked()
	}
	m.mu.Unlock()

	m.notify(Event{Kind: EventStateChanged, State: StateError, Error: err.Error()})
}

// scheduleReconnectLocked arms the reconnect timer. Callers hold m.mu.
func (m *Manager) scheduleReconnectLocked() {
	m.cancelReconnectLocked()
	gen := m.gen
	m.reconnect = time.AfterFunc(m.opts.ReconnectDelay, func() {
		m.mu.Lock()
		if gen != m.gen || m.state != StateError {
			// Disconnect (or a manual Connect) won the race with the
			// timer firing.
			m.mu.Unlock()
			return
		}
		m.reconnect = nil
		m.state = StateConnecting
		m.gen++
		next := m.gen
		m.mu.Unlock()

		m.notify(Event{Kind: EventStateChanged, State: StateConnecting})
		m.dial(next)
	})
}

func (m *Manager) cancelReconnectLocked() {
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
}
