package push

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pingdeck/pingdeck/internal/state"
)

// towerStub is an in-process websocket endpoint standing in for the
// tower's dashboard channel. Accepted connections are handed to the test
// via conns; inbound frames (refresh requests) arrive on inbound.
type towerStub struct {
	server  *httptest.Server
	conns   chan *websocket.Conn
	inbound chan []byte
}

func newTowerStub(t *testing.T) *towerStub {
	t.Helper()
	upgrader := websocket.Upgrader{}
	ts := &towerStub{
		conns:   make(chan *websocket.Conn, 4),
		inbound: make(chan []byte, 16),
	}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case ts.inbound <- data:
			default:
			}
		}
	}))
	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *towerStub) url() string {
	return "ws" + strings.TrimPrefix(ts.server.URL, "http")
}

func (ts *towerStub) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ts.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the manager to dial")
		return nil
	}
}

func (ts *towerStub) push(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("server write failed: %v", err)
	}
}

func testOptions(url string) Options {
	return Options{
		URL:                  url,
		ReconnectDelay:       50 * time.Millisecond,
		MaxReconnectAttempts: 5,
		HeartbeatInterval:    time.Second,
		HeartbeatTimeout:     5 * time.Second,
	}
}

// subscribeEvents buffers manager events onto a channel the test can
// select on. The buffer is large enough that callbacks never block.
func subscribeEvents(m *Manager) <-chan Event {
	events := make(chan Event, 64)
	m.Subscribe(func(ev Event) {
		select {
		case events <- ev:
		default:
		}
	})
	return events
}

func waitFor(t *testing.T, events <-chan Event, match func(Event) bool, what string) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func waitState(t *testing.T, events <-chan Event, want ConnectionState) {
	t.Helper()
	waitFor(t, events, func(ev Event) bool {
		return ev.Kind == EventStateChanged && ev.State == want
	}, "state "+want.String())
}

func TestManager_UpdateThenSnapshotDrivesCollection(t *testing.T) {
	ts := newTowerStub(t)
	live := state.NewLiveStore()

	m, err := NewManager(testOptions(ts.url()), live)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	events := subscribeEvents(m)
	m.Connect()
	defer m.Disconnect()

	conn := ts.accept(t)
	waitState(t, events, StateConnected)

	// An update for an id the collection has never seen inserts it.
	ts.push(t, conn, `{"type":"UPDATE","data":{"id":"svc-9","n":"payments","e":"prod","st":"major_outage","io":false},"timestamp":"2026-08-28T10:00:00Z"}`)
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventUpdateApplied }, "update applied")

	services := live.Services()
	if len(services) != 1 {
		t.Fatalf("collection has %d entities, want 1", len(services))
	}
	if services[0].ID != "svc-9" || services[0].IsOnline {
		t.Fatalf("entity = %#v, want svc-9 offline", services[0])
	}

	// An empty snapshot is authoritative and clears everything.
	ts.push(t, conn, `{"type":"SNAPSHOT","data":[],"timestamp":"2026-08-28T10:00:01Z"}`)
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventSnapshotApplied }, "snapshot applied")

	if live.Len() != 0 {
		t.Fatalf("collection has %d entities after empty snapshot, want 0", live.Len())
	}

	// A populated snapshot replaces wholesale.
	ts.push(t, conn, `{"type":"SNAPSHOT","data":[{"id":"a","n":"api","e":"prod","io":true,"p95":120.5},{"id":"b","n":"web","e":"stage","io":true}],"timestamp":"2026-08-28T10:00:02Z"}`)
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventSnapshotApplied }, "snapshot applied")

	if live.Len() != 2 {
		t.Fatalf("collection has %d entities, want 2", live.Len())
	}
	got, ok := live.Get("a")
	if !ok || got.LatencyP95Ms != 120.5 || got.Name != "api" {
		t.Fatalf("entity a = %#v, want decoded abbreviated fields", got)
	}
}

func TestManager_RefreshRequiresConnection(t *testing.T) {
	m, err := NewManager(testOptions("ws://127.0.0.1:1/ws/dashboard"), nil)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	if err := m.Refresh(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Refresh error = %v, want ErrNotConnected", err)
	}
}

func TestManager_RefreshSendsRequestFrame(t *testing.T) {
	ts := newTowerStub(t)
	m, err := NewManager(testOptions(ts.url()), nil)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	events := subscribeEvents(m)
	m.Connect()
	defer m.Disconnect()

	ts.accept(t)
	waitState(t, events, StateConnected)

	if err := m.Refresh(); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	select {
	case data := <-ts.inbound:
		var frame refreshRequest
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("decode outbound frame: %v", err)
		}
		if frame.Type != msgRefreshRequest {
			t.Fatalf("frame type = %q, want %q", frame.Type, msgRefreshRequest)
		}
		if frame.Timestamp == "" {
			t.Fatal("frame timestamp is empty")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tower never received the refresh request")
	}
}

func TestManager_MalformedFrameIsDroppedNotFatal(t *testing.T) {
	ts := newTowerStub(t)
	live := state.NewLiveStore()
	m, err := NewManager(testOptions(ts.url()), live)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	events := subscribeEvents(m)
	m.Connect()
	defer m.Disconnect()

	conn := ts.accept(t)
	waitState(t, events, StateConnected)

	ts.push(t, conn, `{"type":"SNAPSHOT","data":[{"id":"a","io":true}],"timestamp":"t"}`)
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventSnapshotApplied }, "snapshot applied")

	// Garbage, a type-less frame, and an update missing its id are all
	// recorded and dropped without touching the collection.
	for _, frame := range []string{
		`{{{not json`,
		`{"type":"MYSTERY","data":null,"timestamp":"t"}`,
		`{"type":"UPDATE","data":{"n":"no id"},"timestamp":"t"}`,
	} {
		ts.push(t, conn, frame)
		ev := waitFor(t, events, func(ev Event) bool { return ev.Kind == EventChannelError }, "channel error")
		if ev.Error == "" {
			t.Fatal("channel error event carries no message")
		}
	}

	status := m.Status()
	if status.State != StateConnected {
		t.Fatalf("state = %v after malformed frames, want connected", status.State)
	}
	if status.LastError == "" {
		t.Fatal("LastError empty, want recorded decode failure")
	}
	if live.Len() != 1 {
		t.Fatalf("collection has %d entities, want the original 1", live.Len())
	}

	// The channel still works.
	ts.push(t, conn, `{"type":"UPDATE","data":{"id":"b","io":true},"timestamp":"t"}`)
	waitFor(t, events, func(ev Event) bool { return ev.Kind == EventUpdateApplied }, "update applied")
	if live.Len() != 2 {
		t.Fatalf("collection has %d entities, want 2", live.Len())
	}
}

func TestManager_ReconnectsAfterTransportLoss(t *testing.T) {
	ts := newTowerStub(t)
	m, err := NewManager(testOptions(ts.url()), nil)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	events := subscribeEvents(m)
	m.Connect()
	defer m.Disconnect()

	first := ts.accept(t)
	waitState(t, events, StateConnected)

	_ = first.Close()
	waitState(t, events, StateError)
	waitState(t, events, StateConnecting)

	ts.accept(t)
	waitState(t, events, StateConnected)

	if status := m.Status(); status.ReconnectAttempts != 0 {
		t.Fatalf("attempts = %d after successful reconnect, want 0", status.ReconnectAttempts)
	}
}

func TestManager_DisconnectCancelsPendingReconnect(t *testing.T) {
	ts := newTowerStub(t)
	opts := testOptions(ts.url())
	opts.ReconnectDelay = 250 * time.Millisecond
	m, err := NewManager(opts, nil)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	events := subscribeEvents(m)
	m.Connect()

	conn := ts.accept(t)
	waitState(t, events, StateConnected)

	_ = conn.Close()
	waitState(t, events, StateError)

	m.Disconnect()

	// Well past the reconnect delay: no dial may arrive and the state
	// must hold at disconnected with the attempt counter reset.
	select {
	case <-ts.conns:
		t.Fatal("manager dialed after Disconnect")
	case <-time.After(3 * opts.ReconnectDelay):
	}

	status := m.Status()
	if status.State != StateDisconnected {
		t.Fatalf("state = %v, want disconnected", status.State)
	}
	if status.ReconnectAttempts != 0 {
		t.Fatalf("attempts = %d, want 0", status.ReconnectAttempts)
	}
}

func TestManager_ConnectWhileConnectingIsNoOp(t *testing.T) {
	ts := newTowerStub(t)
	m, err := NewManager(testOptions(ts.url()), nil)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	events := subscribeEvents(m)
	m.Connect()
	m.Connect()
	m.Connect()
	defer m.Disconnect()

	ts.accept(t)
	waitState(t, events, StateConnected)

	select {
	case <-ts.conns:
		t.Fatal("repeated Connect produced a second transport")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestManager_StopsRetryingAfterBudget(t *testing.T) {
	// An endpoint that refuses connections: bring a server up to learn a
	// free address, then shut it down.
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := "ws" + strings.TrimPrefix(dead.URL, "http")
	dead.Close()

	opts := testOptions(url)
	opts.ReconnectDelay = 30 * time.Millisecond
	opts.MaxReconnectAttempts = 1
	m, err := NewManager(opts, nil)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	events := subscribeEvents(m)
	m.Connect()

	waitState(t, events, StateError) // initial dial fails, attempt 1
	waitState(t, events, StateError) // retry fails, attempt 2 exceeds the budget

	time.Sleep(5 * opts.ReconnectDelay)
	status := m.Status()
	if status.State != StateError {
		t.Fatalf("state = %v, want error after exhausting retries", status.State)
	}
	if status.ReconnectAttempts != 2 {
		t.Fatalf("attempts = %d, want 2", status.ReconnectAttempts)
	}
	if status.LastError == "" {
		t.Fatal("LastError empty, want dial failure")
	}

	// Manual Connect starts a fresh cycle with a reset budget.
	m.Connect()
	waitState(t, events, StateConnecting)
	m.Disconnect()
}

func TestSubscription_CancelDuringDelivery(t *testing.T) {
	m, err := NewManager(testOptions("ws://127.0.0.1:1/ws/dashboard"), nil)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	var firstCalls, secondCalls, thirdCalls int
	var second *Subscription

	m.Subscribe(func(Event) {
		firstCalls++
		// Cancelling a sibling mid-delivery must suppress its callback
		// for this very event.
		second.Cancel()
	})
	second = m.Subscribe(func(Event) { secondCalls++ })
	m.Subscribe(func(Event) { thirdCalls++ })

	m.notify(Event{Kind: EventStateChanged, State: StateConnecting})

	if firstCalls != 1 || secondCalls != 0 || thirdCalls != 1 {
		t.Fatalf("calls = %d/%d/%d, want 1/0/1", firstCalls, secondCalls, thirdCalls)
	}

	// Nothing is delivered after Cancel returns.
	m.notify(Event{Kind: EventStateChanged, State: StateDisconnected})
	if secondCalls != 0 {
		t.Fatalf("cancelled subscriber called %d times", secondCalls)
	}
	if firstCalls != 2 || thirdCalls != 2 {
		t.Fatalf("surviving subscribers called %d/%d times, want 2/2", firstCalls, thirdCalls)
	}
}

func TestSubscription_SelfCancelIsSafe(t *testing.T) {
	m, err := NewManager(testOptions("ws://127.0.0.1:1/ws/dashboard"), nil)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	calls := 0
	var sub *Subscription
	sub = m.Subscribe(func(Event) {
		calls++
		sub.Cancel()
	})

	m.notify(Event{Kind: EventStateChanged, State: StateConnecting})
	m.notify(Event{Kind: EventStateChanged, State: StateConnected})

	if calls != 1 {
		t.Fatalf("calls = %d, want exactly 1", calls)
	}
}
