package monitor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/hotkey"
	"github.com/t4euyoon/interceptor/interception"
	"github.com/t4euyoon/interceptor/keystate"

	"github.com/google/uuid"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(Options{})
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { h.Stop() })
	return h
}

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.URL(), nil)
	if err != nil {
		t.Fatalf("dial %s: %v", h.URL(), err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestListenerBroadcastsEventRecords(t *testing.T) {
	h := startHub(t)
	conn := dial(t, h)
	waitFor(t, h.HasActiveConnection)

	listener := h.Listener()
	ev := &interception.EventInfo{
		Device:  interceptor.DefaultKeyboard,
		Stroke:  interceptor.NewKeyStroke(interceptor.KeyA, interceptor.KeyStateDown),
		Pressed: keystate.NewSet(interceptor.KeyA),
	}
	if suppressed := listener(ev); suppressed {
		t.Error("monitor listener must never suppress")
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var rec EventRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if rec.Type != "event" || rec.Kind != "key" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Device != "keyboard01" {
		t.Errorf("device = %q", rec.Device)
	}
	if len(rec.Pressed) != 1 || rec.Pressed[0] != "A" {
		t.Errorf("pressed = %v", rec.Pressed)
	}
}

func TestReportCallbackPanicBroadcasts(t *testing.T) {
	h := startHub(t)
	conn := dial(t, h)
	waitFor(t, h.HasActiveConnection)

	handle := hotkey.Handle(uuid.New())
	h.ReportCallbackPanic(handle, "boom", []byte("stack"))

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var rec PanicRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if rec.Type != "callback_panic" || rec.Value != "boom" || rec.Handle != handle.String() {
		t.Errorf("record = %+v", rec)
	}
}

func TestBroadcastWithoutClientIsDropped(t *testing.T) {
	h := startHub(t)
	// No client connected; the listener must still be a harmless no-op.
	listener := h.Listener()
	listener(&interception.EventInfo{
		Device: interceptor.DefaultMouse,
		Stroke: interceptor.MouseStroke{X: 1},
	})
}

func TestNewConnectionReplacesOld(t *testing.T) {
	h := startHub(t)
	old := dial(t, h)
	waitFor(t, h.HasActiveConnection)

	fresh := dial(t, h)
	// The old connection is closed by the hub; reads on it fail promptly.
	old.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := old.ReadMessage(); err == nil {
		t.Error("old connection still readable after replacement")
	}

	waitFor(t, h.HasActiveConnection)
	h.ReportCallbackPanic(hotkey.Handle(uuid.New()), "x", nil)
	fresh.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := fresh.ReadMessage(); err != nil {
		t.Errorf("fresh connection did not receive the broadcast: %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := startHub(t)
	if err := h.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := h.Stop(); err != nil {
		t.Errorf("second Stop = %v, want nil", err)
	}
}
