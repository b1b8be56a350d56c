package record

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/interception"
)

type sentStroke struct {
	device interceptor.Device
	stroke interceptor.Stroke
}

type recordingSender struct {
	sent []sentStroke
}

func (r *recordingSender) Send(device interceptor.Device, s interceptor.Stroke) error {
	r.sent = append(r.sent, sentStroke{device, s})
	return nil
}

func openRecorder(t *testing.T) (*Recorder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	rec, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { rec.Close() })
	return rec, path
}

func observe(rec *Recorder, device interceptor.Device, s interceptor.Stroke) {
	rec.Listener()(&interception.EventInfo{Device: device, Stroke: s})
}

func TestRecorderPersistsStrokes(t *testing.T) {
	rec, _ := openRecorder(t)

	observe(rec, interceptor.DefaultKeyboard, interceptor.NewKeyStroke(interceptor.KeyA, interceptor.KeyStateDown))
	observe(rec, interceptor.DefaultKeyboard, interceptor.NewKeyStroke(interceptor.KeyA, interceptor.KeyStateUp))
	observe(rec, interceptor.DefaultMouse, interceptor.MouseStroke{Buttons: interceptor.MouseLeftButtonDown})

	n, err := rec.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("persisted %d strokes, want 3", n)
	}
}

func TestRecorderOffsetsAreMonotonic(t *testing.T) {
	rec, path := openRecorder(t)

	// Deterministic clock: each stroke lands 100ms after the previous one.
	base := time.Unix(0, 0)
	tick := 0
	rec.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * 100 * time.Millisecond)
	}

	observe(rec, interceptor.DefaultKeyboard, interceptor.NewKeyStroke(interceptor.KeyA, interceptor.KeyStateDown))
	observe(rec, interceptor.DefaultKeyboard, interceptor.NewKeyStroke(interceptor.KeyA, interceptor.KeyStateUp))
	rec.Close()

	rp, err := OpenReplay(path)
	if err != nil {
		t.Fatalf("OpenReplay failed: %v", err)
	}
	defer rp.Close()

	var gaps []time.Duration
	rp.sleep = func(d time.Duration) { gaps = append(gaps, d) }

	sender := &recordingSender{}
	if err := rp.Replay(context.Background(), sender); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(gaps) != 1 {
		t.Fatalf("slept %d times, want 1", len(gaps))
	}
	if gaps[0] != 100*time.Millisecond {
		t.Errorf("gap = %v, want 100ms", gaps[0])
	}
}

func TestReplayEmitsInOrder(t *testing.T) {
	rec, path := openRecorder(t)
	observe(rec, interceptor.DefaultKeyboard, interceptor.NewKeyStroke(interceptor.KeyA, interceptor.KeyStateDown))
	observe(rec, interceptor.DefaultKeyboard, interceptor.NewKeyStroke(interceptor.KeyA, interceptor.KeyStateUp))
	observe(rec, interceptor.DefaultMouse, interceptor.MouseStroke{Buttons: interceptor.MouseLeftButtonDown, X: 7})
	rec.Close()

	rp, err := OpenReplay(path)
	if err != nil {
		t.Fatalf("OpenReplay failed: %v", err)
	}
	defer rp.Close()
	rp.Speed = 0 // no delays

	sender := &recordingSender{}
	if err := rp.Replay(context.Background(), sender); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(sender.sent) != 3 {
		t.Fatalf("replayed %d strokes, want 3", len(sender.sent))
	}

	first, ok := sender.sent[0].stroke.(interceptor.KeyStroke)
	if !ok || first.Code != interceptor.KeyA || !first.Down() {
		t.Errorf("first replayed stroke = %v", sender.sent[0].stroke)
	}
	if first.Hardware() {
		t.Error("replayed strokes must carry the injected marker")
	}
	if sender.sent[0].device != interceptor.DefaultKeyboard {
		t.Errorf("first device = %v", sender.sent[0].device)
	}

	last, ok := sender.sent[2].stroke.(interceptor.MouseStroke)
	if !ok || last.Buttons != interceptor.MouseLeftButtonDown || last.X != 7 {
		t.Errorf("last replayed stroke = %v", sender.sent[2].stroke)
	}
	if sender.sent[2].device != interceptor.DefaultMouse {
		t.Errorf("last device = %v", sender.sent[2].device)
	}
}

func TestReplayHonorsCancellation(t *testing.T) {
	rec, path := openRecorder(t)
	// Deterministic clock so the two strokes get distinct offsets and the
	// replay has a gap to sleep through.
	base := time.Unix(0, 0)
	tick := 0
	rec.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * 100 * time.Millisecond)
	}
	observe(rec, interceptor.DefaultKeyboard, interceptor.NewKeyStroke(interceptor.KeyA, interceptor.KeyStateDown))
	observe(rec, interceptor.DefaultKeyboard, interceptor.NewKeyStroke(interceptor.KeyA, interceptor.KeyStateUp))
	rec.Close()

	rp, err := OpenReplay(path)
	if err != nil {
		t.Fatalf("OpenReplay failed: %v", err)
	}
	defer rp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	rp.sleep = func(time.Duration) { cancel() }

	sender := &recordingSender{}
	if err := rp.Replay(ctx, sender); err == nil {
		t.Error("cancelled replay should return the context error")
	}
	if len(sender.sent) != 1 {
		t.Errorf("replayed %d strokes after cancellation, want 1", len(sender.sent))
	}
}

func TestRecorderCloseIsIdempotent(t *testing.T) {
	rec, _ := openRecorder(t)
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}
