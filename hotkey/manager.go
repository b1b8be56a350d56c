package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/interception"
	"github.com/t4euyoon/interceptor/internal/workerutil"
	"github.com/t4euyoon/interceptor/keystate"
)

// State is the dispatch loop lifecycle state.
type State int

const (
	// StateIdle means no dispatch loop is running. Registrations are
	// accepted but nothing is matched.
	StateIdle State = iota
	// StateListening means the dispatch loop is consuming events.
	StateListening
	// StateStopping means a stop was requested and the loop is draining.
	StateStopping
	// StateClosed means the manager released its resources. Terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateStopping:
		return "stopping"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	// defaultReceiveTimeout bounds each blocking receive so the loop
	// re-checks its stop flag even if the wake signal is lost.
	defaultReceiveTimeout = 500 * time.Millisecond

	// stopTimeout bounds how long Stop waits for the loop goroutine.
	stopTimeout = 2 * time.Second
)

// Config controls which device classes a manager listens to.
type Config struct {
	// Keyboard and Mouse select the event classes to filter for. When
	// neither is set, keyboard-only is assumed.
	Keyboard bool
	Mouse    bool

	// Sink, when non-nil, receives callback panic reports.
	Sink DiagnosticSink

	// ReceiveTimeout bounds each blocking receive. Zero selects the
	// default; negative blocks indefinitely between wake-ups.
	ReceiveTimeout time.Duration
}

// Manager owns hotkey registrations and the dispatch loop that matches them.
//
// Thread-safety: all exported methods are safe for concurrent use. The
// registration mutex is never held while a callback runs. Lock ordering:
// stateMu before regMu; neither is held across src.Receive.
type Manager struct {
	src     Source
	cfg     Config
	timeout time.Duration

	regMu   sync.Mutex
	hotkeys []*entry

	stateMu  sync.Mutex
	state    State
	loopDone <-chan struct{}

	listener  interception.ListenerHandle
	closeOnce sync.Once
	closeErr  error
}

// New creates a manager over the process-wide interception context, opening
// it if necessary. Fails with interception.ErrDriverUnavailable when the
// driver is not installed.
func New(cfg Config) (*Manager, error) {
	ctx, err := interception.Open()
	if err != nil {
		return nil, err
	}
	return NewWithSource(ctx, cfg)
}

// NewWithSource creates a manager over an explicit event source. The manager
// takes ownership: Close closes the source.
func NewWithSource(src Source, cfg Config) (*Manager, error) {
	if !cfg.Keyboard && !cfg.Mouse {
		cfg.Keyboard = true
	}
	timeout := cfg.ReceiveTimeout
	if timeout == 0 {
		timeout = defaultReceiveTimeout
	}

	if cfg.Keyboard {
		if err := src.SetFilterKeyboard(interceptor.FilterKeyAll); err != nil {
			return nil, fmt.Errorf("set keyboard filter: %w", err)
		}
	}
	if cfg.Mouse {
		if err := src.SetFilterMouse(interceptor.FilterMouseAll); err != nil {
			return nil, fmt.Errorf("set mouse filter: %w", err)
		}
	}

	m := &Manager{src: src, cfg: cfg, timeout: timeout}
	m.listener = src.AddEventListener(m.handleEvent)
	return m, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state
}

// Listen runs the dispatch loop on the calling goroutine until Stop or
// Close. Returns ErrAlreadyListening if a loop is running and
// ErrManagerClosed after Close.
func (m *Manager) Listen() error {
	done, err := m.beginListen()
	if err != nil {
		return err
	}
	defer close(done)
	m.run()
	return nil
}

// Start runs the dispatch loop on a new goroutine. The returned channel is
// closed when the loop exits.
func (m *Manager) Start() (<-chan struct{}, error) {
	done, err := m.beginListen()
	if err != nil {
		return nil, err
	}
	loopDone := workerutil.Go("hotkey-dispatch", m.run)
	go func() {
		<-loopDone
		close(done)
	}()
	return loopDone, nil
}

// Run listens until the context is cancelled, then closes the manager.
// Intended as the single call of a hotkey-driven program's main goroutine.
func (m *Manager) Run(ctx context.Context) error {
	done, err := m.Start()
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		if err := m.Close(); err != nil {
			return err
		}
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Stop asks the dispatch loop to exit and waits for it, bounded by a short
// timeout. The manager returns to idle; registrations are kept and the loop
// can be started again. Stopping an idle manager is a no-op.
func (m *Manager) Stop() error {
	m.stateMu.Lock()
	if m.state != StateListening {
		m.stateMu.Unlock()
		return nil
	}
	m.state = StateStopping
	done := m.loopDone
	m.stateMu.Unlock()

	m.src.Wake()

	select {
	case <-done:
		return nil
	case <-time.After(stopTimeout):
		return fmt.Errorf("dispatch loop did not stop within %v", stopTimeout)
	}
}

// Close stops the loop, detaches from the event source, and closes the
// source. Idempotent: the second and later calls return the first result.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		if err := m.Stop(); err != nil {
			slog.Warn("[hotkey] stop during close failed", "error", err)
		}
		m.src.RemoveEventListener(m.listener)

		m.stateMu.Lock()
		m.state = StateClosed
		m.stateMu.Unlock()

		m.closeErr = m.src.Close()
	})
	return m.closeErr
}

func (m *Manager) beginListen() (chan struct{}, error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	switch m.state {
	case StateClosed:
		return nil, ErrManagerClosed
	case StateListening, StateStopping:
		return nil, ErrAlreadyListening
	}
	m.state = StateListening
	done := make(chan struct{})
	m.loopDone = done
	return done, nil
}

// run is the dispatch loop body. Matching happens inside the event listener
// on the receive path; the loop itself only pumps Receive and watches for
// the stop request.
func (m *Manager) run() {
	slog.Debug("[hotkey] dispatch loop started")
	defer slog.Debug("[hotkey] dispatch loop stopped")
	defer m.finishListen()

	for {
		if m.stopRequested() {
			return
		}
		_, err := m.src.Receive(m.timeout)
		if err != nil {
			if errors.Is(err, interception.ErrClosed) {
				return
			}
			slog.Error("[hotkey] receive failed", "error", err)
			return
		}
	}
}

func (m *Manager) stopRequested() bool {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	return m.state != StateListening
}

func (m *Manager) finishListen() {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.state == StateListening || m.state == StateStopping {
		m.state = StateIdle
	}
	m.loopDone = nil
}

// handleEvent is the event listener: it matches registered hotkeys against
// each pressed-set transition and reports whether the event should be
// suppressed. Release edges re-arm; press edges fire.
func (m *Manager) handleEvent(ev *interception.EventInfo) bool {
	suppress := false
	for _, change := range ev.Changes {
		if change.Down && !change.Edge {
			// Held-key repeat: a matched combination stays disarmed.
			continue
		}
		if change.Down {
			if m.firePressEdge(ev, change) {
				suppress = true
			}
		} else {
			m.rearmOnRelease(change)
		}
	}
	return suppress
}

// firePressEdge fires every armed hotkey whose set contains the edge's code
// and is fully held. Fired hotkeys disarm until a member release. Reports
// whether any fired hotkey requests suppression.
func (m *Manager) firePressEdge(ev *interception.EventInfo, change keystate.Change) bool {
	m.regMu.Lock()
	var fired []*entry
	for _, e := range m.hotkeys {
		if !e.armed || e.class != change.Class {
			continue
		}
		if !e.keys.Contains(change.Code) || !e.keys.SubsetOf(ev.Pressed) {
			continue
		}
		e.armed = false
		fired = append(fired, e)
	}
	m.regMu.Unlock()

	suppress := false
	for _, e := range fired {
		if e.suppress {
			suppress = true
		}
		m.invoke(e, Trigger{
			Device:  ev.Device,
			Stroke:  ev.Stroke,
			Pressed: ev.Pressed.Clone(),
		})
	}
	return suppress
}

// rearmOnRelease re-arms every hotkey whose set contains the released code.
func (m *Manager) rearmOnRelease(change keystate.Change) {
	m.regMu.Lock()
	defer m.regMu.Unlock()
	for _, e := range m.hotkeys {
		if e.class == change.Class && e.keys.Contains(change.Code) {
			e.armed = true
		}
	}
}

// invoke runs one callback with panic isolation. A panicking callback is
// logged and reported to the sink; other hotkeys and the loop continue.
func (m *Manager) invoke(e *entry, trig Trigger) {
	if v, stack := workerutil.SafeCall(func() { e.callback(trig) }); v != nil {
		slog.Error("[hotkey] callback panicked",
			"handle", e.handle.String(), "panic", v, "stack", string(stack))
		if m.cfg.Sink != nil {
			m.cfg.Sink.ReportCallbackPanic(e.handle, v, stack)
		}
	}
}
