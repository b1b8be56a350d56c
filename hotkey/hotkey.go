// Package hotkey implements hotkey registration, combination matching, and
// the event dispatch loop over the interception context.
//
// A hotkey is an unordered set of key codes and a callback. The matcher
// triggers on press edges only: a hotkey fires when the edge completes its
// set, is disarmed until one of its member keys is released, and re-arms on
// that release. Holding a combination while pressing unrelated keys never
// re-fires it.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/interception"
	"github.com/t4euyoon/interceptor/keystate"
)

var (
	// ErrInvalidHotkey is returned by Register for an empty key set.
	ErrInvalidHotkey = errors.New("hotkey requires at least one key")

	// ErrAlreadyListening is returned when the dispatch loop is started
	// while it is already running.
	ErrAlreadyListening = errors.New("dispatch loop is already running")

	// ErrManagerClosed is returned by operations on a closed manager.
	ErrManagerClosed = errors.New("hotkey manager is closed")
)

// Handle identifies one hotkey registration.
type Handle uuid.UUID

func (h Handle) String() string { return uuid.UUID(h).String() }

// Trigger is passed to a hotkey callback when its combination completes.
type Trigger struct {
	// Device is the device whose stroke completed the combination.
	Device interceptor.Device
	// Stroke is the triggering stroke.
	Stroke interceptor.Stroke
	// Pressed is a snapshot of the pressed set at trigger time. It is the
	// callback's own copy.
	Pressed keystate.Set
}

// Callback is invoked synchronously on the dispatch goroutine. A slow or
// blocking callback stalls input processing for the whole process; callers
// needing concurrency must hand off to their own goroutine.
type Callback func(Trigger)

// DiagnosticSink receives reports about callbacks that panicked during
// dispatch. Panics are always logged; a sink additionally surfaces them to
// external tooling such as the monitor hub.
type DiagnosticSink interface {
	ReportCallbackPanic(handle Handle, value any, stack []byte)
}

// Source is the slice of the interception context the manager depends on.
// *interception.Context satisfies it; tests substitute fakes.
type Source interface {
	SetFilterKeyboard(interceptor.FilterKeyState) error
	SetFilterMouse(interceptor.FilterMouseState) error
	AddEventListener(interception.Listener) interception.ListenerHandle
	RemoveEventListener(interception.ListenerHandle)
	Receive(timeout time.Duration) (*interception.Result, error)
	Wake()
	Close() error
}

// entry is one registered hotkey. The armed flag implements the no-repeat
// rule: cleared when the hotkey fires, set again when a member key is
// released.
type entry struct {
	handle   Handle
	class    interceptor.DeviceClass
	keys     keystate.Set
	callback Callback
	suppress bool
	armed    bool
}

type registerOptions struct {
	suppress bool
	class    interceptor.DeviceClass
}

// RegisterOption adjusts a single registration.
type RegisterOption func(*registerOptions)

// WithSuppress controls whether the triggering event is withheld from the
// OS when this hotkey fires. Default true.
func WithSuppress(v bool) RegisterOption {
	return func(o *registerOptions) { o.suppress = v }
}

// WithDeviceClass selects the device class the key set is matched against.
// Default keyboard; use interceptor.ClassMouse for button combinations.
func WithDeviceClass(c interceptor.DeviceClass) RegisterOption {
	return func(o *registerOptions) { o.class = c }
}

// Register adds a hotkey for the given key combination. The key list is
// treated as an unordered set; duplicates are dropped. Fails with
// ErrInvalidHotkey when the set is empty and rejects nil callbacks. No
// partial registration occurs on failure.
func (m *Manager) Register(keys []interceptor.KeyCode, cb Callback, opts ...RegisterOption) (Handle, error) {
	if len(keys) == 0 {
		return Handle{}, ErrInvalidHotkey
	}
	if cb == nil {
		return Handle{}, fmt.Errorf("hotkey callback is required")
	}
	options := registerOptions{suppress: true, class: interceptor.ClassKeyboard}
	for _, opt := range opts {
		opt(&options)
	}
	set := keystate.NewSet(keys...)

	e := &entry{
		handle:   Handle(uuid.New()),
		class:    options.class,
		keys:     set,
		callback: cb,
		suppress: options.suppress,
		armed:    true,
	}

	m.regMu.Lock()
	m.hotkeys = append(m.hotkeys, e)
	m.regMu.Unlock()

	slog.Debug("[hotkey] registered", "handle", e.handle.String(), "keys", set.String())
	return e.handle, nil
}

// Unregister removes a hotkey by handle. Removing an unknown or
// already-removed handle is a successful no-op, so teardown code can
// unregister unconditionally.
func (m *Manager) Unregister(handle Handle) {
	m.regMu.Lock()
	defer m.regMu.Unlock()
	for i, e := range m.hotkeys {
		if e.handle == handle {
			m.hotkeys = append(m.hotkeys[:i], m.hotkeys[i+1:]...)
			return
		}
	}
}
