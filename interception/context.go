// Package interception exposes the process-wide driver context: a singleton
// handle over the kernel filter driver's device slots with event filtering,
// blocking (but cancellable) receive, synthetic send, and an ordered list of
// event listeners that decide per-event suppression.
package interception

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/internal/driverio"
	"github.com/t4euyoon/interceptor/keystate"
)

var (
	// ErrDriverUnavailable means the kernel filter driver is not installed
	// or no device slot could be opened. Fatal at open time; not retried.
	ErrDriverUnavailable = errors.New("interception driver unavailable")

	// ErrClosed is returned by operations on a closed context.
	ErrClosed = errors.New("interception context is closed")

	// ErrConcurrentReceive is returned when a second goroutine calls
	// Receive while another receive is in flight. Only the dispatch
	// goroutine may receive.
	ErrConcurrentReceive = errors.New("another goroutine is already receiving")

	// ErrUnknownDevice is returned by Send for device numbers that were
	// not opened.
	ErrUnknownDevice = errors.New("unknown device")
)

// Listener observes every received stroke before hotkey processing. The
// return value requests suppression: when any listener returns true the
// event is not forwarded to the OS. Listeners run on the dispatch
// goroutine, in registration order.
type Listener func(ev *EventInfo) bool

// ListenerHandle identifies a registered listener for removal. Handles are
// compared by identity, so structurally equal callbacks never alias.
type ListenerHandle uuid.UUID

// EventInfo is the view of one received stroke handed to listeners.
type EventInfo struct {
	Device interceptor.Device
	Stroke interceptor.Stroke
	// Changes are the pressed-set transitions this stroke caused; empty
	// for moves and held-key repeats report Edge=false.
	Changes []keystate.Change
	// Pressed is a snapshot of the hardware pressed set for the device's
	// class, taken after the stroke was applied. It is a copy; callbacks
	// cannot race with the next update.
	Pressed keystate.Set
}

// Result reports the outcome of one Receive call.
type Result struct {
	Device     interceptor.Device
	Stroke     interceptor.Stroke
	Suppressed bool
}

type listenerEntry struct {
	handle ListenerHandle
	fn     Listener
}

// Context is the process-wide driver handle. Obtain it via Open; at most
// one live context exists per process.
//
// Lock ordering: the singleton mutex is never acquired while holding the
// context mutex.
type Context struct {
	drv     driverio.Driver
	devices []driverio.Device
	byNum   map[int]driverio.Device
	tracker *keystate.Tracker

	mu        sync.Mutex
	listeners []listenerEntry
	closed    bool

	// receiving serializes Receive: 0 idle, 1 in flight.
	receiving atomic.Int32
}

var (
	singletonMu sync.Mutex
	shared      *Context

	// newDriver is a test seam; tests substitute a memory driver.
	newDriver = driverio.New
)

// Open returns the live context, creating it on first use. Repeated calls
// return the same instance until Close; a fresh context is created on the
// next Open after that.
func Open() (*Context, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	if shared != nil && !shared.isClosed() {
		return shared, nil
	}

	drv := newDriver()
	devices, err := drv.Open()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("%w: %w", ErrDriverUnavailable, err)
	}

	ctx := &Context{
		drv:     drv,
		devices: devices,
		byNum:   make(map[int]driverio.Device, len(devices)),
		tracker: keystate.NewTracker(),
	}
	for _, dev := range devices {
		ctx.byNum[dev.Number()] = dev
		if id, ok := dev.HardwareID(); ok {
			slog.Debug("[interception] opened device",
				"device", interceptor.Device{ID: dev.Number()}.String(), "hwid", id)
		}
	}
	shared = ctx
	return ctx, nil
}

// Close releases the shared context if one is live. Calling it with no live
// context is a no-op, so teardown code never has to track open state.
func Close() error {
	singletonMu.Lock()
	ctx := shared
	singletonMu.Unlock()
	if ctx == nil {
		return nil
	}
	return ctx.Close()
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close releases the driver handle and invalidates the singleton. Safe to
// call twice; the second call is a no-op. A Receive blocked in the driver
// wait is woken and returns ErrClosed.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.drv.Wake()
	err := c.drv.Close()

	singletonMu.Lock()
	if shared == c {
		shared = nil
	}
	singletonMu.Unlock()
	return err
}

// Tracker returns the pressed-key tracker fed by the receive path.
func (c *Context) Tracker() *keystate.Tracker { return c.tracker }

// Devices lists the opened device slots.
func (c *Context) Devices() []interceptor.Device {
	out := make([]interceptor.Device, 0, len(c.devices))
	for _, dev := range c.devices {
		out = append(out, interceptor.Device{ID: dev.Number()})
	}
	return out
}

// SetFilterKeyboard applies a keyboard filter to every keyboard slot.
// Takes effect on the next receive.
func (c *Context) SetFilterKeyboard(mask interceptor.FilterKeyState) error {
	return c.setFilter(interceptor.ClassKeyboard, uint16(mask))
}

// SetFilterMouse applies a mouse filter to every mouse slot. Takes effect
// on the next receive.
func (c *Context) SetFilterMouse(mask interceptor.FilterMouseState) error {
	return c.setFilter(interceptor.ClassMouse, uint16(mask))
}

func (c *Context) setFilter(class interceptor.DeviceClass, mask uint16) error {
	if c.isClosed() {
		return ErrClosed
	}
	var errs []error
	for _, dev := range c.devices {
		if (interceptor.Device{ID: dev.Number()}).Class() != class {
			continue
		}
		if err := dev.SetFilter(mask); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AddEventListener registers a listener invoked with every received stroke
// before hotkey processing. Invocation order is registration order.
func (c *Context) AddEventListener(fn Listener) ListenerHandle {
	handle := ListenerHandle(uuid.New())
	c.mu.Lock()
	c.listeners = append(c.listeners, listenerEntry{handle: handle, fn: fn})
	c.mu.Unlock()
	return handle
}

// RemoveEventListener removes a listener by handle. Removing an unknown or
// already-removed handle is a no-op.
func (c *Context) RemoveEventListener(handle ListenerHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, entry := range c.listeners {
		if entry.handle == handle {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// Wake unblocks a Receive call waiting for input. The woken Receive
// returns (nil, nil) as if it had timed out.
func (c *Context) Wake() { c.drv.Wake() }

// Receive blocks until an input event arrives, the timeout elapses, or the
// context is woken or closed. A negative timeout blocks indefinitely; on
// timeout or wake-up both return values are nil.
//
// Receive runs the full pipeline for the event: hardware state update,
// listener evaluation (suppress decisions OR-combined), and the
// forward-or-drop decision. The decision is final once Receive returns;
// there is no asynchronous undo of a forwarded event.
//
// Only one goroutine may receive at a time; concurrent calls fail with
// ErrConcurrentReceive.
func (c *Context) Receive(timeout time.Duration) (*Result, error) {
	if !c.receiving.CompareAndSwap(0, 1) {
		return nil, ErrConcurrentReceive
	}
	defer c.receiving.Store(0)

	if c.isClosed() {
		return nil, ErrClosed
	}

	index, woke, err := c.drv.Wait(timeout)
	if err != nil {
		if errors.Is(err, driverio.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("wait for input: %w", err)
	}
	if woke || index < 0 {
		if c.isClosed() {
			return nil, ErrClosed
		}
		return nil, nil
	}

	dev := c.devices[index]
	raw, err := dev.Receive()
	if err != nil {
		return nil, fmt.Errorf("receive from %d: %w", dev.Number(), err)
	}
	if raw == nil {
		return nil, nil
	}

	device := interceptor.Device{ID: dev.Number()}
	stroke := strokeFromRaw(raw)
	changes := c.tracker.Update(stroke, keystate.SourceHardware)

	ev := &EventInfo{
		Device:  device,
		Stroke:  stroke,
		Changes: changes,
		Pressed: c.tracker.Snapshot(device.Class(), keystate.SourceHardware),
	}
	suppressed := c.runListeners(ev)

	if !suppressed && c.shouldForward(device, stroke) {
		if err := dev.Send(raw); err != nil {
			slog.Warn("[interception] forwarding stroke failed",
				"device", device.String(), "error", err)
		} else {
			c.tracker.Update(stroke, keystate.SourceForwarded)
		}
	}

	return &Result{Device: device, Stroke: stroke, Suppressed: suppressed}, nil
}

// runListeners invokes every listener in registration order and OR-combines
// their suppress verdicts. A panicking listener counts as "no suppress" and
// does not stop the remaining listeners.
func (c *Context) runListeners(ev *EventInfo) bool {
	c.mu.Lock()
	entries := make([]listenerEntry, len(c.listeners))
	copy(entries, c.listeners)
	c.mu.Unlock()

	suppressed := false
	for _, entry := range entries {
		suppressed = c.runListener(entry, ev) || suppressed
	}
	return suppressed
}

func (c *Context) runListener(entry listenerEntry, ev *EventInfo) (suppress bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[interception] event listener panicked",
				"panic", r, "stack", string(debug.Stack()))
			suppress = false
		}
	}()
	return entry.fn(ev)
}

// shouldForward applies the forwarding rule for unsuppressed events. Key
// releases are forwarded only when the matching press was forwarded, so a
// press that was suppressed never produces an orphan release at the OS.
// Mouse strokes are always forwarded when unsuppressed.
func (c *Context) shouldForward(device interceptor.Device, s interceptor.Stroke) bool {
	ks, ok := s.(interceptor.KeyStroke)
	if !ok {
		return true
	}
	if ks.Down() {
		return true
	}
	return c.tracker.IsPressed(device.Class(), ks.Code, keystate.SourceForwarded)
}

// Send synthesizes a stroke as if it originated from the given device.
// Strokes with a zero Information field are stamped as injected so that
// listeners can distinguish them from hardware input.
func (c *Context) Send(device interceptor.Device, s interceptor.Stroke) error {
	if c.isClosed() {
		return ErrClosed
	}
	dev, ok := c.byNum[device.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, device)
	}
	raw, err := rawFromStroke(device, s)
	if err != nil {
		return err
	}
	return dev.Send(raw)
}
