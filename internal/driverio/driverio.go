// Package driverio wraps the low-level I/O primitives of the Interception
// kernel filter driver: opening device slots, binding wait events, reading
// and writing raw strokes, and a cancellable multi-device wait.
//
// On Windows the real driver is reached through DeviceIoControl; elsewhere
// New returns a driver whose Open fails with ErrUnsupported. The in-memory
// driver (NewMemory) implements the same contract for tests on any platform.
package driverio

import (
	"errors"
	"time"
)

// MaxDevices is the number of device slots the driver exposes.
const MaxDevices = 20

var (
	// ErrNoDevices means no device slot could be opened; the filter driver
	// is most likely not installed.
	ErrNoDevices = errors.New("no interception devices could be opened")

	// ErrUnsupported means the platform has no Interception driver.
	ErrUnsupported = errors.New("interception driver is only available on windows")

	// ErrClosed is returned by operations on a closed driver or device.
	ErrClosed = errors.New("driver is closed")
)

// Stroke is a raw driver-format stroke. The concrete types are KeyData and
// MouseData, matching KEYBOARD_INPUT_DATA and MOUSE_INPUT_DATA.
type Stroke interface{ raw() }

// KeyData is the keyboard stroke wire format.
type KeyData struct {
	Unit        uint16
	Code        uint16
	Flags       uint16
	Information uint32
}

func (KeyData) raw() {}

// MouseData is the mouse stroke wire format.
type MouseData struct {
	Unit        uint16
	Flags       uint16
	ButtonFlags uint16
	ButtonData  uint16
	RawButtons  uint32
	X           int32
	Y           int32
	Information uint32
}

func (MouseData) raw() {}

// Device is one open driver slot.
type Device interface {
	// Number is the 1-based device number (keyboards 1-10, mice 11-20).
	Number() int

	// HardwareID returns the device's hardware identifier. ok is false for
	// slots with no attached physical device.
	HardwareID() (id string, ok bool)

	// SetFilter selects which events the driver delivers for this slot.
	// Takes effect on the next receive.
	SetFilter(mask uint16) error

	// Receive drains one pending stroke. Returns (nil, nil) when the queue
	// is empty; callers wait for readiness via Driver.Wait.
	Receive() (Stroke, error)

	// Send injects a stroke as if it originated from this device.
	Send(Stroke) error

	Close() error
}

// Driver owns a set of device slots and the shared wait/wake machinery.
//
// Wait may be called by one goroutine at a time; Wake and Close are safe
// from any goroutine, including while Wait is blocked.
type Driver interface {
	// Open opens every reachable device slot. Slots that fail to open are
	// skipped; ErrNoDevices is returned when none succeed.
	Open() ([]Device, error)

	// Wait blocks until a device has a pending stroke, Wake is called, or
	// the timeout elapses. A negative timeout blocks indefinitely. The
	// returned index is the position in the slice returned by Open, -1 on
	// timeout; woke reports an explicit wake-up.
	Wait(timeout time.Duration) (index int, woke bool, err error)

	// Wake unblocks a pending or future Wait call.
	Wake()

	// Close releases every device and the wake handle. Idempotent.
	Close() error
}

// New returns the platform driver: the real kernel driver on Windows, an
// always-unavailable driver elsewhere.
func New() Driver { return newPlatform() }
