//go:build windows

package driverio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

// IOCTL codes derived from CTL_CODE(FILE_DEVICE_UNKNOWN, f, METHOD_BUFFERED,
// FILE_ANY_ACCESS); the function numbers follow the Interception convention.
const (
	ioctlSetPrecedence = 0x22<<16 | 0x801<<2
	ioctlGetPrecedence = 0x22<<16 | 0x802<<2
	ioctlSetFilter     = 0x22<<16 | 0x804<<2
	ioctlGetFilter     = 0x22<<16 | 0x808<<2
	ioctlSetEvent      = 0x22<<16 | 0x810<<2
	ioctlWrite         = 0x22<<16 | 0x820<<2
	ioctlRead          = 0x22<<16 | 0x840<<2
	ioctlGetHardwareID = 0x22<<16 | 0x880<<2
)

// keyWire mirrors KEYBOARD_INPUT_DATA. Field order and sizes must match the
// driver's binary layout exactly.
type keyWire struct {
	unit        uint16
	code        uint16
	flags       uint16
	reserved    uint16
	information uint32
}

// mouseWire mirrors MOUSE_INPUT_DATA.
type mouseWire struct {
	unit        uint16
	flags       uint16
	buttonFlags uint16
	buttonData  uint16
	rawButtons  uint32
	x           int32
	y           int32
	information uint32
}

type winDriver struct {
	mu      sync.Mutex
	devices []*winDevice
	events  []windows.Handle // device events followed by the wake event
	wake    windows.Handle
	closed  bool
}

func newPlatform() Driver { return &winDriver{} }

func (d *winDriver) Open() ([]Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	for i := 0; i < MaxDevices; i++ {
		path := fmt.Sprintf(`\\.\interception%02d`, i)
		dev, err := openWinDevice(path, i+1)
		if err != nil {
			// Slot not present or not openable; skip it.
			continue
		}
		if _, ok := dev.HardwareID(); !ok {
			dev.Close()
			continue
		}
		d.devices = append(d.devices, dev)
		d.events = append(d.events, dev.event)
		slog.Debug("[driverio] opened device", "path", path)
	}
	if len(d.devices) == 0 {
		return nil, ErrNoDevices
	}

	// Auto-reset wake event: one Wake releases exactly one Wait.
	wake, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		d.closeLocked()
		return nil, fmt.Errorf("create wake event: %w", err)
	}
	d.wake = wake
	d.events = append(d.events, wake)

	out := make([]Device, len(d.devices))
	for i, dev := range d.devices {
		out[i] = dev
	}
	return out, nil
}

func (d *winDriver) Wait(timeout time.Duration) (int, bool, error) {
	d.mu.Lock()
	events := d.events
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return -1, false, ErrClosed
	}

	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout.Milliseconds())
	}
	ev, err := windows.WaitForMultipleObjects(events, false, ms)
	switch {
	case err != nil:
		return -1, false, fmt.Errorf("wait for input events: %w", err)
	case ev == uint32(windows.WAIT_TIMEOUT):
		return -1, false, nil
	}
	index := int(ev - windows.WAIT_OBJECT_0)
	if index == len(events)-1 {
		return -1, true, nil
	}
	if index < 0 || index >= len(events)-1 {
		return -1, false, fmt.Errorf("unexpected wait result %#x", ev)
	}
	return index, false, nil
}

func (d *winDriver) Wake() {
	d.mu.Lock()
	wake := d.wake
	d.mu.Unlock()
	if wake != 0 {
		windows.SetEvent(wake)
	}
}

func (d *winDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeLocked()
}

func (d *winDriver) closeLocked() error {
	if d.closed {
		return nil
	}
	d.closed = true
	for _, dev := range d.devices {
		dev.Close()
	}
	d.devices = nil
	d.events = nil
	if d.wake != 0 {
		windows.CloseHandle(d.wake)
		d.wake = 0
	}
	return nil
}

type winDevice struct {
	path   string
	number int
	handle windows.Handle
	event  windows.Handle
}

func openWinDevice(path string, number int) (*winDevice, error) {
	pathU16, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid device path %q: %w", path, err)
	}
	handle, err := windows.CreateFile(pathU16, windows.GENERIC_READ, 0, nil,
		windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// Manual-reset event; the driver signals it while strokes are pending.
	event, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("create event for %s: %w", path, err)
	}

	dev := &winDevice{path: path, number: number, handle: handle, event: event}
	eventValue := uintptr(event)
	if err := dev.ioctl(ioctlSetEvent,
		(*byte)(unsafe.Pointer(&eventValue)), uint32(unsafe.Sizeof(eventValue)),
		nil, 0, nil); err != nil {
		dev.Close()
		return nil, fmt.Errorf("bind event for %s: %w", path, err)
	}
	return dev, nil
}

func (d *winDevice) Number() int { return d.number }

func (d *winDevice) keyboard() bool { return d.number >= 1 && d.number <= 10 }

func (d *winDevice) HardwareID() (string, bool) {
	buf := make([]uint16, 512)
	var returned uint32
	err := d.ioctl(ioctlGetHardwareID, nil, 0,
		(*byte)(unsafe.Pointer(&buf[0])), uint32(len(buf)*2), &returned)
	if err != nil || returned == 0 {
		return "", false
	}
	end := 0
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	return string(utf16.Decode(buf[:end])), true
}

func (d *winDevice) SetFilter(mask uint16) error {
	if err := d.ioctl(ioctlSetFilter,
		(*byte)(unsafe.Pointer(&mask)), 2, nil, 0, nil); err != nil {
		return fmt.Errorf("set filter for %s: %w", d.path, err)
	}
	return nil
}

func (d *winDevice) Receive() (Stroke, error) {
	if d.keyboard() {
		var wire keyWire
		var returned uint32
		err := d.ioctl(ioctlRead, nil, 0,
			(*byte)(unsafe.Pointer(&wire)), uint32(unsafe.Sizeof(wire)), &returned)
		if err != nil || returned == 0 {
			// Empty queue; the event can outlive the last drained stroke.
			return nil, nil
		}
		return KeyData{
			Unit:        wire.unit,
			Code:        wire.code,
			Flags:       wire.flags,
			Information: wire.information,
		}, nil
	}
	var wire mouseWire
	var returned uint32
	err := d.ioctl(ioctlRead, nil, 0,
		(*byte)(unsafe.Pointer(&wire)), uint32(unsafe.Sizeof(wire)), &returned)
	if err != nil || returned == 0 {
		return nil, nil
	}
	return MouseData{
		Unit:        wire.unit,
		Flags:       wire.flags,
		ButtonFlags: wire.buttonFlags,
		ButtonData:  wire.buttonData,
		RawButtons:  wire.rawButtons,
		X:           wire.x,
		Y:           wire.y,
		Information: wire.information,
	}, nil
}

func (d *winDevice) Send(s Stroke) error {
	switch data := s.(type) {
	case KeyData:
		wire := keyWire{
			unit:        data.Unit,
			code:        data.Code,
			flags:       data.Flags,
			information: data.Information,
		}
		return d.ioctl(ioctlWrite,
			(*byte)(unsafe.Pointer(&wire)), uint32(unsafe.Sizeof(wire)), nil, 0, nil)
	case MouseData:
		wire := mouseWire{
			unit:        data.Unit,
			flags:       data.Flags,
			buttonFlags: data.ButtonFlags,
			buttonData:  data.ButtonData,
			rawButtons:  data.RawButtons,
			x:           data.X,
			y:           data.Y,
			information: data.Information,
		}
		return d.ioctl(ioctlWrite,
			(*byte)(unsafe.Pointer(&wire)), uint32(unsafe.Sizeof(wire)), nil, 0, nil)
	}
	return fmt.Errorf("unsupported stroke type %T", s)
}

func (d *winDevice) Close() error {
	if d.event != 0 {
		windows.CloseHandle(d.event)
		d.event = 0
	}
	if d.handle != 0 {
		windows.CloseHandle(d.handle)
		d.handle = 0
	}
	return nil
}

func (d *winDevice) ioctl(code uint32, in *byte, inSize uint32, out *byte, outSize uint32, returned *uint32) error {
	var local uint32
	if returned == nil {
		returned = &local
	}
	return windows.DeviceIoControl(d.handle, code, in, inSize, out, outSize, returned, nil)
}
