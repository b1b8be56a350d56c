package input

import (
	"fmt"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/keystate"
)

// Point is one position along a drag path.
type Point struct {
	X, Y int32
}

// Mouse synthesizes mouse strokes on one mouse device.
type Mouse struct {
	sender Sender
	state  StateReader
	device interceptor.Device
	delay  delayer
}

// NewMouse builds a mouse over the given sender. state may be nil if
// IsPressed is never used.
func NewMouse(sender Sender, state StateReader, device interceptor.Device, opts ...Option) (*Mouse, error) {
	if !device.IsMouse() {
		return nil, fmt.Errorf("%s is not a mouse device", device)
	}
	d := newDelayer(0, DelayFixed)
	for _, opt := range opts {
		opt(&d)
	}
	return &Mouse{sender: sender, state: state, device: device, delay: d}, nil
}

// Move emits a movement stroke. Relative moves offset the cursor; absolute
// moves position it in normalized desktop coordinates.
func (m *Mouse) Move(x, y int32, absolute bool) error {
	flags := interceptor.MouseMoveRelative
	if absolute {
		flags = interceptor.MouseMoveAbsolute | interceptor.MouseVirtualDesktop
	}
	return m.sender.Send(m.device, interceptor.MouseStroke{Flags: flags, X: x, Y: y})
}

// Scroll emits wheel motion. Positive vertical scrolls up, positive
// horizontal scrolls right; units of 120 per notch.
func (m *Mouse) Scroll(vertical, horizontal int16) error {
	if vertical != 0 {
		stroke := interceptor.MouseStroke{Buttons: interceptor.MouseWheel, Data: vertical}
		if err := m.sender.Send(m.device, stroke); err != nil {
			return err
		}
	}
	if horizontal != 0 {
		stroke := interceptor.MouseStroke{Buttons: interceptor.MouseHWheel, Data: horizontal}
		if err := m.sender.Send(m.device, stroke); err != nil {
			return err
		}
	}
	return nil
}

// Press emits a button-down stroke.
func (m *Mouse) Press(button interceptor.MouseButton) error {
	return m.sender.Send(m.device, interceptor.MouseStroke{Buttons: button.Down()})
}

// Release emits a button-up stroke.
func (m *Mouse) Release(button interceptor.MouseButton) error {
	return m.sender.Send(m.device, interceptor.MouseStroke{Buttons: button.Up()})
}

// Click presses and releases a button, pausing between the edges.
func (m *Mouse) Click(button interceptor.MouseButton) error {
	if err := m.Press(button); err != nil {
		return err
	}
	m.delay.wait()
	return m.Release(button)
}

// Drag holds a button while moving through the path points (relative
// moves), then releases it. An empty path degenerates to Click.
func (m *Mouse) Drag(button interceptor.MouseButton, path ...Point) error {
	if err := m.Press(button); err != nil {
		return err
	}
	for _, p := range path {
		m.delay.wait()
		if err := m.Move(p.X, p.Y, false); err != nil {
			return err
		}
	}
	m.delay.wait()
	return m.Release(button)
}

// IsPressed reports whether the hardware currently holds the button.
// Requires a state reader; returns false without one.
func (m *Mouse) IsPressed(button interceptor.MouseButton) bool {
	if m.state == nil {
		return false
	}
	return m.state.IsPressed(interceptor.ClassMouse, button.KeyCode(), keystate.SourceHardware)
}
