package interceptor

import "fmt"

// DeviceClass distinguishes keyboard state from mouse-button state. The two
// classes have independent pressed-key sets.
type DeviceClass int

const (
	ClassKeyboard DeviceClass = iota
	ClassMouse
)

func (c DeviceClass) String() string {
	switch c {
	case ClassKeyboard:
		return "keyboard"
	case ClassMouse:
		return "mouse"
	}
	return fmt.Sprintf("DeviceClass(%d)", int(c))
}

// MaxDevices is the number of device slots the filter driver exposes:
// keyboards occupy 1-10, mice 11-20.
const MaxDevices = 20

// Device identifies one driver device slot. Devices are immutable values;
// the zero Device is invalid.
type Device struct {
	// ID is the 1-based device number. Device N maps to the driver path
	// \\.\interception(N-1), zero-padded to two digits.
	ID int
}

// DefaultKeyboard and DefaultMouse are the first slot of each class, which
// is where a single-keyboard, single-mouse machine shows up.
var (
	DefaultKeyboard = Device{ID: 1}
	DefaultMouse    = Device{ID: 11}
)

// Valid reports whether the device number is within the driver's slot range.
func (d Device) Valid() bool { return d.ID >= 1 && d.ID <= MaxDevices }

// IsKeyboard reports whether the slot belongs to the keyboard range (1-10).
func (d Device) IsKeyboard() bool { return d.ID >= 1 && d.ID <= 10 }

// IsMouse reports whether the slot belongs to the mouse range (11-20).
func (d Device) IsMouse() bool { return d.ID >= 11 && d.ID <= 20 }

// Class returns the device class implied by the slot number.
func (d Device) Class() DeviceClass {
	if d.IsMouse() {
		return ClassMouse
	}
	return ClassKeyboard
}

// Path returns the driver device path for this slot.
func (d Device) Path() string {
	return fmt.Sprintf(`\\.\interception%02d`, d.ID-1)
}

func (d Device) String() string {
	return fmt.Sprintf("%s%02d", d.Class(), d.ID)
}
