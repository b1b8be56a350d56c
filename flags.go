package interceptor

import "strings"

// Flag bitmasks mirror interception.h from the kernel filter driver. The
// numeric values are part of the driver wire format and must not change.

// KeyState carries the press/release and extension bits of a key stroke.
type KeyState uint16

const (
	KeyStateDown KeyState = 0x00 // default: key pressed
	KeyStateUp   KeyState = 0x01
	KeyStateE0   KeyState = 0x02
	KeyStateE1   KeyState = 0x04

	KeyStateTermsrvSetLED   KeyState = 0x08
	KeyStateTermsrvShadow   KeyState = 0x10
	KeyStateTermsrvVKPacket KeyState = 0x20
)

// FilterKeyState selects which keyboard events the driver delivers.
type FilterKeyState uint16

const (
	FilterKeyNone FilterKeyState = 0x0000

	FilterKeyDown FilterKeyState = 0x0001
	FilterKeyUp   FilterKeyState = 0x0002
	FilterKeyE0   FilterKeyState = 0x0004
	FilterKeyE1   FilterKeyState = 0x0008

	FilterKeyTermsrvSetLED   FilterKeyState = 0x0010
	FilterKeyTermsrvShadow   FilterKeyState = 0x0020
	FilterKeyTermsrvVKPacket FilterKeyState = 0x0040

	FilterKeyAll FilterKeyState = 0xFFFF
)

// MouseState carries the button and wheel bits of a mouse stroke.
type MouseState uint16

const (
	MouseStateNone MouseState = 0x000

	MouseLeftButtonDown   MouseState = 0x001
	MouseLeftButtonUp     MouseState = 0x002
	MouseRightButtonDown  MouseState = 0x004
	MouseRightButtonUp    MouseState = 0x008
	MouseMiddleButtonDown MouseState = 0x010
	MouseMiddleButtonUp   MouseState = 0x020

	MouseButton4Down MouseState = 0x040
	MouseButton4Up   MouseState = 0x080
	MouseButton5Down MouseState = 0x100
	MouseButton5Up   MouseState = 0x200

	MouseWheel  MouseState = 0x400 // vertical wheel
	MouseHWheel MouseState = 0x800 // horizontal wheel
)

// FilterMouseState selects which mouse events the driver delivers.
type FilterMouseState uint16

const (
	FilterMouseNone FilterMouseState = 0x0000

	FilterMouseLeftDown   FilterMouseState = 0x0001
	FilterMouseLeftUp     FilterMouseState = 0x0002
	FilterMouseRightDown  FilterMouseState = 0x0004
	FilterMouseRightUp    FilterMouseState = 0x0008
	FilterMouseMiddleDown FilterMouseState = 0x0010
	FilterMouseMiddleUp   FilterMouseState = 0x0020

	FilterMouseButton4Down FilterMouseState = 0x0040
	FilterMouseButton4Up   FilterMouseState = 0x0080
	FilterMouseButton5Down FilterMouseState = 0x0100
	FilterMouseButton5Up   FilterMouseState = 0x0200

	FilterMouseWheel  FilterMouseState = 0x0400
	FilterMouseHWheel FilterMouseState = 0x0800

	FilterMouseMove FilterMouseState = 0x1000
	FilterMouseAll  FilterMouseState = 0xFFFF
)

// MouseFlag controls movement interpretation when sending mouse strokes.
type MouseFlag uint16

const (
	MouseMoveRelative     MouseFlag = 0x0000 // default
	MouseMoveAbsolute     MouseFlag = 0x0001
	MouseVirtualDesktop   MouseFlag = 0x0002
	MouseAttributesChange MouseFlag = 0x0004
	MouseMoveNoCoalesce   MouseFlag = 0x0008
	MouseTermsrvShadow    MouseFlag = 0x0100
)

func (s KeyState) String() string {
	if s == KeyStateDown {
		return "DOWN"
	}
	return joinFlags(uint16(s), []flagName{
		{uint16(KeyStateUp), "UP"},
		{uint16(KeyStateE0), "E0"},
		{uint16(KeyStateE1), "E1"},
		{uint16(KeyStateTermsrvSetLED), "TERMSRV_SET_LED"},
		{uint16(KeyStateTermsrvShadow), "TERMSRV_SHADOW"},
		{uint16(KeyStateTermsrvVKPacket), "TERMSRV_VKPACKET"},
	})
}

func (s MouseState) String() string {
	if s == MouseStateNone {
		return "NONE"
	}
	return joinFlags(uint16(s), []flagName{
		{uint16(MouseLeftButtonDown), "LEFT_BUTTON_DOWN"},
		{uint16(MouseLeftButtonUp), "LEFT_BUTTON_UP"},
		{uint16(MouseRightButtonDown), "RIGHT_BUTTON_DOWN"},
		{uint16(MouseRightButtonUp), "RIGHT_BUTTON_UP"},
		{uint16(MouseMiddleButtonDown), "MIDDLE_BUTTON_DOWN"},
		{uint16(MouseMiddleButtonUp), "MIDDLE_BUTTON_UP"},
		{uint16(MouseButton4Down), "BUTTON_4_DOWN"},
		{uint16(MouseButton4Up), "BUTTON_4_UP"},
		{uint16(MouseButton5Down), "BUTTON_5_DOWN"},
		{uint16(MouseButton5Up), "BUTTON_5_UP"},
		{uint16(MouseWheel), "WHEEL"},
		{uint16(MouseHWheel), "HWHEEL"},
	})
}

type flagName struct {
	bit  uint16
	name string
}

func joinFlags(value uint16, names []flagName) string {
	var set []string
	for _, fn := range names {
		if value&fn.bit != 0 {
			set = append(set, fn.name)
		}
	}
	if len(set) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(set, "|")
}
