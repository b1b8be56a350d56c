package interceptor

import "fmt"

// MouseButton identifies a physical mouse button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota + 1
	ButtonRight
	ButtonMiddle
	Button4
	Button5
)

// Down returns the MouseState bit for pressing the button.
func (b MouseButton) Down() MouseState {
	switch b {
	case ButtonLeft:
		return MouseLeftButtonDown
	case ButtonRight:
		return MouseRightButtonDown
	case ButtonMiddle:
		return MouseMiddleButtonDown
	case Button4:
		return MouseButton4Down
	case Button5:
		return MouseButton5Down
	}
	return MouseStateNone
}

// Up returns the MouseState bit for releasing the button.
func (b MouseButton) Up() MouseState {
	switch b {
	case ButtonLeft:
		return MouseLeftButtonUp
	case ButtonRight:
		return MouseRightButtonUp
	case ButtonMiddle:
		return MouseMiddleButtonUp
	case Button4:
		return MouseButton4Up
	case Button5:
		return MouseButton5Up
	}
	return MouseStateNone
}

// KeyCode maps the button into the KeyCode space used by the pressed-set
// tracker. Mouse state is scoped per device class, so these small values
// never collide with keyboard scan codes in practice.
func (b MouseButton) KeyCode() KeyCode { return KeyCode(b) }

func (b MouseButton) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case Button4:
		return "button_4"
	case Button5:
		return "button_5"
	}
	return fmt.Sprintf("MouseButton(%d)", int(b))
}

// AllButtons lists the buttons in wire-bit order.
var AllButtons = [...]MouseButton{ButtonLeft, ButtonRight, ButtonMiddle, Button4, Button5}
