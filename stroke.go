package interceptor

import "fmt"

// Stroke is one observed or synthesised input event. The concrete types are
// KeyStroke and MouseStroke; the interface is sealed.
type Stroke interface {
	// Hardware reports whether the stroke originated from a physical device.
	// The driver sets Information to zero for hardware input; senders mark
	// synthetic strokes with a non-zero value.
	Hardware() bool

	stroke()
}

// InjectedInformation marks strokes synthesised by this library so that
// listeners can tell them apart from physical input.
const InjectedInformation uint32 = 0x7469

// KeyStroke is a single keyboard event.
type KeyStroke struct {
	Code        KeyCode
	State       KeyState
	Information uint32
}

// NewKeyStroke builds a stroke for the given code, deriving the E0/E1
// extension bits from the code's prefix byte.
func NewKeyStroke(code KeyCode, state KeyState) KeyStroke {
	return KeyStroke{Code: code, State: state}
}

func (s KeyStroke) stroke() {}

// Hardware reports whether the stroke came from a physical keyboard.
func (s KeyStroke) Hardware() bool { return s.Information == 0 }

// Down reports whether the stroke is a press (the UP bit is clear).
func (s KeyStroke) Down() bool { return s.State&KeyStateUp == 0 }

// WireCode returns the 16-bit scan code sent to the driver: the code with
// its extension prefix stripped. The multi-part pause sequence folds to its
// final 0x45 byte.
func (s KeyStroke) WireCode() uint16 {
	if s.Code == KeyPauseBreak {
		return 0x45
	}
	return uint16(s.Code & 0xFF)
}

// WireFlags returns the 16-bit flag word sent to the driver: the state bits
// plus the E0/E1 bit matching the code's prefix.
func (s KeyStroke) WireFlags() uint16 {
	flags := s.State &^ (KeyStateE0 | KeyStateE1)
	switch s.Code & 0xFF00 {
	case 0xE000:
		flags |= KeyStateE0
	case 0xE100:
		flags |= KeyStateE1
	}
	if s.Code == KeyPauseBreak {
		flags = (s.State &^ KeyStateE0) | KeyStateE1
	}
	return uint16(flags)
}

// KeyStrokeFromWire reassembles a stroke from the driver wire format,
// folding the E0/E1 flag back into the code's prefix byte.
func KeyStrokeFromWire(code uint16, flags uint16, information uint32) KeyStroke {
	state := KeyState(flags)
	full := KeyCode(code)
	if state&KeyStateE0 != 0 {
		full |= 0xE000
	} else if state&KeyStateE1 != 0 {
		full |= 0xE100
	}
	return KeyStroke{Code: full, State: state, Information: information}
}

func (s KeyStroke) String() string {
	return fmt.Sprintf("KeyStroke(code=%s, state=%s)", s.Code, s.State)
}

// MouseStroke is a single mouse event: movement, button transitions, or
// wheel motion, possibly combined.
type MouseStroke struct {
	Flags       MouseFlag
	Buttons     MouseState
	Data        int16 // wheel delta when Buttons has a wheel bit
	X           int32
	Y           int32
	Information uint32
}

func (s MouseStroke) stroke() {}

// Hardware reports whether the stroke came from a physical mouse.
func (s MouseStroke) Hardware() bool { return s.Information == 0 }

// ButtonEdge is one button transition carried by a mouse stroke.
type ButtonEdge struct {
	Button MouseButton
	Down   bool
}

// ButtonEdges decodes the button transition bits. A single stroke may carry
// several transitions; they are returned in wire-bit order.
func (s MouseStroke) ButtonEdges() []ButtonEdge {
	var edges []ButtonEdge
	for _, b := range AllButtons {
		if s.Buttons&b.Down() != 0 {
			edges = append(edges, ButtonEdge{Button: b, Down: true})
		}
		if s.Buttons&b.Up() != 0 {
			edges = append(edges, ButtonEdge{Button: b, Down: false})
		}
	}
	return edges
}

func (s MouseStroke) String() string {
	return fmt.Sprintf("MouseStroke(buttons=%s, data=%d, x=%d, y=%d)",
		s.Buttons, s.Data, s.X, s.Y)
}
