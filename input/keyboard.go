package input

import (
	"fmt"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/keystate"
)

// Keyboard synthesizes key strokes on one keyboard device.
//
// Thread-safety: safe for concurrent use; each method is a sequence of
// independent sends with no shared mutable state beyond the sender.
type Keyboard struct {
	sender Sender
	state  StateReader
	device interceptor.Device
	delay  delayer
}

// NewKeyboard builds a keyboard over the given sender. state may be nil if
// IsPressed is never used.
func NewKeyboard(sender Sender, state StateReader, device interceptor.Device, opts ...Option) (*Keyboard, error) {
	if !device.IsKeyboard() {
		return nil, fmt.Errorf("%s is not a keyboard device", device)
	}
	d := newDelayer(0, DelayFixed)
	for _, opt := range opts {
		opt(&d)
	}
	return &Keyboard{sender: sender, state: state, device: device, delay: d}, nil
}

// Press emits a key-down stroke.
func (k *Keyboard) Press(code interceptor.KeyCode) error {
	return k.sender.Send(k.device, interceptor.NewKeyStroke(code, interceptor.KeyStateDown))
}

// Release emits a key-up stroke.
func (k *Keyboard) Release(code interceptor.KeyCode) error {
	return k.sender.Send(k.device, interceptor.NewKeyStroke(code, interceptor.KeyStateUp))
}

// Tap presses and releases a key, pausing between the edges.
func (k *Keyboard) Tap(code interceptor.KeyCode) error {
	if err := k.Press(code); err != nil {
		return err
	}
	k.delay.wait()
	return k.Release(code)
}

// TypeKeys taps each code in order, pausing between keys.
func (k *Keyboard) TypeKeys(codes ...interceptor.KeyCode) error {
	for i, code := range codes {
		if i > 0 {
			k.delay.wait()
		}
		if err := k.Tap(code); err != nil {
			return fmt.Errorf("type %s: %w", code, err)
		}
	}
	return nil
}

// PressCombo presses the codes in order and releases them in reverse, so
// modifiers wrap the inner keys the way a person holds them.
func (k *Keyboard) PressCombo(codes ...interceptor.KeyCode) error {
	for i, code := range codes {
		if i > 0 {
			k.delay.wait()
		}
		if err := k.Press(code); err != nil {
			return fmt.Errorf("press %s: %w", code, err)
		}
	}
	for i := len(codes) - 1; i >= 0; i-- {
		k.delay.wait()
		if err := k.Release(codes[i]); err != nil {
			return fmt.Errorf("release %s: %w", codes[i], err)
		}
	}
	return nil
}

// IsPressed reports whether the hardware currently holds the key. Requires
// a state reader; returns false without one.
func (k *Keyboard) IsPressed(code interceptor.KeyCode) bool {
	if k.state == nil {
		return false
	}
	return k.state.IsPressed(interceptor.ClassKeyboard, code, keystate.SourceHardware)
}
