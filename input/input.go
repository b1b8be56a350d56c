// Package input synthesizes keyboard and mouse events through the
// interception context. Emitted strokes carry the injected information
// marker, so listeners can tell them apart from hardware input.
package input

import (
	"math/rand"
	"time"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/keystate"
)

// Sender emits strokes on behalf of a device. *interception.Context
// satisfies it.
type Sender interface {
	Send(device interceptor.Device, s interceptor.Stroke) error
}

// StateReader answers pressed-state queries. *keystate.Tracker satisfies it.
type StateReader interface {
	IsPressed(class interceptor.DeviceClass, code interceptor.KeyCode, source keystate.Source) bool
}

// DelayMode selects how inter-stroke delays are produced.
type DelayMode int

const (
	// DelayFixed sleeps exactly the configured duration between strokes.
	DelayFixed DelayMode = iota
	// DelayHumanized jitters each sleep by up to ±10%.
	DelayHumanized
)

type delayer struct {
	base time.Duration
	mode DelayMode
	// sleep is a test seam.
	sleep func(time.Duration)
}

func newDelayer(base time.Duration, mode DelayMode) delayer {
	return delayer{base: base, mode: mode, sleep: time.Sleep}
}

func (d delayer) wait() {
	if d.base <= 0 {
		return
	}
	dur := d.base
	if d.mode == DelayHumanized {
		// Uniform jitter in [-10%, +10%].
		jitter := time.Duration(rand.Int63n(int64(dur)/5+1)) - dur/10
		dur += jitter
	}
	d.sleep(dur)
}

// Option configures a Keyboard or Mouse.
type Option func(*delayer)

// WithDelay sets the pause inserted between consecutive strokes of a
// compound operation (Tap, TypeKeys, Drag, ...). Zero disables pausing.
func WithDelay(d time.Duration) Option {
	return func(dl *delayer) { dl.base = d }
}

// WithDelayMode selects fixed or humanized pacing.
func WithDelayMode(mode DelayMode) Option {
	return func(dl *delayer) { dl.mode = mode }
}
