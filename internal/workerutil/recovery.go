// Package workerutil provides panic isolation for goroutines and callbacks.
// A misbehaving hotkey callback must not take down the dispatch loop, and a
// panicking dispatch loop must not take down the process.
package workerutil

import (
	"log/slog"
	"runtime/debug"
)

// Go runs fn on a new goroutine with panic recovery. The returned channel
// is closed when fn returns, whether normally or after a recovered panic.
func Go(name string, fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if v, stack := SafeCall(fn); v != nil {
			slog.Error("[worker] goroutine recovered from panic",
				"worker", name, "panic", v, "stack", string(stack))
		}
	}()
	return done
}

// SafeCall invokes fn, recovering a panic instead of propagating it.
// Returns the recovered value and stack, or (nil, nil) on normal return.
func SafeCall(fn func()) (recovered any, stack []byte) {
	defer func() {
		if r := recover(); r != nil {
			recovered = r
			stack = debug.Stack()
		}
	}()
	fn()
	return nil, nil
}
