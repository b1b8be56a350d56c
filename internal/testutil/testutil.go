// Package testutil holds small helpers shared by the package tests.
package testutil

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
)

// lockedBuffer makes the capture buffer safe for writes from goroutines the
// test under observation spawns.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLogBuffer redirects the default slog logger into a buffer for the
// duration of the test and returns a getter for the captured output.
func CaptureLogBuffer(t *testing.T, level slog.Level) func() string {
	t.Helper()
	buf := &lockedBuffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return buf.String
}

// Ptr returns a pointer to v; handy for optional struct fields in table
// tests.
func Ptr[T any](v T) *T { return &v }
