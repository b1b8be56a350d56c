package workerutil

import (
	"testing"
	"time"
)

func TestGoClosesDoneOnNormalReturn(t *testing.T) {
	done := Go("test", func() {})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("done channel never closed")
	}
}

func TestGoRecoversPanic(t *testing.T) {
	done := Go("test", func() { panic("worker failure") })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("done channel never closed after panic")
	}
}

func TestSafeCall(t *testing.T) {
	if v, _ := SafeCall(func() {}); v != nil {
		t.Errorf("recovered = %v on normal return, want nil", v)
	}
	v, stack := SafeCall(func() { panic("caught") })
	if v != "caught" {
		t.Errorf("recovered = %v, want caught", v)
	}
	if len(stack) == 0 {
		t.Error("stack trace missing for recovered panic")
	}
}
