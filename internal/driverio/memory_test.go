package driverio

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryDriverDelivery(t *testing.T) {
	drv := NewMemory(1, 1)
	devices, err := drv.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}
	if devices[0].Number() != 1 || devices[1].Number() != 11 {
		t.Errorf("device numbers = %d, %d", devices[0].Number(), devices[1].Number())
	}

	kb := drv.Keyboard(0)
	kb.SetFilter(0xFFFF)
	kb.Inject(KeyData{Code: 0x1E})

	index, woke, err := drv.Wait(time.Second)
	if err != nil || woke {
		t.Fatalf("Wait = (%d, %v, %v)", index, woke, err)
	}
	if index != 0 {
		t.Errorf("ready index = %d, want 0", index)
	}

	s, err := devices[index].Receive()
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if data, ok := s.(KeyData); !ok || data.Code != 0x1E {
		t.Errorf("received %v", s)
	}

	// Queue drained.
	if s, _ := devices[index].Receive(); s != nil {
		t.Errorf("second Receive = %v, want nil", s)
	}
}

func TestMemoryDeviceFilterGate(t *testing.T) {
	drv := NewMemory(1, 0)
	drv.Open()
	kb := drv.Keyboard(0)

	// No filter: strokes are dropped like the kernel passing them through.
	kb.Inject(KeyData{Code: 0x1E})
	if index, _, _ := drv.Wait(0); index != -1 {
		t.Error("unfiltered stroke was delivered")
	}

	// Down-only filter drops the release.
	kb.SetFilter(0x0001)
	kb.Inject(KeyData{Code: 0x1E, Flags: 0x01})
	if index, _, _ := drv.Wait(0); index != -1 {
		t.Error("key-up delivered through a down-only filter")
	}
	kb.Inject(KeyData{Code: 0x1E})
	if index, _, _ := drv.Wait(0); index != 0 {
		t.Error("key-down not delivered through a down-only filter")
	}
}

func TestMemoryDriverWakeAndClose(t *testing.T) {
	drv := NewMemory(1, 0)
	drv.Open()

	drv.Wake()
	if index, woke, err := drv.Wait(time.Second); !woke || index != -1 || err != nil {
		t.Errorf("Wait after Wake = (%d, %v, %v)", index, woke, err)
	}

	if err := drv.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, _, err := drv.Wait(time.Second); !errors.Is(err, ErrClosed) {
		t.Errorf("Wait after Close = %v, want ErrClosed", err)
	}
	if err := drv.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}

	if _, err := drv.Open(); !errors.Is(err, ErrClosed) {
		t.Errorf("Open after Close = %v, want ErrClosed", err)
	}
}

func TestMemoryDriverOpenWithoutDevices(t *testing.T) {
	drv := NewMemory(0, 0)
	if _, err := drv.Open(); !errors.Is(err, ErrNoDevices) {
		t.Errorf("Open = %v, want ErrNoDevices", err)
	}
}
