package driverio

import (
	"sync"
	"time"
)

// MemoryDriver is an in-memory implementation of Driver. It backs the
// non-Windows stub contract for tests and lets the event pipeline be
// exercised without the kernel driver: tests inject strokes per device and
// observe what the pipeline sends back out.
type MemoryDriver struct {
	mu      sync.Mutex
	devices []*MemoryDevice
	ready   chan int
	wake    chan struct{}
	done    chan struct{}
	closed  bool
	opened  bool
}

// NewMemory creates a memory driver with the given number of keyboard and
// mouse devices. Keyboards occupy device numbers 1..keyboards, mice 11 up.
func NewMemory(keyboards, mice int) *MemoryDriver {
	d := &MemoryDriver{
		ready: make(chan int, 1024),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	for i := 0; i < keyboards; i++ {
		d.devices = append(d.devices, &MemoryDevice{driver: d, number: i + 1, index: len(d.devices)})
	}
	for i := 0; i < mice; i++ {
		d.devices = append(d.devices, &MemoryDevice{driver: d, number: 11 + i, index: len(d.devices)})
	}
	return d
}

// Open returns the configured devices. Unlike the kernel driver there is
// nothing to probe, so Open never skips slots.
func (d *MemoryDriver) Open() ([]Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if len(d.devices) == 0 {
		return nil, ErrNoDevices
	}
	d.opened = true
	out := make([]Device, len(d.devices))
	for i, dev := range d.devices {
		out[i] = dev
	}
	return out, nil
}

// Wait blocks until an injected stroke is ready, Wake is called, the
// timeout elapses, or the driver is closed.
func (d *MemoryDriver) Wait(timeout time.Duration) (int, bool, error) {
	var timer *time.Timer
	var timeoutC <-chan time.Time
	if timeout >= 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}
	select {
	case index := <-d.ready:
		return index, false, nil
	case <-d.wake:
		return -1, true, nil
	case <-timeoutC:
		return -1, false, nil
	case <-d.done:
		return -1, false, ErrClosed
	}
}

// Wake unblocks one pending or future Wait call.
func (d *MemoryDriver) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close marks the driver closed and releases any blocked Wait. Idempotent.
func (d *MemoryDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	close(d.done)
	return nil
}

// Keyboard returns the nth keyboard device (0-based) for injection.
func (d *MemoryDriver) Keyboard(n int) *MemoryDevice { return d.deviceByNumber(n + 1) }

// Mouse returns the nth mouse device (0-based) for injection.
func (d *MemoryDriver) Mouse(n int) *MemoryDevice { return d.deviceByNumber(11 + n) }

func (d *MemoryDriver) deviceByNumber(number int) *MemoryDevice {
	for _, dev := range d.devices {
		if dev.number == number {
			return dev
		}
	}
	return nil
}

// MemoryDevice is one synthetic device slot.
type MemoryDevice struct {
	driver *MemoryDriver
	number int
	index  int

	mu     sync.Mutex
	filter uint16
	queue  []Stroke
	sent   []Stroke
}

func (m *MemoryDevice) Number() int { return m.number }

func (m *MemoryDevice) HardwareID() (string, bool) { return "memory-device", true }

func (m *MemoryDevice) SetFilter(mask uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = mask
	return nil
}

// Filter returns the currently applied filter mask.
func (m *MemoryDevice) Filter() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// Inject queues a stroke as if the hardware produced it. Strokes not
// matching the device filter are dropped, mirroring the kernel driver's
// pass-through of unfiltered input.
func (m *MemoryDevice) Inject(s Stroke) {
	m.mu.Lock()
	if !filterMatches(m.filter, s) {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, s)
	m.mu.Unlock()

	select {
	case m.driver.ready <- m.index:
	default:
	}
}

func (m *MemoryDevice) Receive() (Stroke, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, nil
	}
	s := m.queue[0]
	m.queue = m.queue[1:]
	return s, nil
}

func (m *MemoryDevice) Send(s Stroke) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, s)
	return nil
}

// Sent returns a copy of every stroke written to the device so far. This is
// the observation point for forward/suppress assertions.
func (m *MemoryDevice) Sent() []Stroke {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Stroke, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MemoryDevice) Close() error { return nil }

// filterMatches applies the driver's delivery rule: keyboard strokes match
// on their down/up bit, mouse strokes on their button bits, and pure moves
// on the move bit.
func filterMatches(mask uint16, s Stroke) bool {
	switch data := s.(type) {
	case KeyData:
		const keyUp = 0x01
		if data.Flags&keyUp != 0 {
			return mask&0x0002 != 0
		}
		return mask&0x0001 != 0
	case MouseData:
		if data.ButtonFlags != 0 {
			return mask&data.ButtonFlags != 0
		}
		const filterMove = 0x1000
		return mask&filterMove != 0
	}
	return false
}
