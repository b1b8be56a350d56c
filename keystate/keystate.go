// Package keystate tracks which keys and mouse buttons are currently held
// down, per device class and per input source. Hotkey matching triggers on
// the edges this package reports, never on held-key repeats.
package keystate

import (
	"sort"
	"strings"
	"sync"

	"github.com/t4euyoon/interceptor"
)

// Source distinguishes where a state transition was observed.
type Source int

const (
	// SourceHardware is state observed from the driver's receive path.
	SourceHardware Source = iota
	// SourceForwarded is state for strokes actually passed on to the OS.
	// A release whose press was suppressed never appears here, which is
	// what keeps suppressed keys from sticking down at the OS level.
	SourceForwarded
)

// Set is a pressed-key set. Sets returned by Tracker methods are snapshots;
// mutating them does not affect the tracker.
type Set map[interceptor.KeyCode]struct{}

// NewSet builds a set from the given codes, dropping duplicates.
func NewSet(codes ...interceptor.KeyCode) Set {
	s := make(Set, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports membership of a single code.
func (s Set) Contains(code interceptor.KeyCode) bool {
	_, ok := s[code]
	return ok
}

// SubsetOf reports whether every code in s is also in other.
func (s Set) SubsetOf(other Set) bool {
	for code := range s {
		if !other.Contains(code) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for code := range s {
		out[code] = struct{}{}
	}
	return out
}

func (s Set) String() string {
	names := make([]string, 0, len(s))
	for code := range s {
		names = append(names, code.String())
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ", ") + "}"
}

// Change describes the effect of one stroke on the pressed set.
type Change struct {
	Class interceptor.DeviceClass
	Code  interceptor.KeyCode
	// Down is the direction of the stroke.
	Down bool
	// Edge is true when membership actually changed. A repeat press of a
	// held key (the driver delivers those for held keys) and a release of
	// an untracked key both report Edge=false.
	Edge bool
}

// Tracker holds the pressed sets. Keyboard and mouse-button state are
// independent, as are hardware and forwarded state.
//
// Thread-safety: all methods are safe for concurrent use. Updates normally
// come from the single dispatch goroutine; reads (IsPressed, Snapshot) may
// come from anywhere.
type Tracker struct {
	mu sync.RWMutex
	// sets is indexed by [class][source].
	sets [2][2]Set
}

// NewTracker returns a tracker with all sets empty.
func NewTracker() *Tracker {
	t := &Tracker{}
	for class := range t.sets {
		for source := range t.sets[class] {
			t.sets[class][source] = make(Set)
		}
	}
	return t
}

// Update applies one stroke and reports the resulting transitions. Key
// strokes yield exactly one Change; mouse strokes yield one per button
// transition they carry (moves and wheel motion yield none).
func (t *Tracker) Update(s interceptor.Stroke, source Source) []Change {
	switch stroke := s.(type) {
	case interceptor.KeyStroke:
		return []Change{t.UpdateKey(interceptor.ClassKeyboard, stroke.Code, stroke.Down(), source)}
	case interceptor.MouseStroke:
		edges := stroke.ButtonEdges()
		if len(edges) == 0 {
			return nil
		}
		changes := make([]Change, 0, len(edges))
		for _, edge := range edges {
			changes = append(changes, t.UpdateKey(interceptor.ClassMouse, edge.Button.KeyCode(), edge.Down, source))
		}
		return changes
	}
	return nil
}

// UpdateKey applies a single press or release. Idempotent: pressing an
// already-held code or releasing an untracked one changes nothing and is
// reported with Edge=false.
func (t *Tracker) UpdateKey(class interceptor.DeviceClass, code interceptor.KeyCode, down bool, source Source) Change {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.sets[class][source]
	edge := set.Contains(code) != down
	if down {
		set[code] = struct{}{}
	} else {
		delete(set, code)
	}
	return Change{Class: class, Code: code, Down: down, Edge: edge}
}

// IsPressed reports whether the code is currently held for the given class
// and source.
func (t *Tracker) IsPressed(class interceptor.DeviceClass, code interceptor.KeyCode, source Source) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sets[class][source].Contains(code)
}

// Snapshot returns a copy of one pressed set. Callers own the copy; it
// never changes under them.
func (t *Tracker) Snapshot(class interceptor.DeviceClass, source Source) Set {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sets[class][source].Clone()
}

// AllPressed returns the union of the hardware and forwarded sets for a
// class.
func (t *Tracker) AllPressed(class interceptor.DeviceClass) Set {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := t.sets[class][SourceHardware].Clone()
	for code := range t.sets[class][SourceForwarded] {
		out[code] = struct{}{}
	}
	return out
}
