package keystate

import (
	"testing"

	"github.com/t4euyoon/interceptor"
)

func TestUpdateKeyEdges(t *testing.T) {
	tests := []struct {
		name     string
		setup    []bool // presses/releases of KeyA applied before the probe
		down     bool
		wantEdge bool
	}{
		{name: "first press is an edge", down: true, wantEdge: true},
		{name: "repeat press of held key is not", setup: []bool{true}, down: true, wantEdge: false},
		{name: "release of held key is an edge", setup: []bool{true}, down: false, wantEdge: true},
		{name: "release of untracked key is not", down: false, wantEdge: false},
		{name: "press after release is an edge again", setup: []bool{true, false}, down: true, wantEdge: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			for _, d := range tt.setup {
				tr.UpdateKey(interceptor.ClassKeyboard, interceptor.KeyA, d, SourceHardware)
			}
			ch := tr.UpdateKey(interceptor.ClassKeyboard, interceptor.KeyA, tt.down, SourceHardware)
			if ch.Edge != tt.wantEdge {
				t.Errorf("Edge = %v, want %v", ch.Edge, tt.wantEdge)
			}
			if ch.Down != tt.down {
				t.Errorf("Down = %v, want %v", ch.Down, tt.down)
			}
		})
	}
}

func TestSourcesIndependent(t *testing.T) {
	tr := NewTracker()
	tr.UpdateKey(interceptor.ClassKeyboard, interceptor.KeyA, true, SourceHardware)

	if !tr.IsPressed(interceptor.ClassKeyboard, interceptor.KeyA, SourceHardware) {
		t.Error("hardware state should hold KeyA")
	}
	if tr.IsPressed(interceptor.ClassKeyboard, interceptor.KeyA, SourceForwarded) {
		t.Error("forwarded state should not hold KeyA")
	}
}

func TestClassesIndependent(t *testing.T) {
	tr := NewTracker()
	tr.UpdateKey(interceptor.ClassMouse, interceptor.ButtonLeft.KeyCode(), true, SourceHardware)

	if tr.IsPressed(interceptor.ClassKeyboard, interceptor.ButtonLeft.KeyCode(), SourceHardware) {
		t.Error("mouse button must not leak into keyboard state")
	}
	if !tr.IsPressed(interceptor.ClassMouse, interceptor.ButtonLeft.KeyCode(), SourceHardware) {
		t.Error("mouse state should hold the button")
	}
}

func TestUpdateMouseStroke(t *testing.T) {
	tr := NewTracker()
	stroke := interceptor.MouseStroke{
		Buttons: interceptor.MouseLeftButtonDown | interceptor.MouseRightButtonDown,
	}
	changes := tr.Update(stroke, SourceHardware)
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	for _, ch := range changes {
		if !ch.Down || !ch.Edge {
			t.Errorf("change %+v should be a down edge", ch)
		}
	}

	// Pure movement carries no transitions.
	if got := tr.Update(interceptor.MouseStroke{X: 5, Y: -3}, SourceHardware); got != nil {
		t.Errorf("movement produced changes: %v", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tr := NewTracker()
	tr.UpdateKey(interceptor.ClassKeyboard, interceptor.KeyA, true, SourceHardware)

	snap := tr.Snapshot(interceptor.ClassKeyboard, SourceHardware)
	tr.UpdateKey(interceptor.ClassKeyboard, interceptor.KeyA, false, SourceHardware)

	if !snap.Contains(interceptor.KeyA) {
		t.Error("snapshot changed under the caller")
	}
	snap[interceptor.KeyB] = struct{}{}
	if tr.IsPressed(interceptor.ClassKeyboard, interceptor.KeyB, SourceHardware) {
		t.Error("mutating the snapshot leaked into the tracker")
	}
}

func TestAllPressedUnion(t *testing.T) {
	tr := NewTracker()
	tr.UpdateKey(interceptor.ClassKeyboard, interceptor.KeyA, true, SourceHardware)
	tr.UpdateKey(interceptor.ClassKeyboard, interceptor.KeyB, true, SourceForwarded)

	all := tr.AllPressed(interceptor.ClassKeyboard)
	if !all.Contains(interceptor.KeyA) || !all.Contains(interceptor.KeyB) {
		t.Errorf("union = %s, want both KeyA and KeyB", all)
	}
}

func TestSetOperations(t *testing.T) {
	s := NewSet(interceptor.KeyLeftCtrl, interceptor.KeyC, interceptor.KeyC)
	if len(s) != 2 {
		t.Errorf("duplicates not dropped: %s", s)
	}
	held := NewSet(interceptor.KeyLeftCtrl, interceptor.KeyC, interceptor.KeyLeftShift)
	if !s.SubsetOf(held) {
		t.Errorf("%s should be a subset of %s", s, held)
	}
	if held.SubsetOf(s) {
		t.Errorf("%s should not be a subset of %s", held, s)
	}
}
