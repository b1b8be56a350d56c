package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/hotkey"
	"github.com/t4euyoon/interceptor/internal/testutil"
)

type registration struct {
	handle   hotkey.Handle
	keys     []interceptor.KeyCode
	suppress bool
	class    interceptor.DeviceClass
}

// fakeRegistrar records registrations the way a manager would.
type fakeRegistrar struct {
	active map[hotkey.Handle]registration
	order  []hotkey.Handle
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{active: make(map[hotkey.Handle]registration)}
}

func (f *fakeRegistrar) Register(keys []interceptor.KeyCode, cb hotkey.Callback, opts ...hotkey.RegisterOption) (hotkey.Handle, error) {
	if len(keys) == 0 {
		return hotkey.Handle{}, hotkey.ErrInvalidHotkey
	}
	handle := hotkey.Handle(uuid.New())
	f.active[handle] = registration{handle: handle, keys: keys, suppress: true}
	f.order = append(f.order, handle)
	return handle, nil
}

func (f *fakeRegistrar) Unregister(handle hotkey.Handle) {
	delete(f.active, handle)
}

const sampleProfile = `
bindings:
  copy:
    keys: [LEFT_CTRL, C]
  screenshot:
    keys: [LEFT_WINDOWS, S]
    suppress: false
`

func TestParseValidProfile(t *testing.T) {
	p, err := Parse([]byte(sampleProfile))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(p.Bindings) != 2 {
		t.Fatalf("got %d bindings, want 2", len(p.Bindings))
	}

	codes, err := p.Bindings["copy"].Codes()
	if err != nil {
		t.Fatalf("Codes failed: %v", err)
	}
	want := []interceptor.KeyCode{interceptor.KeyLeftCtrl, interceptor.KeyC}
	for i, code := range want {
		if codes[i] != code {
			t.Errorf("codes[%d] = %s, want %s", i, codes[i], code)
		}
	}

	if got, want := p.Bindings["copy"].Suppress, (*bool)(nil); got != want {
		t.Errorf("copy suppress = %v, want unset", got)
	}
	if got, want := p.Bindings["screenshot"].Suppress, testutil.Ptr(false); got == nil || *got != *want {
		t.Errorf("screenshot suppress = %v, want false", got)
	}
}

func TestParseRejectsBadProfiles(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown key name", yaml: "bindings:\n  x:\n    keys: [NOT_A_KEY]\n"},
		{name: "empty key list", yaml: "bindings:\n  x:\n    keys: []\n"},
		{name: "unknown field", yaml: "bindings:\n  x:\n    keys: [C]\n    bogus: 1\n"},
		{name: "not yaml", yaml: "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse accepted a malformed profile")
			}
		})
	}
}

func TestParseEmptyKeysMatchesRegisterError(t *testing.T) {
	_, err := Parse([]byte("bindings:\n  x:\n    keys: []\n"))
	if !errors.Is(err, hotkey.ErrInvalidHotkey) {
		t.Errorf("err = %v, want ErrInvalidHotkey", err)
	}
}

func TestApplyRegistersAllBindings(t *testing.T) {
	p, err := Parse([]byte(sampleProfile))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	reg := newFakeRegistrar()
	actions := map[string]hotkey.Callback{
		"copy":       func(hotkey.Trigger) {},
		"screenshot": func(hotkey.Trigger) {},
		"unused":     func(hotkey.Trigger) {}, // extra actions are fine
	}

	handles, err := p.Apply(reg, actions)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(handles) != 2 || len(reg.active) != 2 {
		t.Errorf("got %d handles and %d registrations, want 2 and 2", len(handles), len(reg.active))
	}
}

func TestApplyMissingActionRollsBack(t *testing.T) {
	p, err := Parse([]byte(sampleProfile))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	reg := newFakeRegistrar()
	actions := map[string]hotkey.Callback{
		"copy": func(hotkey.Trigger) {},
		// screenshot is missing
	}

	if _, err := p.Apply(reg, actions); err == nil {
		t.Fatal("Apply succeeded with a binding that has no action")
	}
	if len(reg.active) != 0 {
		t.Errorf("%d registrations left behind after failed Apply", len(reg.active))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestWatcherReloadsAndKeepsLastGood(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	writeFile(t, path, "bindings:\n  copy:\n    keys: [LEFT_CTRL, C]\n")

	reg := newFakeRegistrar()
	actions := map[string]hotkey.Callback{
		"copy":  func(hotkey.Trigger) {},
		"paste": func(hotkey.Trigger) {},
	}

	w, err := Watch(path, reg, actions)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer w.Close()

	if len(w.Handles()) != 1 {
		t.Fatalf("initial load registered %d bindings, want 1", len(w.Handles()))
	}
	initial := w.Handles()[0]

	// A valid edit swaps the bindings.
	writeFile(t, path, "bindings:\n  copy:\n    keys: [LEFT_CTRL, C]\n  paste:\n    keys: [LEFT_CTRL, V]\n")
	waitFor(t, func() bool { return len(w.Handles()) == 2 })
	for _, h := range w.Handles() {
		if h == initial {
			t.Error("old handle survived the reload")
		}
	}

	// A broken edit keeps the current bindings active.
	good := w.Handles()
	writeFile(t, path, "bindings:\n  copy:\n    keys: [NOT_A_KEY]\n")
	time.Sleep(2 * reloadDebounce)
	now := w.Handles()
	if len(now) != len(good) {
		t.Fatalf("broken edit changed binding count: %d -> %d", len(good), len(now))
	}
	for i := range good {
		if now[i] != good[i] {
			t.Error("broken edit swapped the handles")
		}
	}
}

func TestWatcherCloseUnregisters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	writeFile(t, path, "bindings:\n  copy:\n    keys: [LEFT_CTRL, C]\n")

	reg := newFakeRegistrar()
	w, err := Watch(path, reg, map[string]hotkey.Callback{"copy": func(hotkey.Trigger) {}})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(reg.active) != 0 {
		t.Errorf("%d registrations left after Close", len(reg.active))
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
