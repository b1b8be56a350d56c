// Package profile loads hotkey bindings from YAML files and applies them to
// a hotkey manager. A profile maps binding names to key combinations; the
// program supplies the actions, so profiles stay pure data.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/hotkey"
)

// Binding is one named key combination.
type Binding struct {
	// Keys are canonical key names from the scan-code table, for example
	// LEFT_CTRL or NUM_0. At least one is required.
	Keys []string `yaml:"keys"`
	// Suppress withholds the triggering event from the OS. Defaults true.
	Suppress *bool `yaml:"suppress"`
	// Mouse matches against mouse buttons instead of keyboard keys.
	Mouse bool `yaml:"mouse"`
}

// Profile is the parsed form of a bindings file.
type Profile struct {
	Bindings map[string]Binding `yaml:"bindings"`
}

// Load reads and parses a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a profile document. Unknown fields and unknown key names
// are errors; a binding with no keys is rejected the same way an empty
// Register call would be.
func Parse(data []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	for name, b := range p.Bindings {
		if len(b.Keys) == 0 {
			return nil, fmt.Errorf("binding %q: %w", name, hotkey.ErrInvalidHotkey)
		}
		for _, key := range b.Keys {
			if _, ok := interceptor.KeyCodeByName(key); !ok {
				return nil, fmt.Errorf("binding %q: unknown key name %q", name, key)
			}
		}
	}
	return &p, nil
}

// Codes resolves a binding's key names to key codes.
func (b Binding) Codes() ([]interceptor.KeyCode, error) {
	codes := make([]interceptor.KeyCode, 0, len(b.Keys))
	for _, key := range b.Keys {
		code, ok := interceptor.KeyCodeByName(key)
		if !ok {
			return nil, fmt.Errorf("unknown key name %q", key)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// Registrar is the slice of the hotkey manager Apply needs. *hotkey.Manager
// satisfies it.
type Registrar interface {
	Register(keys []interceptor.KeyCode, cb hotkey.Callback, opts ...hotkey.RegisterOption) (hotkey.Handle, error)
	Unregister(handle hotkey.Handle)
}

// Apply registers every binding with its matching action. Bindings are
// applied in name order so registration order is deterministic. A binding
// without an action is an error; actions without bindings are ignored,
// which lets one action table serve several profiles. On error no
// registrations are left behind.
func (p *Profile) Apply(reg Registrar, actions map[string]hotkey.Callback) ([]hotkey.Handle, error) {
	names := make([]string, 0, len(p.Bindings))
	for name := range p.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	var handles []hotkey.Handle
	rollback := func() {
		for _, h := range handles {
			reg.Unregister(h)
		}
	}

	for _, name := range names {
		b := p.Bindings[name]
		action, ok := actions[name]
		if !ok {
			rollback()
			return nil, fmt.Errorf("binding %q has no action", name)
		}
		codes, err := b.Codes()
		if err != nil {
			rollback()
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}

		opts := []hotkey.RegisterOption{}
		if b.Suppress != nil {
			opts = append(opts, hotkey.WithSuppress(*b.Suppress))
		}
		if b.Mouse {
			opts = append(opts, hotkey.WithDeviceClass(interceptor.ClassMouse))
		}
		handle, err := reg.Register(codes, action, opts...)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		handles = append(handles, handle)
	}
	return handles, nil
}
