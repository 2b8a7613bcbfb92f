package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ModifierMod is Ctrl on Linux and Windows and Cmd on macOS.
	ModifierMod   = "mod"
	ModifierCtrl  = "ctrl"
	ModifierMeta  = "meta"
	ModifierAlt   = "alt"
	ModifierShift = "shift"

	// ToggleEditMode is the binding that flips edit mode.
	ToggleEditMode = "mod+E"

	bindingSeparator = "+"
)

// ErrInvalidBinding indicates a binding that is not "<modifier>+<key>".
var ErrInvalidBinding = errors.New("hotkey: invalid binding")

var knownModifiers = map[string]struct{}{
	ModifierMod:   {},
	ModifierCtrl:  {},
	ModifierMeta:  {},
	ModifierAlt:   {},
	ModifierShift: {},
}

// Binding is a single modifier plus a single key.
type Binding struct {
	Modifier string
	Key      string
}

// Parse reads a binding such as "mod+E".
func Parse(rawBinding string) (Binding, error) {
	parts := strings.Split(strings.TrimSpace(rawBinding), bindingSeparator)
	if len(parts) != 2 {
		return Binding{}, fmt.Errorf("%w: %q", ErrInvalidBinding, rawBinding)
	}
	modifier := strings.ToLower(strings.TrimSpace(parts[0]))
	key := strings.ToLower(strings.TrimSpace(parts[1]))
	if _, known := knownModifiers[modifier]; !known || key == "" {
		return Binding{}, fmt.Errorf("%w: %q", ErrInvalidBinding, rawBinding)
	}
	return Binding{Modifier: modifier, Key: key}, nil
}

// MustParse is Parse for compile-time constants.
func MustParse(rawBinding string) Binding {
	binding, parseErr := Parse(rawBinding)
	if parseErr != nil {
		panic(parseErr)
	}
	return binding
}

// String renders the binding in its canonical "mod+e" form.
func (binding Binding) String() string {
	return binding.Modifier + bindingSeparator + binding.Key
}

// Label renders the binding for display next to a button.
func (binding Binding) Label() string {
	modifierLabels := map[string]string{
		ModifierMod:   "Ctrl/⌘",
		ModifierCtrl:  "Ctrl",
		ModifierMeta:  "⌘",
		ModifierAlt:   "Alt",
		ModifierShift: "Shift",
	}
	return modifierLabels[binding.Modifier] + " + " + strings.ToUpper(binding.Key)
}
