package input

import (
	"testing"

	"golang.design/x/hotkey"
)

func TestParseHotkey(t *testing.T) {
	mods, key, err := ParseHotkey("Cmd+Shift+V")
	if err != nil {
		t.Fatalf("ParseHotkey failed: %v", err)
	}
	if key != hotkey.KeyV {
		t.Fatalf("expected KeyV, got %v", key)
	}
	if len(mods) != 2 || mods[0] != platformModifiers["cmd"] || mods[1] != hotkey.ModShift {
		t.Fatalf("unexpected modifiers %v", mods)
	}

	// angle-bracketed names are accepted
	if _, key, err := ParseHotkey("<ctrl>+<alt>+f9"); err != nil || key != hotkey.KeyF9 {
		t.Fatalf("bracketed hotkey: %v %v", key, err)
	}
}

func TestParseHotkeyErrors(t *testing.T) {
	for _, s := range []string{"", "ctrl+shift", "ctrl+a+b", "ctrl+", "ctrl+pause"} {
		if _, _, err := ParseHotkey(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestParseHotkeyModifierAliases(t *testing.T) {
	for _, name := range []string{"alt", "option", "opt", "cmd", "command", "super", "win", "meta"} {
		mods, _, err := ParseHotkey(name + "+v")
		if err != nil {
			t.Fatalf("ParseHotkey(%q) failed: %v", name, err)
		}
		if len(mods) != 1 || mods[0] != platformModifiers[name] {
			t.Fatalf("%s: unexpected modifiers %v", name, mods)
		}
	}
}
