//go:build !darwin

package delivery

import "github.com/micmonay/keybd_event"

// pasteModifier selects Ctrl+V
func pasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasCTRL(true)
}
