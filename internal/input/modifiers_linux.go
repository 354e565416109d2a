//go:build linux

package input

import "golang.design/x/hotkey"

// X11 has no Alt or Super modifier of its own: Alt is Mod1 and Super is Mod4
var platformModifiers = map[string]hotkey.Modifier{
	"alt": hotkey.Mod1, "option": hotkey.Mod1, "opt": hotkey.Mod1,
	"cmd": hotkey.Mod4, "command": hotkey.Mod4, "super": hotkey.Mod4, "win": hotkey.Mod4, "meta": hotkey.Mod4,
}
