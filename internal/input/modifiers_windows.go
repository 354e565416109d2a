//go:build windows

package input

import "golang.design/x/hotkey"

var platformModifiers = map[string]hotkey.Modifier{
	"alt": hotkey.ModAlt, "option": hotkey.ModAlt, "opt": hotkey.ModAlt,
	"cmd": hotkey.ModWin, "command": hotkey.ModWin, "super": hotkey.ModWin, "win": hotkey.ModWin, "meta": hotkey.ModWin,
}
