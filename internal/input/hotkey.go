// Package input registers the global dictation hotkey.
package input

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.design/x/hotkey"
)

// HotkeyManager invokes a callback each time the registered hotkey is pressed.
// It carries no recording state of its own; the dictation controller owns it.
type HotkeyManager struct {
	mu      sync.Mutex
	hk      *hotkey.Hotkey
	onPress func()
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewHotkeyManager creates a new HotkeyManager
func NewHotkeyManager(onPress func()) *HotkeyManager {
	return &HotkeyManager{onPress: onPress}
}

// Start registers hotkeyStr and begins listening for presses
func (h *HotkeyManager) Start(ctx context.Context, hotkeyStr string) error {
	mods, key, err := ParseHotkey(hotkeyStr)
	if err != nil {
		return fmt.Errorf("invalid hotkey: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hk != nil {
		return fmt.Errorf("hotkey already registered")
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey %q: %w", hotkeyStr, err)
	}
	h.hk = hk
	h.done = make(chan struct{})

	ctx, h.cancel = context.WithCancel(ctx)
	go h.listen(ctx, hk, h.done)

	log.Info().Str("component", "hotkey").Str("hotkey", hotkeyStr).Msg("hotkey registered")
	return nil
}

func (h *HotkeyManager) listen(ctx context.Context, hk *hotkey.Hotkey, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			if h.onPress != nil {
				h.onPress()
			}
		}
	}
}

// Stop unregisters the hotkey and stops listening
func (h *HotkeyManager) Stop() {
	h.mu.Lock()
	hk, cancel, done := h.hk, h.cancel, h.done
	h.hk, h.cancel, h.done = nil, nil, nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if hk != nil {
		if err := hk.Unregister(); err != nil {
			log.Warn().Err(err).Str("component", "hotkey").Msg("failed to unregister hotkey")
		}
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// ParseHotkey parses a hotkey string like "cmd+shift+v" into modifiers and key
func ParseHotkey(s string) ([]hotkey.Modifier, hotkey.Key, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return nil, 0, fmt.Errorf("empty hotkey string")
	}

	var mods []hotkey.Modifier
	var key hotkey.Key
	var keyFound bool

	for _, part := range strings.Split(s, "+") {
		part = strings.Trim(strings.TrimSpace(part), "<>")
		switch part {
		case "ctrl", "control":
			mods = append(mods, hotkey.ModCtrl)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		case "":
			return nil, 0, fmt.Errorf("empty key in %q", s)
		default:
			if mod, ok := platformModifiers[part]; ok {
				mods = append(mods, mod)
				continue
			}
			if keyFound {
				return nil, 0, fmt.Errorf("multiple keys specified")
			}
			k, ok := keys[part]
			if !ok {
				return nil, 0, fmt.Errorf("unknown key: %s", part)
			}
			key = k
			keyFound = true
		}
	}

	if !keyFound {
		return nil, 0, fmt.Errorf("no key specified")
	}

	return mods, key, nil
}

var keys = map[string]hotkey.Key{
	"space": hotkey.KeySpace, "return": hotkey.KeyReturn, "enter": hotkey.KeyReturn,
	"tab": hotkey.KeyTab, "escape": hotkey.KeyEscape, "esc": hotkey.KeyEscape,

	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,

	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}
