// Package delivery puts transcribed text into the focused application.
package delivery

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
	"github.com/rs/zerolog/log"
)

// DefaultPasteDelay is the pause between copying and pasting
const DefaultPasteDelay = 100 * time.Millisecond

// restoreDelay gives the target application time to read the clipboard
// before the previous contents are put back
const restoreDelay = 150 * time.Millisecond

// ErrClipboardUnavailable is returned when the clipboard cannot be written
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Clipboard reads and writes the system clipboard
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// Keyboard simulates the platform paste shortcut
type Keyboard interface {
	Paste() error
}

// Config holds delivery settings
type Config struct {
	// AutoPaste simulates the paste shortcut after copying
	AutoPaste bool

	// PasteDelay is the wait between copy and paste
	PasteDelay time.Duration

	// RestoreClipboard puts the previous clipboard text back after pasting
	RestoreClipboard bool
}

// DefaultConfig returns the delivery defaults
func DefaultConfig() Config {
	return Config{AutoPaste: true, PasteDelay: DefaultPasteDelay}
}

// ClipboardPaster copies text and optionally pastes it
type ClipboardPaster struct {
	config    Config
	clipboard Clipboard
	keyboard  Keyboard
	sleep     func(time.Duration)

	// deliveries never interleave their copy/paste pairs
	mu sync.Mutex
}

// NewClipboardPaster creates a paster using the system clipboard and keyboard
func NewClipboardPaster(config Config) *ClipboardPaster {
	return NewClipboardPasterWith(config, systemClipboard{}, &systemKeyboard{})
}

// NewClipboardPasterWith creates a paster with custom collaborators
func NewClipboardPasterWith(config Config, cb Clipboard, kb Keyboard) *ClipboardPaster {
	if config.PasteDelay < 0 {
		config.PasteDelay = 0
	}
	return &ClipboardPaster{config: config, clipboard: cb, keyboard: kb, sleep: time.Sleep}
}

// Deliver copies text to the clipboard and, if enabled, pastes it
func (p *ClipboardPaster) Deliver(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var previous string
	if p.config.RestoreClipboard {
		previous, _ = p.clipboard.ReadAll()
	}

	if err := p.clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	log.Debug().Str("component", "delivery").Int("chars", len(text)).Msg("copied to clipboard")

	if !p.config.AutoPaste {
		return nil
	}

	p.sleep(p.config.PasteDelay)
	if err := p.keyboard.Paste(); err != nil {
		return fmt.Errorf("failed to simulate paste: %w", err)
	}
	log.Debug().Str("component", "delivery").Msg("simulated paste")

	if p.config.RestoreClipboard {
		p.sleep(restoreDelay)
		if err := p.clipboard.WriteAll(previous); err != nil {
			log.Warn().Err(err).Str("component", "delivery").Msg("failed to restore clipboard")
		}
	}
	return nil
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) {
	return clipboard.ReadAll()
}

func (systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility found")
	}
	return clipboard.WriteAll(text)
}

// systemKeyboard creates the key bonding lazily; on Linux this opens uinput
type systemKeyboard struct {
	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

func (k *systemKeyboard) Paste() error {
	k.once.Do(func() {
		k.kb, k.err = keybd_event.NewKeyBonding()
		if k.err != nil {
			return
		}
		pasteModifier(&k.kb)
		k.kb.SetKeys(keybd_event.VK_V)
	})
	if k.err != nil {
		return k.err
	}
	return k.kb.Launching()
}
