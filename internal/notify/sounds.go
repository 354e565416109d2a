package notify

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog/log"
)

// Cue identifies an audible cue
type Cue int

const (
	CueStart Cue = iota
	CueStop
	CueError
)

func (c Cue) String() string {
	switch c {
	case CueStart:
		return "start"
	case CueStop:
		return "stop"
	case CueError:
		return "error"
	default:
		return "unknown"
	}
}

// SoundConfig maps cues to sound files and the program that plays them
type SoundConfig struct {
	Enabled bool
	Player  string
	Start   string
	Stop    string
	Error   string
}

// DefaultSoundConfig returns platform sound defaults
func DefaultSoundConfig() SoundConfig {
	switch runtime.GOOS {
	case "darwin":
		return SoundConfig{
			Enabled: true,
			Player:  "afplay",
			Start:   "/System/Library/Sounds/Tink.aiff",
			Stop:    "/System/Library/Sounds/Pop.aiff",
			Error:   "/System/Library/Sounds/Basso.aiff",
		}
	default:
		return SoundConfig{
			Enabled: true,
			Player:  "paplay",
			Start:   "/usr/share/sounds/freedesktop/stereo/message.oga",
			Stop:    "/usr/share/sounds/freedesktop/stereo/complete.oga",
			Error:   "/usr/share/sounds/freedesktop/stereo/dialog-error.oga",
		}
	}
}

// Sounds plays cues without blocking the caller
type Sounds struct {
	config SoundConfig
	start  func(name string, args ...string) error
	beep   func() error
}

// NewSounds creates a cue player
func NewSounds(config SoundConfig) *Sounds {
	return &Sounds{
		config: config,
		start:  startDetached,
		beep: func() error {
			return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
		},
	}
}

// Play starts playback of cue and returns immediately
func (s *Sounds) Play(cue Cue) {
	if !s.config.Enabled {
		return
	}

	file := s.file(cue)
	if file != "" && s.config.Player != "" {
		if _, err := os.Stat(file); err == nil {
			err = s.start(s.config.Player, file)
			if err == nil {
				return
			}
			log.Warn().Err(err).Str("component", "sounds").Str("cue", cue.String()).Msg("failed to play sound")
		}
	}

	// Errors must stay audible even without sound files
	if cue == CueError {
		if err := s.beep(); err != nil {
			log.Warn().Err(err).Str("component", "sounds").Msg("beep failed")
		}
	}
}

func (s *Sounds) file(cue Cue) string {
	switch cue {
	case CueStart:
		return s.config.Start
	case CueStop:
		return s.config.Stop
	case CueError:
		return s.config.Error
	}
	return ""
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
