// Package notify shows desktop notifications and plays audible cues.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog/log"
)

// Severity of a notification
type Severity int

const (
	Info Severity = iota
	Error
)

// Titles used for desktop notifications
const (
	Title      = "Dictate"
	ErrorTitle = "Dictate - Error"
)

// Desktop sends notifications through the desktop notification service.
// Failures are logged and otherwise ignored.
type Desktop struct {
	enabled bool
	send    func(title, message string) error
}

// NewDesktop creates a desktop notifier. A disabled notifier only logs.
func NewDesktop(enabled bool) *Desktop {
	beeep.AppName = Title
	return &Desktop{
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Notify shows message with a title chosen by severity
func (d *Desktop) Notify(message string, severity Severity) {
	title := Title
	if severity == Error {
		title = ErrorTitle
	}
	log.Debug().Str("component", "notify").Str("title", title).Msg(message)

	if !d.enabled {
		return
	}
	if err := d.send(title, message); err != nil {
		log.Warn().Err(err).Str("component", "notify").Msg("notification failed")
	}
}
