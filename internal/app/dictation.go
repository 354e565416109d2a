package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/emmett/dictate/internal/audio"
	"github.com/emmett/dictate/internal/history"
	"github.com/emmett/dictate/internal/logging"
	"github.com/emmett/dictate/internal/notify"
	"github.com/emmett/dictate/internal/session"
	"github.com/emmett/dictate/internal/transcribe"
)

// Status messages shown to the user
const (
	StatusIdle         = "Idle"
	StatusRecording    = "Recording..."
	StatusTranscribing = "Transcribing..."
	StatusNoAudio      = "Idle (no audio)"
	StatusNoSpeech     = "Idle (no speech detected)"
	StatusPasteFailed  = "Idle (paste failed)"
	StatusError        = "Idle (error)"
)

// previewLength bounds the transcript excerpt shown in notifications
const previewLength = 50

// Transcriber turns a clip into text
type Transcriber interface {
	Transcribe(ctx context.Context, clip *audio.Clip) (transcribe.Result, error)
	Backend() string
}

// Deliverer puts text into the focused application
type Deliverer interface {
	Deliver(text string) error
}

// Store persists successful dictations
type Store interface {
	Save(r history.Record) (string, error)
}

// Notifier shows user notifications
type Notifier interface {
	Notify(message string, severity notify.Severity)
}

// Sounds plays audible cues
type Sounds interface {
	Play(cue notify.Cue)
}

// StatusSink displays the current status line
type StatusSink interface {
	Status(msg string)
}

// Deps are the collaborators of a Dictation. Store may be nil to disable
// transcript history.
type Deps struct {
	Transcriber Transcriber
	Deliverer   Deliverer
	Store       Store
	Notifier    Notifier
	Sounds      Sounds
	Status      StatusSink
}

// Status is a snapshot of the controller
type Status struct {
	State     session.State
	Message   string
	LastText  string
	UpdatedAt time.Time
}

// Dictation wires the recording session to transcription and delivery.
// Toggle never blocks on transcription; each finalized clip is processed on
// its own goroutine, and the session stays busy until that goroutine ends.
type Dictation struct {
	session *session.Session
	deps    Deps
	ctx     context.Context
	logger  zerolog.Logger

	wg sync.WaitGroup

	mu     sync.Mutex
	status Status
	// pending is the message shown when the current transcription returns
	// the session to idle
	pending string
}

// NewDictation creates a controller driving recorder. ctx bounds every
// transcription started by the controller.
func NewDictation(ctx context.Context, recorder session.Recorder, deps Deps) *Dictation {
	d := &Dictation{
		deps:   deps,
		ctx:    ctx,
		logger: logging.Component("dictation"),
	}
	d.status = Status{State: session.Idle, Message: StatusIdle, UpdatedAt: time.Now()}
	d.session = session.New(recorder, d.onTransition)
	return d
}

// onTransition runs under the session lock, so the status message always
// changes together with the state it describes.
func (d *Dictation) onTransition(from, to session.State) {
	d.logger.Debug().Stringer("from", from).Stringer("to", to).Msg("state changed")

	d.mu.Lock()
	defer d.mu.Unlock()

	var msg string
	switch to {
	case session.Recording:
		msg = StatusRecording
	case session.Transcribing:
		msg = StatusTranscribing
	default:
		msg, d.pending = d.pending, ""
		if msg == "" {
			msg = StatusNoAudio
		}
	}
	d.status.State = to
	d.publish(msg)
}

// Toggle starts or stops recording. It returns the state after the toggle.
func (d *Dictation) Toggle() (session.State, error) {
	res, err := d.session.Toggle()
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to start recording")
		d.setIdleStatus(StatusError)
		d.deps.Sounds.Play(notify.CueError)
		d.deps.Notifier.Notify(fmt.Sprintf("Could not start recording: %v", err), notify.Error)
		return res.State, err
	}

	switch res.Outcome {
	case session.OutcomeStarted:
		d.deps.Sounds.Play(notify.CueStart)
		d.logger.Info().Msg("recording started")

	case session.OutcomeNoAudio:
		d.deps.Sounds.Play(notify.CueStop)
		d.logger.Warn().Msg("no audio recorded")

	case session.OutcomeStopped:
		d.deps.Sounds.Play(notify.CueStop)
		d.logger.Info().
			Dur("duration", res.Clip.Duration).
			Float64("level", res.Clip.Level()).
			Msg("recording stopped")

		d.wg.Add(1)
		go d.process(res.Clip)

	case session.OutcomeIgnored:
		d.logger.Debug().Msg("toggle ignored while transcribing")
	}

	return res.State, nil
}

// process transcribes clip and delivers the text. The session returns to
// idle when it exits, whatever happened, including a panic in a backend.
func (d *Dictation) process(clip *audio.Clip) {
	defer d.wg.Done()

	outcome := StatusError
	defer func() { d.finish(outcome) }()
	defer func() {
		if r := recover(); r != nil {
			outcome = StatusError
			d.logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("dictation panicked")
			d.deps.Sounds.Play(notify.CueError)
			d.deps.Notifier.Notify(fmt.Sprintf("Transcription failed: %v", r), notify.Error)
		}
	}()

	duration := clip.Duration
	capturedAt := clip.CapturedAt

	result, err := d.deps.Transcriber.Transcribe(d.ctx, clip)
	if err != nil {
		d.logger.Error().Err(err).Msg("transcription failed")
		d.deps.Sounds.Play(notify.CueError)
		d.deps.Notifier.Notify(fmt.Sprintf("Transcription failed: %v", err), notify.Error)
		return
	}

	if result.Text == "" {
		d.logger.Warn().Msg("no speech detected")
		outcome = StatusNoSpeech
		return
	}

	if err := d.deps.Deliverer.Deliver(result.Text); err != nil {
		d.logger.Error().Err(err).Msg("failed to deliver transcript")
		outcome = StatusPasteFailed
		d.deps.Sounds.Play(notify.CueError)
		d.deps.Notifier.Notify(fmt.Sprintf("Paste failed: %v", err), notify.Error)
		return
	}

	d.mu.Lock()
	d.status.LastText = result.Text
	d.mu.Unlock()
	outcome = StatusIdle
	d.logger.Info().Str("language", result.Language).Str("text", Preview(result.Text)).Msg("transcribed")

	if d.deps.Store != nil {
		path, err := d.deps.Store.Save(history.Record{
			Text:      result.Text,
			Language:  result.Language,
			Duration:  duration,
			CreatedAt: capturedAt,
			Backend:   d.deps.Transcriber.Backend(),
		})
		if err != nil {
			d.logger.Error().Err(err).Msg("failed to save transcript")
		} else {
			d.logger.Debug().Str("path", path).Msg("saved transcript")
		}
	}

	d.deps.Notifier.Notify("Transcribed: "+Preview(result.Text), notify.Info)
}

// finish returns the session to idle showing msg
func (d *Dictation) finish(msg string) {
	d.mu.Lock()
	d.pending = msg
	d.mu.Unlock()

	if !d.session.Finish() {
		d.mu.Lock()
		d.pending = ""
		d.mu.Unlock()
		d.logger.Warn().Msg("finish called outside transcription")
	}
}

// setIdleStatus replaces the message only while the session is still idle
func (d *Dictation) setIdleStatus(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status.State != session.Idle {
		return
	}
	d.publish(msg)
}

// publish records msg and forwards it to the status sink. Callers hold d.mu.
func (d *Dictation) publish(msg string) {
	d.status.Message = msg
	d.status.UpdatedAt = time.Now()
	if d.deps.Status != nil {
		d.deps.Status.Status(msg)
	}
}

// Status returns the current state and status message
func (d *Dictation) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// State returns the session state
func (d *Dictation) State() session.State {
	return d.session.State()
}

// Wait blocks until every in-flight transcription has finished
func (d *Dictation) Wait() {
	d.wg.Wait()
}

// Shutdown finishes an active recording as a normal dictation and waits for
// in-flight work
func (d *Dictation) Shutdown() {
	if d.session.State() == session.Recording {
		if _, err := d.Toggle(); err != nil {
			d.logger.Warn().Err(err).Msg("failed to stop recording on shutdown")
		}
	}
	d.Wait()
}

// Preview shortens text for notifications and logs
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength]) + "..."
}
