// Package session implements the single recording slot: a state machine
// that gates microphone capture and hands finalized clips to the caller.
package session

import (
	"fmt"
	"sync"

	"github.com/emmett/dictate/internal/audio"
)

// State is the lifecycle state of the recording slot
type State int

const (
	Idle State = iota
	Recording
	Transcribing
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// legal lists the only permitted transitions. Transcribing -> Idle covers
// both the empty-stop path and the end of transcription.
var legal = map[State]State{
	Idle:         Recording,
	Recording:    Transcribing,
	Transcribing: Idle,
}

// Recorder is the capture side driven by the session
type Recorder interface {
	Start() error
	Stop() *audio.Clip
}

// Observer is notified of every state transition, while the session lock is
// held. It must not call back into the session.
type Observer func(from, to State)

// Outcome describes what a toggle did
type Outcome int

const (
	// OutcomeIgnored means the toggle arrived while transcribing
	OutcomeIgnored Outcome = iota
	// OutcomeStarted means capture started
	OutcomeStarted
	// OutcomeStopped means capture stopped and Result.Clip must be transcribed
	OutcomeStopped
	// OutcomeNoAudio means capture stopped without any audio
	OutcomeNoAudio
)

// Result is returned by Toggle
type Result struct {
	Outcome Outcome
	State   State
	Clip    *audio.Clip
}

// Session is the recording state machine
type Session struct {
	mu       sync.Mutex
	state    State
	recorder Recorder
	observer Observer
}

// New creates an idle session driving recorder
func New(recorder Recorder, observer Observer) *Session {
	return &Session{recorder: recorder, observer: observer}
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Toggle advances the state machine by one user action. The whole decision
// runs under the session lock, so concurrent toggles are serialized and a
// toggle while transcribing is ignored.
func (s *Session) Toggle() (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Idle:
		if err := s.recorder.Start(); err != nil {
			return Result{Outcome: OutcomeIgnored, State: s.state}, err
		}
		s.transition(Recording)
		return Result{Outcome: OutcomeStarted, State: s.state}, nil

	case Recording:
		// Busy is reported before the audio is finalized.
		s.transition(Transcribing)
		clip := s.recorder.Stop()
		if clip == nil {
			s.transition(Idle)
			return Result{Outcome: OutcomeNoAudio, State: s.state}, nil
		}
		return Result{Outcome: OutcomeStopped, State: s.state, Clip: clip}, nil

	default:
		return Result{Outcome: OutcomeIgnored, State: s.state}, nil
	}
}

// Finish returns a transcribing session to idle. It reports false when the
// session was not transcribing, so a second call for the same clip is a no-op.
func (s *Session) Finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Transcribing {
		return false
	}
	s.transition(Idle)
	return true
}

func (s *Session) transition(to State) {
	from := s.state
	if legal[from] != to {
		panic(fmt.Sprintf("session: illegal transition %s -> %s", from, to))
	}
	s.state = to
	if s.observer != nil {
		s.observer(from, to)
	}
}
