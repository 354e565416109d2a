package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/emmett/dictate/internal/audio"
)

type fakeRecorder struct {
	mu       sync.Mutex
	startErr error
	clip     *audio.Clip
	active   bool
	starts   int
	stops    int
}

func (r *fakeRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	if r.active {
		return audio.ErrAlreadyActive
	}
	r.active = true
	r.starts++
	return nil
}

func (r *fakeRecorder) Stop() *audio.Clip {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.stops++
	return r.clip
}

type transitionLog struct {
	mu    sync.Mutex
	steps [][2]State
}

func (l *transitionLog) observe(from, to State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, [2]State{from, to})
}

func (l *transitionLog) all() [][2]State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][2]State(nil), l.steps...)
}

func testClip() *audio.Clip {
	return audio.NewClip([][]float32{{0.1, 0.2, 0.3}}, 16000, time.Now())
}

func TestToggleLifecycle(t *testing.T) {
	rec := &fakeRecorder{clip: testClip()}
	log := &transitionLog{}
	s := New(rec, log.observe)

	res, err := s.Toggle()
	if err != nil || res.Outcome != OutcomeStarted || res.State != Recording {
		t.Fatalf("expected started/recording, got %+v (%v)", res, err)
	}

	res, err = s.Toggle()
	if err != nil || res.Outcome != OutcomeStopped || res.State != Transcribing {
		t.Fatalf("expected stopped/transcribing, got %+v (%v)", res, err)
	}
	if res.Clip == nil {
		t.Fatalf("expected clip to be handed off")
	}

	res, err = s.Toggle()
	if err != nil || res.Outcome != OutcomeIgnored || res.State != Transcribing {
		t.Fatalf("expected toggle while transcribing to be ignored, got %+v (%v)", res, err)
	}

	if !s.Finish() {
		t.Fatalf("Finish from transcribing returned false")
	}
	if s.Finish() {
		t.Fatalf("second Finish must be a no-op")
	}
	if s.State() != Idle {
		t.Fatalf("expected idle, got %s", s.State())
	}

	want := [][2]State{{Idle, Recording}, {Recording, Transcribing}, {Transcribing, Idle}}
	got := log.all()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestToggleNoAudioReturnsToIdle(t *testing.T) {
	rec := &fakeRecorder{}
	log := &transitionLog{}
	s := New(rec, log.observe)

	if _, err := s.Toggle(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	res, err := s.Toggle()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if res.Outcome != OutcomeNoAudio || res.State != Idle || res.Clip != nil {
		t.Fatalf("expected no-audio/idle, got %+v", res)
	}

	// Transcribing is still passed through on the way back to idle.
	got := log.all()
	if len(got) != 3 || got[1] != [2]State{Recording, Transcribing} || got[2] != [2]State{Transcribing, Idle} {
		t.Fatalf("unexpected transitions: %v", got)
	}
	if s.Finish() {
		t.Fatalf("Finish after no-audio must be a no-op")
	}
}

func TestToggleStartFailureStaysIdle(t *testing.T) {
	rec := &fakeRecorder{startErr: audio.ErrDeviceUnavailable}
	log := &transitionLog{}
	s := New(rec, log.observe)

	_, err := s.Toggle()
	if !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Fatalf("expected device error, got %v", err)
	}
	if s.State() != Idle {
		t.Fatalf("expected idle, got %s", s.State())
	}
	if len(log.all()) != 0 {
		t.Fatalf("observer notified on failed start: %v", log.all())
	}
}

func TestConcurrentTogglesFollowLegalTransitions(t *testing.T) {
	rec := &fakeRecorder{clip: testClip()}
	log := &transitionLog{}
	s := New(rec, log.observe)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Toggle()
			if err != nil {
				t.Errorf("unexpected toggle error: %v", err)
				return
			}
			if res.Outcome == OutcomeStopped {
				s.Finish()
			}
		}()
	}
	wg.Wait()

	prev := Idle
	for i, step := range log.all() {
		if step[0] != prev {
			t.Fatalf("step %d starts from %s, expected %s", i, step[0], prev)
		}
		if legal[step[0]] != step[1] {
			t.Fatalf("step %d: illegal transition %s -> %s", i, step[0], step[1])
		}
		prev = step[1]
	}
	if rec.starts != rec.stops && rec.starts != rec.stops+1 {
		t.Fatalf("unbalanced capture: %d starts, %d stops", rec.starts, rec.stops)
	}
}

func TestStateString(t *testing.T) {
	if Idle.String() != "idle" || Recording.String() != "recording" || Transcribing.String() != "transcribing" {
		t.Fatalf("unexpected state names")
	}
	if State(9).String() != "state(9)" {
		t.Fatalf("unexpected unknown state name: %s", State(9))
	}
}
