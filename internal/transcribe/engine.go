// Package transcribe runs speech-to-text engines over finalized clips.
//
// An Engine owns the temporary WAV file for the duration of one call and
// removes it on every exit path. Backends only see a file path.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/emmett/dictate/internal/audio"
)

// TempPrefix prefixes every temporary clip file written by the engine
const TempPrefix = "dictate_"

// DefaultTimeout bounds a single engine run
const DefaultTimeout = 60 * time.Second

// Result is the outcome of one transcription
type Result struct {
	Text     string
	Language string
}

// Recognition is the raw output of a backend
type Recognition struct {
	Text     string
	Language string
}

// Backend recognizes speech in a 16-bit mono WAV file
type Backend interface {
	// Name identifies the backend in logs and errors
	Name() string

	// Check verifies the backend can run (binary, model, credentials)
	Check() error

	// Recognize transcribes the file. It must return promptly once ctx is done.
	Recognize(ctx context.Context, wavPath string) (Recognition, error)
}

// Config holds engine settings
type Config struct {
	// TempDir is where clips are written before recognition
	// Empty = os.TempDir()
	TempDir string

	// Timeout is the hard wall-clock limit for one backend run
	Timeout time.Duration
}

// Engine runs a backend over clips
type Engine struct {
	backend Backend
	config  Config

	readyOnce sync.Once
	readyErr  error
}

// NewEngine creates an engine. The backend is not checked until first use.
func NewEngine(backend Backend, config Config) *Engine {
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Engine{backend: backend, config: config}
}

// Backend returns the backend name
func (e *Engine) Backend() string {
	return e.backend.Name()
}

// EnsureReady checks the backend once and caches the outcome
func (e *Engine) EnsureReady() error {
	e.readyOnce.Do(func() {
		e.readyErr = e.backend.Check()
		if e.readyErr != nil {
			log.Error().Err(e.readyErr).Str("backend", e.backend.Name()).Msg("transcription engine not ready")
		}
	})
	return e.readyErr
}

// Transcribe writes clip to a temporary WAV file, runs the backend on it and
// cleans the recognized text. The clip is released and the file removed
// whatever the outcome.
func (e *Engine) Transcribe(ctx context.Context, clip *audio.Clip) (Result, error) {
	defer clip.Release()

	if err := e.EnsureReady(); err != nil {
		return Result{}, err
	}

	path := e.tempPath()
	defer removeTemp(path)

	if err := clip.WriteWAV(path); err != nil {
		return Result{}, fmt.Errorf("failed to write clip: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	started := time.Now()
	raw, err := e.backend.Recognize(runCtx, path)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Result{}, fmt.Errorf("%w after %s (%s)", ErrTimeout, e.config.Timeout, e.backend.Name())
		}
		return Result{}, err
	}

	language := strings.TrimSpace(raw.Language)
	if language == "" {
		language = UnknownLanguage
	}
	result := Result{Text: Clean(raw.Text), Language: language}

	log.Debug().
		Str("backend", e.backend.Name()).
		Dur("elapsed", time.Since(started)).
		Str("language", result.Language).
		Int("chars", len(result.Text)).
		Msg("transcription finished")

	return result, nil
}

func (e *Engine) tempPath() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	name := fmt.Sprintf("%s%d_%s.wav", TempPrefix, time.Now().UnixNano(), id)
	return filepath.Join(e.config.TempDir, name)
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("failed to delete temporary clip")
	}
}

// CleanupStale removes clip files left behind by a previous run
func CleanupStale(dir string) {
	if dir == "" {
		dir = os.TempDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("failed to scan temp dir")
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, TempPrefix) || !strings.HasSuffix(name, ".wav") {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove stale clip")
		} else {
			log.Debug().Str("path", path).Msg("removed stale clip")
		}
	}
}
