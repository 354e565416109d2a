package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/emmett/dictate/internal/audio"
)

// fakeWhisper writes a shell script standing in for whisper-cli. The script
// receives the same arguments as the real binary, so $4 is the clip path.
func fakeWhisper(t *testing.T, body string) *WhisperCLI {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine scripts need a POSIX shell")
	}
	dir := t.TempDir()

	bin := filepath.Join(dir, "whisper-cli")
	script := "#!/bin/sh\n[ -s \"$4\" ] || { echo \"missing clip $4\" >&2; exit 9; }\n" + body + "\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	model := filepath.Join(dir, "ggml-base.bin")
	if err := os.WriteFile(model, []byte("model"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return NewWhisperCLI(bin, model)
}

func testClip() *audio.Clip {
	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = 0.1
	}
	return audio.NewClip([][]float32{samples}, 16000, time.Now())
}

func leftoverClips(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, TempPrefix+"*.wav"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestTranscribeSpanish(t *testing.T) {
	backend := fakeWhisper(t, `echo "whisper_full_with_state: auto-detected language: es (p = 0.973)" >&2
printf ' Hola, ¿cómo estás?\n'`)
	tmp := t.TempDir()
	engine := NewEngine(backend, Config{TempDir: tmp, Timeout: 10 * time.Second})

	result, err := engine.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "Hola, ¿cómo estás?" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Language != "es" {
		t.Fatalf("expected language es, got %q", result.Language)
	}
	if left := leftoverClips(t, tmp); len(left) != 0 {
		t.Fatalf("temporary clips not removed: %v", left)
	}
}

func TestTranscribeBlankAudio(t *testing.T) {
	backend := fakeWhisper(t, `echo "[BLANK_AUDIO]"`)
	engine := NewEngine(backend, Config{TempDir: t.TempDir(), Timeout: 10 * time.Second})

	result, err := engine.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "" {
		t.Fatalf("expected empty text, got %q", result.Text)
	}
	if result.Language != UnknownLanguage {
		t.Fatalf("expected %q, got %q", UnknownLanguage, result.Language)
	}
}

func TestTranscribeCollapsesWhitespace(t *testing.T) {
	backend := fakeWhisper(t, `printf 'hello   world\n\tfoo'`)
	engine := NewEngine(backend, Config{TempDir: t.TempDir(), Timeout: 10 * time.Second})

	result, err := engine.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "hello world foo" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
}

func TestTranscribeEngineFailure(t *testing.T) {
	backend := fakeWhisper(t, `echo "error: failed to initialize whisper context" >&2
exit 3`)
	tmp := t.TempDir()
	engine := NewEngine(backend, Config{TempDir: tmp, Timeout: 10 * time.Second})

	_, err := engine.Transcribe(context.Background(), testClip())
	var failure *EngineFailureError
	if !errors.As(err, &failure) {
		t.Fatalf("expected EngineFailureError, got %v", err)
	}
	if failure.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", failure.ExitCode)
	}
	if !strings.Contains(failure.Stderr, "failed to initialize") {
		t.Fatalf("stderr excerpt missing: %q", failure.Stderr)
	}
	if left := leftoverClips(t, tmp); len(left) != 0 {
		t.Fatalf("temporary clips not removed: %v", left)
	}
}

func TestTranscribeTimeout(t *testing.T) {
	backend := fakeWhisper(t, `exec sleep 5`)
	tmp := t.TempDir()
	engine := NewEngine(backend, Config{TempDir: tmp, Timeout: 200 * time.Millisecond})

	started := time.Now()
	_, err := engine.Transcribe(context.Background(), testClip())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 4*time.Second {
		t.Fatalf("engine was not killed promptly: %s", elapsed)
	}
	if left := leftoverClips(t, tmp); len(left) != 0 {
		t.Fatalf("temporary clips not removed: %v", left)
	}
}

func TestTranscribeCancelledIsNotTimeout(t *testing.T) {
	backend := fakeWhisper(t, `exec sleep 5`)
	engine := NewEngine(backend, Config{TempDir: t.TempDir(), Timeout: 10 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := engine.Transcribe(ctx, testClip())
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("cancellation reported as timeout")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTranscribeReleasesClip(t *testing.T) {
	backend := fakeWhisper(t, `echo hi`)
	engine := NewEngine(backend, Config{TempDir: t.TempDir()})

	clip := testClip()
	if _, err := engine.Transcribe(context.Background(), clip); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if clip.Samples != nil {
		t.Fatalf("clip samples not released")
	}
}

func TestMissingBinaryAndModel(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.bin")
	if err := os.WriteFile(model, []byte("m"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	missingBinary := NewWhisperCLI(filepath.Join(dir, "no-such-whisper"), model)
	if err := missingBinary.Check(); !errors.Is(err, ErrMissingBinary) {
		t.Fatalf("expected ErrMissingBinary, got %v", err)
	}

	engine := NewEngine(missingBinary, Config{TempDir: dir})
	if _, err := engine.Transcribe(context.Background(), testClip()); !errors.Is(err, ErrMissingBinary) {
		t.Fatalf("expected ErrMissingBinary from Transcribe, got %v", err)
	}
	if left := leftoverClips(t, dir); len(left) != 0 {
		t.Fatalf("clip written despite missing binary: %v", left)
	}

	backend := fakeWhisper(t, `echo hi`)
	backend.ModelPath = filepath.Join(dir, "absent.bin")
	if err := backend.Check(); !errors.Is(err, ErrMissingModel) {
		t.Fatalf("expected ErrMissingModel, got %v", err)
	}
}

func TestEnsureReadyIsCached(t *testing.T) {
	backend := &countingBackend{err: ErrMissingModel}
	engine := NewEngine(backend, Config{})

	for i := 0; i < 3; i++ {
		if err := engine.EnsureReady(); !errors.Is(err, ErrMissingModel) {
			t.Fatalf("expected cached ErrMissingModel, got %v", err)
		}
	}
	if backend.checks != 1 {
		t.Fatalf("expected one check, got %d", backend.checks)
	}
}

func TestEmptyLanguageBecomesUnknown(t *testing.T) {
	backend := &countingBackend{recognition: Recognition{Text: " ok "}}
	engine := NewEngine(backend, Config{TempDir: t.TempDir()})

	result, err := engine.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "ok" || result.Language != UnknownLanguage {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCleanupStale(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, TempPrefix+"123_abcd.wav")
	keep := filepath.Join(dir, "notes.wav")
	for _, p := range []string{stale, keep} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	CleanupStale(dir)

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale clip not removed")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

type countingBackend struct {
	checks      int
	err         error
	recognition Recognition
}

func (c *countingBackend) Name() string { return "counting" }

func (c *countingBackend) Check() error {
	c.checks++
	return c.err
}

func (c *countingBackend) Recognize(ctx context.Context, wavPath string) (Recognition, error) {
	return c.recognition, nil
}
