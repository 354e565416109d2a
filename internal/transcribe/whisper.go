package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// waitDelay bounds how long Wait blocks on output pipes after the process
// has been killed
const waitDelay = 2 * time.Second

// WhisperCLI runs whisper.cpp's command line tool
type WhisperCLI struct {
	// BinaryPath is the whisper-cli executable, absolute or looked up in PATH
	BinaryPath string

	// ModelPath is the ggml model file
	ModelPath string

	// Language is passed to -l; "auto" enables detection
	Language string

	// Threads is passed to -t when positive
	Threads int
}

// NewWhisperCLI creates a whisper-cli backend with language auto-detection
func NewWhisperCLI(binaryPath, modelPath string) *WhisperCLI {
	return &WhisperCLI{BinaryPath: binaryPath, ModelPath: modelPath, Language: "auto"}
}

// Name returns the backend name
func (w *WhisperCLI) Name() string {
	return "whisper-cli"
}

// Check verifies the binary and model exist
func (w *WhisperCLI) Check() error {
	if _, err := w.resolveBinary(); err != nil {
		return fmt.Errorf("%w: %s (install whisper.cpp, e.g. brew install whisper-cpp)", ErrMissingBinary, w.BinaryPath)
	}
	info, err := os.Stat(w.ModelPath)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s (download one with: dictate -download-model ggml-base.en)", ErrMissingModel, w.ModelPath)
	}
	return nil
}

// Recognize runs whisper-cli on wavPath. Text comes from stdout and the
// detected language from stderr.
func (w *WhisperCLI) Recognize(ctx context.Context, wavPath string) (Recognition, error) {
	binary, err := w.resolveBinary()
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: %s", ErrMissingBinary, w.BinaryPath)
	}

	cmd := exec.CommandContext(ctx, binary, w.args(wavPath)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Recognition{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Recognition{}, &EngineFailureError{
				Backend:  w.Name(),
				ExitCode: exitErr.ExitCode(),
				Stderr:   excerpt(stderr.String()),
			}
		}
		return Recognition{}, fmt.Errorf("failed to run %s: %w", binary, err)
	}

	if !utf8.Valid(stdout.Bytes()) {
		return Recognition{}, fmt.Errorf("%w: stdout is not valid UTF-8", ErrMalformedOutput)
	}

	return Recognition{
		Text:     stdout.String(),
		Language: DetectLanguage(stderr.String()),
	}, nil
}

func (w *WhisperCLI) args(wavPath string) []string {
	language := w.Language
	if language == "" {
		language = "auto"
	}
	args := []string{
		"-m", w.ModelPath,
		"-f", wavPath,
		"-l", language,
		"-nt", // plain text, no timestamps
	}
	if w.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.Threads))
	}
	return args
}

func (w *WhisperCLI) resolveBinary() (string, error) {
	if strings.ContainsRune(w.BinaryPath, os.PathSeparator) {
		info, err := os.Stat(w.BinaryPath)
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s is a directory", w.BinaryPath)
		}
		return w.BinaryPath, nil
	}
	return exec.LookPath(w.BinaryPath)
}
