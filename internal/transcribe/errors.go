package transcribe

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTimeout is returned when the engine exceeds the configured timeout.
	// The engine process has been killed by the time it is returned.
	ErrTimeout = errors.New("transcription timed out")

	// ErrMissingBinary is returned when the engine executable cannot be found
	ErrMissingBinary = errors.New("transcription engine not found")

	// ErrMissingModel is returned when the model file cannot be found
	ErrMissingModel = errors.New("transcription model not found")

	// ErrMalformedOutput is returned when engine output cannot be parsed
	ErrMalformedOutput = errors.New("malformed transcription output")

	// ErrMissingCredentials is returned by hosted backends without an API key
	ErrMissingCredentials = errors.New("transcription credentials not configured")
)

// maxExcerpt bounds how much engine diagnostics end up in an error message
const maxExcerpt = 400

// EngineFailureError is returned when the engine ran but reported failure
type EngineFailureError struct {
	Backend  string
	ExitCode int
	Stderr   string
}

func (e *EngineFailureError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s failed with exit status %d", e.Backend, e.ExitCode)
	}
	return fmt.Sprintf("%s failed with exit status %d: %s", e.Backend, e.ExitCode, e.Stderr)
}

// excerpt keeps the tail of s, where engines print the actual error
func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxExcerpt {
		return s
	}
	return "..." + s[len(s)-maxExcerpt:]
}
