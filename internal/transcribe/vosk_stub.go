//go:build !vosk

package transcribe

import "errors"

// ErrVoskUnavailable is returned when the binary was built without Vosk
var ErrVoskUnavailable = errors.New("vosk support not compiled in (rebuild with -tags vosk)")

// NewVosk reports that Vosk is unavailable in this build
func NewVosk(modelPath string, sampleRate int, language string) (Backend, error) {
	return nil, ErrVoskUnavailable
}
