package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	// SampleRate is the number of samples per second (Hz)
	// whisper.cpp expects 16000
	SampleRate uint32

	// Channels is the number of audio channels
	// Only mono is supported by the dictation pipeline
	Channels uint32

	// BufferFrames is the number of frames per device period
	// Smaller = lower latency, higher CPU usage
	BufferFrames uint32

	// DeviceID is the audio device identifier
	// Empty string = use default device
	DeviceID string
}

// DefaultConfig returns the capture configuration used for dictation
func DefaultConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:   16000, // 16kHz is what whisper models are trained on
		Channels:     1,     // Mono
		BufferFrames: 480,   // 30ms at 16kHz
		DeviceID:     "",    // Default device
	}
}

var (
	// ErrDeviceUnavailable is returned when no input stream could be opened
	ErrDeviceUnavailable = errors.New("audio input device unavailable")

	// ErrAlreadyActive is returned by Start while a capture is armed
	ErrAlreadyActive = errors.New("audio capture already active")
)

// Stream is an open input stream
type Stream interface {
	// Stop stops the stream and releases the device
	Stop() error
}

// Source opens input streams.
//
// onData is invoked from the audio thread with mono float32 samples in
// [-1, 1]. The slice passed to onData is owned by the receiver.
type Source interface {
	Open(config CaptureConfig, onData func(chunk []float32)) (Stream, error)
}

// Capture owns one input stream at a time and accumulates the chunks it
// delivers while armed.
type Capture struct {
	source Source
	config CaptureConfig

	mu        sync.Mutex
	armed     bool
	opening   bool
	stream    Stream
	buf       *Buffer
	startedAt time.Time
}

// NewCapture creates a capture that opens streams from source
func NewCapture(source Source, config CaptureConfig) *Capture {
	return &Capture{source: source, config: config}
}

// Start opens the input stream and arms the buffer
func (c *Capture) Start() error {
	c.mu.Lock()
	if c.armed || c.opening {
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	c.opening = true
	c.mu.Unlock()

	// The device may start delivering before Open returns; those chunks are
	// dropped because the capture is not armed yet.
	stream, err := c.source.Open(c.config, c.onData)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.opening = false
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	c.stream = stream
	c.buf = NewBuffer()
	c.startedAt = time.Now()
	c.armed = true
	return nil
}

// Stop disarms the capture, closes the stream and returns the finalized
// clip. It returns nil if capture was not active or no audio was delivered.
func (c *Capture) Stop() *Clip {
	c.mu.Lock()
	if !c.armed {
		c.mu.Unlock()
		return nil
	}
	c.armed = false
	stream, buf, startedAt := c.stream, c.buf, c.startedAt
	c.stream, c.buf = nil, nil
	c.mu.Unlock()

	if err := stream.Stop(); err != nil {
		log.Warn().Err(err).Str("component", "capture").Msg("failed to close input stream")
	}

	if buf.Len() == 0 {
		return nil
	}
	return NewClip(buf.Chunks(), int(c.config.SampleRate), startedAt)
}

// IsActive returns true while the capture is armed
func (c *Capture) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

func (c *Capture) onData(chunk []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed || len(chunk) == 0 {
		return
	}
	c.buf.Append(chunk)
}
