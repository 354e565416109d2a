package audio

import (
	"fmt"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clip is a finalized recording: mono 16-bit PCM at a fixed sample rate
type Clip struct {
	Samples    []int16
	SampleRate int
	Duration   time.Duration
	CapturedAt time.Time
}

// NewClip concatenates float32 chunks in order and converts them to PCM16
func NewClip(chunks [][]float32, sampleRate int, capturedAt time.Time) *Clip {
	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}

	samples := make([]int16, 0, total)
	for _, chunk := range chunks {
		for _, f := range chunk {
			samples = append(samples, floatToPCM16(f))
		}
	}

	return newClipFromPCM(samples, sampleRate, capturedAt)
}

func newClipFromPCM(samples []int16, sampleRate int, capturedAt time.Time) *Clip {
	var duration time.Duration
	if sampleRate > 0 {
		duration = time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)
	}
	return &Clip{
		Samples:    samples,
		SampleRate: sampleRate,
		Duration:   duration,
		CapturedAt: capturedAt,
	}
}

// floatToPCM16 clamps f to [-1, 1] and scales it to int16
func floatToPCM16(f float32) int16 {
	switch {
	case f != f: // NaN
		return 0
	case f > 1:
		f = 1
	case f < -1:
		f = -1
	}
	return int16(f * math.MaxInt16)
}

// WriteWAV writes the clip as a 16-bit mono PCM WAV file
func (c *Clip) WriteWAV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}

	enc := wav.NewEncoder(f, c.SampleRate, 16, 1, 1)
	data := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to finalize wav file: %w", err)
	}
	return f.Close()
}

// Level returns the RMS energy of the clip normalized to [0, 1]
func (c *Clip) Level() float64 {
	if len(c.Samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range c.Samples {
		normalized := float64(s) / 32768.0
		sum += normalized * normalized
	}
	return math.Sqrt(sum / float64(len(c.Samples)))
}

// Release drops the sample storage
func (c *Clip) Release() {
	c.Samples = nil
}
