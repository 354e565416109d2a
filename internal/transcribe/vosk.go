//go:build vosk

package transcribe

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/emmett/dictate/internal/audio"
)

// voskChunkSamples is how many samples are fed to the recognizer per call
const voskChunkSamples = 4000

// Vosk recognizes speech in-process with a Vosk model directory
type Vosk struct {
	ModelPath  string
	SampleRate int
	// Language is reported as the detected language; Vosk models are
	// single-language
	Language string

	mu    sync.Mutex
	model *vosk.VoskModel
}

type voskResult struct {
	Text string `json:"text"`
}

// NewVosk creates a Vosk backend
func NewVosk(modelPath string, sampleRate int, language string) (Backend, error) {
	return &Vosk{ModelPath: modelPath, SampleRate: sampleRate, Language: language}, nil
}

// Name returns the backend name
func (v *Vosk) Name() string {
	return "vosk"
}

// Check loads the model
func (v *Vosk) Check() error {
	info, err := os.Stat(v.ModelPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s (download one with: dictate -download-model vosk-model-small-en-us-0.15)", ErrMissingModel, v.ModelPath)
	}
	_, err = v.loadModel()
	return err
}

func (v *Vosk) loadModel() (*vosk.VoskModel, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.model != nil {
		return v.model, nil
	}

	vosk.SetLogLevel(-1)
	model, err := vosk.NewModel(v.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load %s: %v", ErrMissingModel, v.ModelPath, err)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: failed to load %s", ErrMissingModel, v.ModelPath)
	}
	v.model = model
	return model, nil
}

// Recognize decodes the file and feeds it to a fresh recognizer
func (v *Vosk) Recognize(ctx context.Context, wavPath string) (Recognition, error) {
	model, err := v.loadModel()
	if err != nil {
		return Recognition{}, err
	}

	clip, err := audio.DecodeWAV(wavPath, v.SampleRate)
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	recognizer, err := vosk.NewRecognizer(model, float64(clip.SampleRate))
	if err != nil {
		return Recognition{}, fmt.Errorf("failed to create recognizer: %w", err)
	}
	defer recognizer.Free()

	pcm := make([]byte, 0, voskChunkSamples*2)
	for start := 0; start < len(clip.Samples); start += voskChunkSamples {
		if err := ctx.Err(); err != nil {
			return Recognition{}, err
		}
		end := min(start+voskChunkSamples, len(clip.Samples))
		pcm = pcm[:0]
		for _, s := range clip.Samples[start:end] {
			pcm = binary.LittleEndian.AppendUint16(pcm, uint16(s))
		}
		recognizer.AcceptWaveform(pcm)
	}

	var result voskResult
	if err := json.Unmarshal([]byte(recognizer.FinalResult()), &result); err != nil {
		return Recognition{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	return Recognition{Text: result.Text, Language: v.Language}, nil
}

// Close frees the model
func (v *Vosk) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
	return nil
}
