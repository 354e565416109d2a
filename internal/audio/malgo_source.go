package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoSource opens capture streams with malgo
type MalgoSource struct{}

// NewMalgoSource creates a malgo-backed Source
func NewMalgoSource() *MalgoSource {
	return &MalgoSource{}
}

// Open initializes a malgo context and capture device and starts it
func (MalgoSource) Open(config CaptureConfig, onData func(chunk []float32)) (Stream, error) {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = config.Channels
	deviceConfig.SampleRate = config.SampleRate
	deviceConfig.PeriodSizeInFrames = config.BufferFrames

	if config.DeviceID != "" {
		infos, err := malgoCtx.Devices(malgo.Capture)
		if err != nil {
			freeContext(malgoCtx)
			return nil, fmt.Errorf("failed to enumerate devices: %w", err)
		}
		idx, err := deviceIndex(config.DeviceID, len(infos))
		if err != nil {
			freeContext(malgoCtx)
			return nil, err
		}
		deviceConfig.Capture.DeviceID = infos[idx].ID.Pointer()
	}

	channels := int(config.Channels)
	if channels < 1 {
		channels = 1
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, framecount uint32) {
			onData(decodeF32(pInputSamples, channels, int(framecount)))
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		freeContext(malgoCtx)
		return nil, fmt.Errorf("failed to initialize device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		freeContext(malgoCtx)
		return nil, fmt.Errorf("failed to start device: %w", err)
	}

	return &malgoStream{ctx: malgoCtx, device: device}, nil
}

type malgoStream struct {
	once   sync.Once
	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

// Stop stops the device and frees the malgo context. Safe to call twice.
func (s *malgoStream) Stop() error {
	var err error
	s.once.Do(func() {
		if stopErr := s.device.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop device: %w", stopErr)
		}
		s.device.Uninit()
		freeContext(s.ctx)
	})
	return err
}

func freeContext(ctx *malgo.AllocatedContext) {
	_ = ctx.Uninit()
	ctx.Free()
}

// decodeF32 converts interleaved little-endian float32 frames into a fresh
// mono slice, averaging channels when more than one is delivered.
func decodeF32(data []byte, channels, frames int) []float32 {
	if limit := len(data) / (4 * channels); frames > limit {
		frames = limit
	}
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 4
			sum += math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		}
		out[i] = sum / float32(channels)
	}
	return out
}
