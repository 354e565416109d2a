package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/emmett/dictate/internal/app"
	"github.com/emmett/dictate/internal/audio"
	"github.com/emmett/dictate/internal/config"
	"github.com/emmett/dictate/internal/delivery"
	"github.com/emmett/dictate/internal/history"
	"github.com/emmett/dictate/internal/input"
	"github.com/emmett/dictate/internal/models"
	"github.com/emmett/dictate/internal/notify"
	"github.com/emmett/dictate/internal/output"
	grpcserver "github.com/emmett/dictate/internal/server/grpc"
	mcpserver "github.com/emmett/dictate/internal/server/mcp"
	"github.com/emmett/dictate/internal/transcribe"
)

// newBackend builds the recognizer selected by transcription.backend
func newBackend(cfg *config.Config, mgr *models.Manager) (transcribe.Backend, error) {
	switch cfg.Transcription.Backend {
	case config.BackendOpenAI:
		return transcribe.NewOpenAI(transcribe.OpenAIConfig{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.OpenAI.Model,
			Language: cfg.Transcription.Language,
		}), nil

	case config.BackendVosk:
		return transcribe.NewVosk(mgr.Resolve(cfg.Vosk.Model), cfg.Audio.SampleRate, cfg.Vosk.Language)

	case config.BackendWhisperCLI, "":
		w := transcribe.NewWhisperCLI(cfg.Transcription.WhisperCLI, mgr.Resolve(cfg.Transcription.Model))
		if cfg.Transcription.Language != "" {
			w.Language = cfg.Transcription.Language
		}
		w.Threads = cfg.Transcription.Threads
		return w, nil

	default:
		return nil, fmt.Errorf("unknown transcription backend %q", cfg.Transcription.Backend)
	}
}

// soundConfig overlays configured sound settings on the platform defaults
func soundConfig(cfg *config.Config) notify.SoundConfig {
	sc := notify.DefaultSoundConfig()
	s := cfg.Notifications.Sounds
	sc.Enabled = s.Enabled
	if s.Player != "" {
		sc.Player = s.Player
	}
	if s.Start != "" {
		sc.Start = s.Start
	}
	if s.Stop != "" {
		sc.Stop = s.Stop
	}
	if s.Error != "" {
		sc.Error = s.Error
	}
	return sc
}

// captureConfig resolves the configured input device
func captureConfig(cfg *config.Config) (audio.CaptureConfig, error) {
	cc := audio.DefaultConfig()
	cc.SampleRate = uint32(cfg.Audio.SampleRate)
	if cfg.Audio.Device == "" {
		return cc, nil
	}

	device, err := app.NewDeviceManager(os.Stderr).SelectDevice(cfg.Audio.Device)
	if err != nil {
		return cc, err
	}
	cc.DeviceID = device.ID
	log.Info().Str("device", device.Name).Msg("using audio device")
	return cc, nil
}

// serve runs the dictation daemon until ctx is cancelled
func serve(ctx context.Context, cfg *config.Config, engine *transcribe.Engine) error {
	transcribe.CleanupStale(cfg.Transcription.TempDir)

	desktop := notify.NewDesktop(cfg.Notifications.Enabled)
	if err := engine.EnsureReady(); err != nil {
		// Reported again on every dictation until fixed
		log.Error().Err(err).Msg("transcription backend not ready")
		desktop.Notify(err.Error(), notify.Error)
	}

	cc, err := captureConfig(cfg)
	if err != nil {
		return err
	}
	capture := audio.NewCapture(audio.NewMalgoSource(), cc)

	var store *history.Store
	if cfg.Transcripts.Enabled {
		store, err = history.NewStore(cfg.Transcripts.Dir, history.Format(cfg.Transcripts.Format))
		if err != nil {
			return err
		}
	}

	console := output.DefaultConsoleOutput()
	if *mode == "mcp" {
		// stdout carries the MCP protocol
		console = output.NewConsoleOutput(output.ConsoleConfig{ShowTimestamp: true, Writer: os.Stderr})
	}

	deps := app.Deps{
		Transcriber: engine,
		Deliverer: delivery.NewClipboardPaster(delivery.Config{
			AutoPaste:        cfg.Delivery.AutoPaste,
			PasteDelay:       cfg.Delivery.PasteDelay,
			RestoreClipboard: cfg.Delivery.RestoreClipboard,
		}),
		Notifier: desktop,
		Sounds:   notify.NewSounds(soundConfig(cfg)),
		Status:   console,
	}
	if store != nil {
		deps.Store = store
	}
	// A recording finished during shutdown still gets transcribed
	dictation := app.NewDictation(context.WithoutCancel(ctx), capture, deps)
	defer dictation.Shutdown()

	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Server.GRPCAddr, err)
		}
		srv := grpcserver.NewServer(cfg.Server.GRPCAddr, dictation)
		go func() {
			if err := srv.Serve(lis); err != nil {
				log.Error().Err(err).Msg("control service stopped")
			}
		}()
		defer srv.Stop()
	}

	switch *mode {
	case "mcp":
		var transcripts mcpserver.Transcripts
		if store != nil {
			transcripts = store
		}
		srv := mcpserver.NewServer(mcpserver.Config{
			ServerName:    "dictate",
			ServerVersion: Version,
		}, dictation, transcripts)
		log.Info().Msg("serving MCP on stdio")
		if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil

	case "hotkey", "":
		hk := input.NewHotkeyManager(func() {
			_, _ = dictation.Toggle()
		})
		if err := hk.Start(ctx, cfg.Hotkey); err != nil {
			return err
		}
		defer hk.Stop()

		console.Info(fmt.Sprintf("Press %s to start/stop recording (Ctrl+C to quit)", cfg.Hotkey))
		console.Status(app.StatusIdle)
		<-ctx.Done()

		log.Info().Msg("shutting down")
		return nil

	default:
		return fmt.Errorf("unknown mode %q (valid: hotkey, mcp)", *mode)
	}
}
