package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.design/x/hotkey/mainthread"

	"github.com/emmett/dictate/internal/app"
	"github.com/emmett/dictate/internal/audio"
	"github.com/emmett/dictate/internal/config"
	"github.com/emmett/dictate/internal/logging"
	"github.com/emmett/dictate/internal/models"
	"github.com/emmett/dictate/internal/transcribe"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

// CLI flags
var (
	configFile    = flag.String("config", "", "Path to configuration file (default: ~/.dictaterc or /etc/dictate/config.yaml)")
	mode          = flag.String("mode", "hotkey", "Operation mode: hotkey, mcp")
	hotkeyFlag    = flag.String("hotkey", "", "Global hotkey that toggles recording, e.g. cmd+shift+v")
	audioDevice   = flag.String("device", "", "Audio input device name or ID (use -list-devices to see available devices)")
	listDevices   = flag.Bool("list-devices", false, "List all available audio input devices")
	listModels    = flag.Bool("list-models", false, "List all available models")
	downloadModel = flag.String("download-model", "", "Download a specific model by name")
	setDefault    = flag.String("set-default", "", "Set a model as the default")
	backendFlag   = flag.String("backend", "", "Transcription backend: whisper-cli, openai, vosk")
	modelName     = flag.String("model", "", "Model name or path (default: "+models.DefaultModelName+")")
	transcribeWAV = flag.String("transcribe", "", "Transcribe a WAV file, print the text and exit")
	grpcAddr      = flag.String("grpc-addr", "", "Serve the control service on this address, e.g. 127.0.0.1:50551")
	logLevel      = flag.String("log-level", "", "Log level: debug, info, warn, error")
	showVersion   = flag.Bool("version", false, "Show version information")
)

func main() {
	// The hotkey backend needs the process main thread on macOS
	mainthread.Init(func() {
		os.Exit(run())
	})
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Dictate v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		return 0
	}

	config.LoadEnvFiles()
	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n", err)
		return 1
	}

	logPath, logCloser, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Dir: cfg.Log.Dir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := models.NewManager(cfg.Transcription.ModelsDir)

	if *listDevices {
		if err := app.NewDeviceManager(os.Stdout).ListDevices(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	mm := app.NewModelManager(mgr, os.Stdout)
	switch {
	case *listModels:
		err = mm.ListModels()
	case *downloadModel != "":
		err = mm.Download(ctx, *downloadModel)
	case *setDefault != "":
		err = mm.SetDefault(*setDefault)
	default:
		err = errNotHandled
	}
	if !errors.Is(err, errNotHandled) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	backend, err := newBackend(cfg, mgr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	engine := transcribe.NewEngine(backend, transcribe.Config{
		TempDir: cfg.Transcription.TempDir,
		Timeout: cfg.Transcription.Timeout,
	})

	if *transcribeWAV != "" {
		return transcribeFile(ctx, engine, *transcribeWAV, cfg.Audio.SampleRate)
	}

	log.Info().
		Str("version", Version).
		Str("backend", backend.Name()).
		Str("log", logPath).
		Msg("dictate starting")

	if err := serve(ctx, cfg, engine); err != nil {
		log.Error().Err(err).Msg("dictate stopped")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

var errNotHandled = errors.New("not handled")

// applyFlags lets explicitly set flags override config values
func applyFlags(cfg *config.Config) {
	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		flagsSet[f.Name] = true
	})

	if flagsSet["hotkey"] {
		cfg.Hotkey = *hotkeyFlag
	}
	if flagsSet["device"] {
		cfg.Audio.Device = *audioDevice
	}
	if flagsSet["backend"] {
		cfg.Transcription.Backend = *backendFlag
	}
	if flagsSet["model"] {
		if cfg.Transcription.Backend == config.BackendVosk {
			cfg.Vosk.Model = *modelName
		} else {
			cfg.Transcription.Model = *modelName
		}
	}
	if flagsSet["grpc-addr"] {
		cfg.Server.GRPCAddr = *grpcAddr
	}
	if flagsSet["log-level"] {
		cfg.Log.Level = *logLevel
	}
}

// transcribeFile runs the engine once over a WAV file
func transcribeFile(ctx context.Context, engine *transcribe.Engine, path string, sampleRate int) int {
	clip, err := audio.DecodeWAV(path, sampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	result, err := engine.Transcribe(ctx, clip)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "Language: %s\n", result.Language)
	fmt.Println(result.Text)
	return 0
}
