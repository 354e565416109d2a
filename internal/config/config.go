package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in transcription.backend
const (
	BackendWhisperCLI = "whisper-cli"
	BackendOpenAI     = "openai"
	BackendVosk       = "vosk"
)

// Config represents the application configuration
type Config struct {
	// Hotkey toggles recording, e.g. "cmd+shift+v"
	Hotkey string `yaml:"hotkey"`

	// Audio settings
	Audio struct {
		Device     string `yaml:"device"`
		SampleRate int    `yaml:"sample_rate"`
	} `yaml:"audio"`

	// Transcription settings
	Transcription struct {
		Backend    string        `yaml:"backend"`
		WhisperCLI string        `yaml:"whisper_cli"`
		Model      string        `yaml:"model"`
		ModelsDir  string        `yaml:"models_dir"`
		Language   string        `yaml:"language"`
		Threads    int           `yaml:"threads"`
		Timeout    time.Duration `yaml:"timeout"`
		TempDir    string        `yaml:"temp_dir"`
	} `yaml:"transcription"`

	// OpenAI settings for the hosted backend
	OpenAI struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"openai"`

	// Vosk settings
	Vosk struct {
		Model    string `yaml:"model"`
		Language string `yaml:"language"`
	} `yaml:"vosk"`

	// Delivery settings
	Delivery struct {
		AutoPaste        bool          `yaml:"auto_paste"`
		PasteDelay       time.Duration `yaml:"paste_delay"`
		RestoreClipboard bool          `yaml:"restore_clipboard"`
	} `yaml:"delivery"`

	// Transcript history
	Transcripts struct {
		Enabled bool   `yaml:"enabled"`
		Dir     string `yaml:"dir"`
		Format  string `yaml:"format"`
	} `yaml:"transcripts"`

	// Notifications and audible cues
	Notifications struct {
		Enabled bool `yaml:"enabled"`
		Sounds  struct {
			Enabled bool   `yaml:"enabled"`
			Player  string `yaml:"player"`
			Start   string `yaml:"start"`
			Stop    string `yaml:"stop"`
			Error   string `yaml:"error"`
		} `yaml:"sounds"`
	} `yaml:"notifications"`

	// Log settings
	Log struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"log"`

	// Server settings
	Server struct {
		// GRPCAddr enables the control service when set, e.g. "127.0.0.1:50551"
		GRPCAddr string `yaml:"grpc_addr"`
	} `yaml:"server"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	home, _ := os.UserHomeDir()

	cfg.Hotkey = "ctrl+shift+v"
	if runtime.GOOS == "darwin" {
		cfg.Hotkey = "cmd+shift+v"
	}

	// Audio defaults
	cfg.Audio.Device = ""
	cfg.Audio.SampleRate = 16000

	// Transcription defaults
	cfg.Transcription.Backend = BackendWhisperCLI
	cfg.Transcription.WhisperCLI = "whisper-cli"
	cfg.Transcription.Model = ""
	cfg.Transcription.ModelsDir = filepath.Join(home, ".local", "share", "whisper-cpp", "models")
	cfg.Transcription.Language = "auto"
	cfg.Transcription.Timeout = 60 * time.Second

	// OpenAI defaults
	cfg.OpenAI.Model = "whisper-1"

	// Vosk defaults
	cfg.Vosk.Model = "vosk-model-small-en-us-0.15"
	cfg.Vosk.Language = "en"

	// Delivery defaults
	cfg.Delivery.AutoPaste = true
	cfg.Delivery.PasteDelay = 100 * time.Millisecond

	// Transcript defaults
	cfg.Transcripts.Enabled = true
	cfg.Transcripts.Dir = filepath.Join(home, "Documents", "voice-transcripts")
	cfg.Transcripts.Format = "text"

	// Notification defaults
	cfg.Notifications.Enabled = true
	cfg.Notifications.Sounds.Enabled = true

	// Log defaults
	cfg.Log.Level = "info"
	cfg.Log.Dir = defaultLogDir(home)

	return cfg
}

func defaultLogDir(home string) string {
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "dictate")
	}
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "dictate")
	}
	return filepath.Join(home, ".local", "state", "dictate")
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// UserConfigPath is the per-user config file
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dictaterc")
}

// SystemConfigPath is the system-wide config file
const SystemConfigPath = "/etc/dictate/config.yaml"

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.dictaterc > /etc/dictate/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	for _, path := range []string{UserConfigPath(), SystemConfigPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := Load(path)
		if err != nil {
			// A broken config file is an error, not a reason to fall back
			return nil, err
		}
		return cfg, nil
	}

	return DefaultConfig(), nil
}

// LoadEnvFiles loads .env from the working directory and ~/.dictate.env.
// Variables already set in the environment win.
func LoadEnvFiles() {
	files := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".dictate.env"))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// ApplyEnv overrides config values from DICTATE_* variables and OPENAI_API_KEY
func (c *Config) ApplyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	str("DICTATE_HOTKEY", &c.Hotkey)
	str("DICTATE_DEVICE", &c.Audio.Device)
	str("DICTATE_BACKEND", &c.Transcription.Backend)
	str("DICTATE_WHISPER_CLI", &c.Transcription.WhisperCLI)
	str("DICTATE_MODEL", &c.Transcription.Model)
	str("DICTATE_MODELS_DIR", &c.Transcription.ModelsDir)
	str("DICTATE_LANGUAGE", &c.Transcription.Language)
	str("DICTATE_TRANSCRIPTS_DIR", &c.Transcripts.Dir)
	str("DICTATE_LOG_DIR", &c.Log.Dir)
	str("DICTATE_GRPC_ADDR", &c.Server.GRPCAddr)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &c.OpenAI.BaseURL)

	var errs []error
	if v, ok := os.LookupEnv("DICTATE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DICTATE_TIMEOUT: %w", err))
		} else {
			c.Transcription.Timeout = d
		}
	}
	if v, ok := os.LookupEnv("DICTATE_AUTO_PASTE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DICTATE_AUTO_PASTE: %w", err))
		} else {
			c.Delivery.AutoPaste = b
		}
	}
	return errors.Join(errs...)
}

// Validate checks the configuration for values the program cannot run with
func (c *Config) Validate() error {
	var errs []error

	switch c.Transcription.Backend {
	case BackendWhisperCLI, BackendOpenAI, BackendVosk:
	default:
		errs = append(errs, fmt.Errorf("transcription.backend: unknown backend %q (valid: whisper-cli, openai, vosk)", c.Transcription.Backend))
	}
	if c.Transcription.Timeout <= 0 {
		errs = append(errs, errors.New("transcription.timeout must be positive"))
	}
	if c.Transcription.Threads < 0 {
		errs = append(errs, errors.New("transcription.threads must not be negative"))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, errors.New("audio.sample_rate must be positive"))
	}
	if c.Delivery.PasteDelay < 0 {
		errs = append(errs, errors.New("delivery.paste_delay must not be negative"))
	}
	switch strings.ToLower(c.Transcripts.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("transcripts.format: unknown format %q (valid: text, json)", c.Transcripts.Format))
	}
	if strings.TrimSpace(c.Hotkey) == "" {
		errs = append(errs, errors.New("hotkey must not be empty"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
