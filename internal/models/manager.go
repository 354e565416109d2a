package models

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Kind is the engine family a model belongs to
type Kind string

const (
	// KindWhisper models are single ggml .bin files for whisper.cpp
	KindWhisper Kind = "whisper"

	// KindVosk models are directories shipped as zip archives
	KindVosk Kind = "vosk"
)

// Model describes a downloadable speech model
type Model struct {
	Name        string
	Kind        Kind
	Language    string
	Size        string
	URL         string
	Description string
}

const whisperBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// AvailableModels is the built-in catalogue
var AvailableModels = []Model{
	{
		Name:        "ggml-tiny.en",
		Kind:        KindWhisper,
		Language:    "en",
		Size:        "75M",
		URL:         whisperBaseURL + "ggml-tiny.en.bin",
		Description: "Tiny English model, fastest",
	},
	{
		Name:        "ggml-base.en",
		Kind:        KindWhisper,
		Language:    "en",
		Size:        "142M",
		URL:         whisperBaseURL + "ggml-base.en.bin",
		Description: "Base English model, good default for dictation",
	},
	{
		Name:        "ggml-base",
		Kind:        KindWhisper,
		Language:    "multilingual",
		Size:        "142M",
		URL:         whisperBaseURL + "ggml-base.bin",
		Description: "Base multilingual model with language detection",
	},
	{
		Name:        "ggml-small",
		Kind:        KindWhisper,
		Language:    "multilingual",
		Size:        "466M",
		URL:         whisperBaseURL + "ggml-small.bin",
		Description: "Small multilingual model, balanced speed and accuracy",
	},
	{
		Name:        "ggml-large-v3",
		Kind:        KindWhisper,
		Language:    "multilingual",
		Size:        "2.9G",
		URL:         whisperBaseURL + "ggml-large-v3.bin",
		Description: "Large multilingual model, most accurate, slow without GPU",
	},
	{
		Name:        "vosk-model-small-en-us-0.15",
		Kind:        KindVosk,
		Language:    "en-US",
		Size:        "40M",
		URL:         "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip",
		Description: "Lightweight Vosk English model (requires a vosk build)",
	},
	{
		Name:        "vosk-model-en-us-0.22-lgraph",
		Kind:        KindVosk,
		Language:    "en-US",
		Size:        "128M",
		URL:         "https://alphacephei.com/vosk/models/vosk-model-en-us-0.22-lgraph.zip",
		Description: "Medium Vosk English model (requires a vosk build)",
	},
}

// DefaultModelName is used when no default has been set
const DefaultModelName = "ggml-base.en"

const defaultMarker = ".default_model"

// DefaultDir returns the directory whisper.cpp models are conventionally kept in
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "whisper-cpp", "models"), nil
}

// Manager finds, downloads and resolves models in one directory
type Manager struct {
	dir       string
	catalogue []Model
	client    *http.Client
}

// NewManager creates a manager for dir using the built-in catalogue
func NewManager(dir string) *Manager {
	return NewManagerWithCatalogue(dir, AvailableModels, http.DefaultClient)
}

// NewManagerWithCatalogue creates a manager with a custom catalogue and client
func NewManagerWithCatalogue(dir string, catalogue []Model, client *http.Client) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	return &Manager{dir: dir, catalogue: catalogue, client: client}
}

// Dir returns the models directory
func (m *Manager) Dir() string {
	return m.dir
}

// Models returns the catalogue
func (m *Manager) Models() []Model {
	return m.catalogue
}

// Find finds a model by name in the catalogue
func (m *Manager) Find(name string) *Model {
	for i := range m.catalogue {
		if m.catalogue[i].Name == name {
			model := m.catalogue[i]
			return &model
		}
	}
	return nil
}

// Path returns where the named model lives once downloaded
func (m *Manager) Path(name string) string {
	if model := m.Find(name); model != nil && model.Kind == KindVosk {
		return filepath.Join(m.dir, name)
	}
	if strings.HasPrefix(name, "vosk-model-") {
		return filepath.Join(m.dir, name)
	}
	return filepath.Join(m.dir, strings.TrimSuffix(name, ".bin")+".bin")
}

// Resolve turns a model name or path into a path. Values that look like
// paths are returned unchanged.
func (m *Manager) Resolve(nameOrPath string) string {
	if nameOrPath == "" {
		nameOrPath = m.Default()
	}
	if filepath.IsAbs(nameOrPath) || strings.ContainsRune(nameOrPath, os.PathSeparator) {
		return nameOrPath
	}
	return m.Path(nameOrPath)
}

// IsDownloaded reports whether the named model is present on disk
func (m *Manager) IsDownloaded(name string) (bool, error) {
	info, err := os.Stat(m.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if model := m.Find(name); model != nil && model.Kind == KindVosk {
		return info.IsDir(), nil
	}
	return !info.IsDir(), nil
}

// Default returns the configured default model name
func (m *Manager) Default() string {
	data, err := os.ReadFile(filepath.Join(m.dir, defaultMarker))
	if err != nil {
		return DefaultModelName
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return DefaultModelName
	}
	return name
}

// SetDefault records name as the default model
func (m *Manager) SetDefault(name string) error {
	if m.Find(name) == nil {
		return fmt.Errorf("unknown model: %s", name)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, defaultMarker), []byte(name), 0o644); err != nil {
		return fmt.Errorf("failed to save default model: %w", err)
	}
	return nil
}

// ListDownloaded lists the catalogue models present on disk
func (m *Manager) ListDownloaded() ([]string, error) {
	var names []string
	for _, model := range m.catalogue {
		ok, err := m.IsDownloaded(model.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, model.Name)
		}
	}
	return names, nil
}

// Download fetches the named model. progress may be nil.
func (m *Manager) Download(ctx context.Context, name string, progress func(downloaded, total int64)) error {
	model := m.Find(name)
	if model == nil {
		return fmt.Errorf("unknown model: %s", name)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	log.Info().Str("component", "models").Str("model", name).Str("size", model.Size).Msg("downloading model")

	part := filepath.Join(m.dir, name+".part")
	defer os.Remove(part)

	if err := m.fetch(ctx, model.URL, part, progress); err != nil {
		return err
	}

	switch model.Kind {
	case KindVosk:
		if err := extractZip(part, m.dir); err != nil {
			return fmt.Errorf("failed to extract model: %w", err)
		}
	default:
		if err := os.Rename(part, m.Path(name)); err != nil {
			return fmt.Errorf("failed to install model: %w", err)
		}
	}

	log.Info().Str("component", "models").Str("model", name).Str("path", m.Path(name)).Msg("model downloaded")
	return nil
}

func (m *Manager) fetch(ctx context.Context, url, dest string, progress func(downloaded, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	total := resp.ContentLength
	var downloaded int64

	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write file: %w", writeErr)
			}
			downloaded += int64(n)
			if progress != nil {
				progress(downloaded, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("download error: %w", err)
		}
	}
	return out.Close()
}

// extractZip extracts a zip file to the specified directory
func extractZip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)

		// ZipSlip
		if !strings.HasPrefix(fpath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", fpath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
