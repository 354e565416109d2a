package app

import (
	"context"
	"fmt"
	"io"

	"github.com/emmett/dictate/internal/models"
)

// ModelManager prints the model catalogue and drives downloads for the CLI
type ModelManager struct {
	models *models.Manager
	out    io.Writer
}

// NewModelManager creates a ModelManager printing to out
func NewModelManager(mgr *models.Manager, out io.Writer) *ModelManager {
	return &ModelManager{models: mgr, out: out}
}

// ListModels prints every catalogue model with its download status
func (m *ModelManager) ListModels() error {
	fmt.Fprintf(m.out, "Available models (stored in %s):\n\n", m.models.Dir())

	def := m.models.Default()
	for i, model := range m.models.Models() {
		marker := ""
		if model.Name == def {
			marker = " [DEFAULT]"
		}
		fmt.Fprintf(m.out, "%d. %s%s\n", i+1, model.Name, marker)
		fmt.Fprintf(m.out, "   Engine:   %s\n", model.Kind)
		fmt.Fprintf(m.out, "   Language: %s\n", model.Language)
		fmt.Fprintf(m.out, "   Size:     %s\n", model.Size)
		fmt.Fprintf(m.out, "   Info:     %s\n", model.Description)

		downloaded, err := m.models.IsDownloaded(model.Name)
		if err != nil {
			return fmt.Errorf("error checking model %s: %w", model.Name, err)
		}
		if downloaded {
			fmt.Fprintf(m.out, "   Status:   ✓ Downloaded\n")
		} else {
			fmt.Fprintf(m.out, "   Status:   Not downloaded\n")
		}
		fmt.Fprintln(m.out)
	}

	fmt.Fprintln(m.out, "To download a model, use:")
	fmt.Fprintln(m.out, "  dictate -download-model <model-name>")
	return nil
}

// Download fetches a model, printing progress
func (m *ModelManager) Download(ctx context.Context, name string) error {
	model := m.models.Find(name)
	if model == nil {
		return fmt.Errorf("unknown model: %s (use -list-models to see available models)", name)
	}

	downloaded, err := m.models.IsDownloaded(name)
	if err != nil {
		return fmt.Errorf("error checking model: %w", err)
	}
	if downloaded {
		fmt.Fprintf(m.out, "Model '%s' is already downloaded.\n", name)
		fmt.Fprintf(m.out, "Location: %s\n", m.models.Path(name))
		return nil
	}

	fmt.Fprintf(m.out, "Downloading model: %s (%s)\n", model.Name, model.Size)
	err = m.models.Download(ctx, name, func(done, total int64) {
		if total > 0 {
			fmt.Fprintf(m.out, "\rProgress: %.1f%% (%d/%d bytes)", float64(done)/float64(total)*100, done, total)
		} else {
			fmt.Fprintf(m.out, "\rProgress: %d bytes", done)
		}
	})
	fmt.Fprintln(m.out)
	if err != nil {
		return fmt.Errorf("error downloading model: %w", err)
	}

	fmt.Fprintf(m.out, "✓ Model '%s' downloaded to %s\n", name, m.models.Path(name))
	return nil
}

// SetDefault records the default model
func (m *ModelManager) SetDefault(name string) error {
	if err := m.models.SetDefault(name); err != nil {
		return fmt.Errorf("error setting default model: %w", err)
	}
	fmt.Fprintf(m.out, "✓ Default model set to: %s\n", name)

	downloaded, _ := m.models.IsDownloaded(name)
	if !downloaded {
		fmt.Fprintln(m.out, "Note: This model is not yet downloaded.")
		fmt.Fprintf(m.out, "Run 'dictate -download-model %s' to download it.\n", name)
	}
	return nil
}
