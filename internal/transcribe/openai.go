package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI transcribes through the hosted Whisper API
type OpenAI struct {
	client *openai.Client
	apiKey string
	model  string
	// language hint, empty for detection
	language string
}

// OpenAIConfig holds settings for the hosted backend
type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// NewOpenAI creates a hosted backend. An empty model selects whisper-1.
func NewOpenAI(config OpenAIConfig) *OpenAI {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	model := config.Model
	if model == "" {
		model = openai.Whisper1
	}
	language := config.Language
	if language == "auto" {
		language = ""
	}
	return &OpenAI{
		client:   openai.NewClientWithConfig(clientConfig),
		apiKey:   config.APIKey,
		model:    model,
		language: language,
	}
}

// Name returns the backend name
func (o *OpenAI) Name() string {
	return "openai"
}

// Check verifies an API key is configured
func (o *OpenAI) Check() error {
	if strings.TrimSpace(o.apiKey) == "" {
		return fmt.Errorf("%w: set OPENAI_API_KEY or openai.api_key", ErrMissingCredentials)
	}
	return nil
}

// Recognize uploads the file and requests a verbose response, which carries
// the detected language
func (o *OpenAI) Recognize(ctx context.Context, wavPath string) (Recognition, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: wavPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: o.language,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Recognition{}, ctx.Err()
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return Recognition{}, &EngineFailureError{
				Backend:  o.Name(),
				ExitCode: apiErr.HTTPStatusCode,
				Stderr:   excerpt(apiErr.Message),
			}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return Recognition{}, &EngineFailureError{
				Backend:  o.Name(),
				ExitCode: reqErr.HTTPStatusCode,
				Stderr:   excerpt(reqErr.Error()),
			}
		}
		return Recognition{}, fmt.Errorf("openai transcription failed: %w", err)
	}

	return Recognition{
		Text:     resp.Text,
		Language: languageCode(resp.Language),
	}, nil
}

// languageNames maps the names returned by the hosted API to ISO codes
var languageNames = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"russian":    "ru",
	"polish":     "pl",
	"ukrainian":  "uk",
	"turkish":    "tr",
	"arabic":     "ar",
	"hindi":      "hi",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"swedish":    "sv",
	"norwegian":  "no",
	"danish":     "da",
	"finnish":    "fi",
	"greek":      "el",
	"czech":      "cs",
	"hebrew":     "he",
	"vietnamese": "vi",
	"indonesian": "id",
}

func languageCode(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return UnknownLanguage
	}
	if code, ok := languageNames[name]; ok {
		return code
	}
	if languageCodePattern.MatchString(name) {
		return name
	}
	return UnknownLanguage
}
