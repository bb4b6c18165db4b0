package translator

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/valpere/vidlingo/internal/postprocess"
)

const DefaultGeminiModel = "gemini-2.5-flash"

const geminiPrompt = `Translate the following text to English. Respond with ONLY the translated text, without any introductory phrases, explanations, or quotation marks. If the text is already in English, simply return the original text. Text to translate: "%s"`

// GeminiService translates through the Gemini API.
type GeminiService struct {
	client  *genai.Client
	model   string
	initErr error
}

// GeminiOption customises the underlying genai client.
type GeminiOption func(*genai.ClientConfig)

// WithGeminiBaseURL points the client at a different API host.
func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = baseURL
	}
}

// WithGeminiHTTPClient sets the HTTP client used for API calls.
func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPClient = c
	}
}

// NewGeminiService creates a Gemini-backed service. A client construction
// error is kept and returned from every TranslateToEnglish call.
func NewGeminiService(ctx context.Context, apiKey, model string, opts ...GeminiOption) *GeminiService {
	if model == "" {
		model = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return &GeminiService{
			model:   model,
			initErr: fmt.Errorf("failed to initialize Gemini client: %w", err),
		}
	}
	return &GeminiService{client: client, model: model}
}

func (s *GeminiService) Name() string {
	return "gemini"
}

func (s *GeminiService) TranslateToEnglish(ctx context.Context, text string) (string, error) {
	if s.initErr != nil {
		return "", &Error{Provider: s.Name(), Message: defaultMessage, Err: s.initErr}
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(fmt.Sprintf(geminiPrompt, text)), nil)
	if err != nil {
		return "", &Error{Provider: s.Name(), Message: defaultMessage, Err: fmt.Errorf("generate content: %w", err)}
	}

	out := postprocess.CleanFor(text, resp.Text())
	if out == "" {
		return "", &Error{Provider: s.Name(), Message: defaultMessage, Err: fmt.Errorf("empty response from Gemini")}
	}
	return out, nil
}
