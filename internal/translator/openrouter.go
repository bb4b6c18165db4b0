package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/valpere/vidlingo/internal/postprocess"
)

const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

var DefaultOpenRouterModels = []string{
	"google/gemini-2.0-flash-exp:free",
	"qwen/qwen2.5-72b-instruct:free",
	"mistralai/mistral-nemo:free",
	"meta-llama/llama-3.1-8b-instruct:free",
}

const openRouterSystemPrompt = "You are a search assistant. Translate the user's search query to English. " +
	"Only respond with the translation, nothing else. No explanations, no quotes, just the translation. " +
	"If the query is already in English, return it unchanged. Keep markers such as [PH0] exactly as they are."

// OpenRouterService translates through OpenRouter's chat completions API,
// picking one of its models at random for each call.
type OpenRouterService struct {
	apiKey  string
	baseURL string
	models  []string
	client  *http.Client
}

func NewOpenRouterService(apiKey, baseURL string, models []string) *OpenRouterService {
	if baseURL == "" {
		baseURL = DefaultOpenRouterURL
	}
	if len(models) == 0 {
		models = DefaultOpenRouterModels
	}
	return &OpenRouterService{
		apiKey:  apiKey,
		baseURL: baseURL,
		models:  models,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (s *OpenRouterService) Name() string {
	return "openrouter"
}

func (s *OpenRouterService) randomModel() string {
	return s.models[rand.Intn(len(s.models))]
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model     string              `json:"model"`
	Messages  []openRouterMessage `json:"messages"`
	MaxTokens int                 `json:"max_tokens"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *OpenRouterService) TranslateToEnglish(ctx context.Context, text string) (string, error) {
	if s.apiKey == "" {
		return "", s.fail(fmt.Errorf("OpenRouter API key required"))
	}

	model := s.randomModel()
	body, err := json.Marshal(openRouterRequest{
		Model: model,
		Messages: []openRouterMessage{
			{Role: "system", Content: openRouterSystemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens: 256,
	})
	if err != nil {
		return "", s.fail(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", s.fail(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("X-Title", "vidlingo")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", s.fail(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	var out openRouterResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != nil {
			return "", s.fail(fmt.Errorf("API returned status %d: %s", resp.StatusCode, out.Error.Message))
		}
		return "", s.fail(fmt.Errorf("API returned status %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return "", s.fail(fmt.Errorf("failed to decode response: %w", decodeErr))
	}
	if len(out.Choices) == 0 {
		return "", s.fail(fmt.Errorf("empty response from %s", model))
	}

	translated := postprocess.CleanFor(text, out.Choices[0].Message.Content)
	if translated == "" {
		return "", s.fail(fmt.Errorf("empty translation from %s", model))
	}
	return translated, nil
}

func (s *OpenRouterService) fail(err error) *Error {
	return &Error{Provider: s.Name(), Message: defaultMessage, Err: err}
}
