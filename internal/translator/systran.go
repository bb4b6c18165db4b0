package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultSystranURL = "https://api-systran-systran-translation-v1.p.rapidapi.com"
	systranHost       = "api-systran-systran-translation-v1.p.rapidapi.com"
)

// SystranService translates through the Systran API on RapidAPI.
type SystranService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewSystranService(apiKey, baseURL string) *SystranService {
	if baseURL == "" {
		baseURL = DefaultSystranURL
	}
	return &SystranService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SystranService) Name() string {
	return "systran"
}

type systranRequest struct {
	Text   []string `json:"text"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

func (s *SystranService) TranslateToEnglish(ctx context.Context, text string) (string, error) {
	if s.apiKey == "" {
		return "", s.fail(fmt.Errorf("Systran API key required"))
	}

	body, err := json.Marshal(systranRequest{
		Text:   []string{text},
		Source: "auto",
		Target: "en",
		Format: "text",
	})
	if err != nil {
		return "", s.fail(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/translation/text/translate", bytes.NewReader(body))
	if err != nil {
		return "", s.fail(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", s.apiKey)
	req.Header.Set("X-RapidAPI-Host", systranHost)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", s.fail(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", s.fail(fmt.Errorf("API returned status %d: %s", resp.StatusCode, payload))
	}

	var out struct {
		Outputs []struct {
			Output string `json:"output"`
		} `json:"outputs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", s.fail(fmt.Errorf("failed to decode response: %w", err))
	}
	if len(out.Outputs) == 0 || out.Outputs[0].Output == "" {
		return "", s.fail(fmt.Errorf("empty translation response"))
	}

	return out.Outputs[0].Output, nil
}

func (s *SystranService) fail(err error) *Error {
	return &Error{Provider: s.Name(), Message: defaultMessage, Err: err}
}
