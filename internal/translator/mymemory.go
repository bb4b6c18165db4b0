package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const DefaultMyMemoryURL = "https://api.mymemory.translated.net"

// SourceDetector names the language of a text as an ISO 639-1 code.
type SourceDetector interface {
	Detect(text string) (string, bool)
}

// MyMemoryService translates through the free MyMemory API. MyMemory needs
// an explicit source language, which is detected locally.
type MyMemoryService struct {
	baseURL  string
	email    string
	detector SourceDetector
	client   *http.Client
}

func NewMyMemoryService(baseURL, email string, detector SourceDetector) *MyMemoryService {
	if baseURL == "" {
		baseURL = DefaultMyMemoryURL
	}
	return &MyMemoryService{
		baseURL:  baseURL,
		email:    email,
		detector: detector,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}

func (s *MyMemoryService) TranslateToEnglish(ctx context.Context, text string) (string, error) {
	source, ok := s.detector.Detect(text)
	if !ok {
		return "", s.fail(fmt.Errorf("could not detect source language"))
	}
	if source == "en" {
		return text, nil
	}

	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", source+"|en")
	if s.email != "" {
		q.Set("de", s.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/get?"+q.Encode(), nil)
	if err != nil {
		return "", s.fail(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", s.fail(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	var out myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", s.fail(fmt.Errorf("failed to decode response: %w", err))
	}
	if out.ResponseStatus.String() != "200" {
		return "", s.fail(fmt.Errorf("API error: %s (%s)", out.ResponseDetails, out.ResponseStatus))
	}
	if out.ResponseData.TranslatedText == "" {
		return "", s.fail(fmt.Errorf("empty translation response"))
	}

	return out.ResponseData.TranslatedText, nil
}

func (s *MyMemoryService) fail(err error) *Error {
	return &Error{Provider: s.Name(), Message: defaultMessage, Err: err}
}
