package translator

import (
	"context"
	"fmt"
)

// Provider turns text in any language into English.
//
// Implementations return only the translated text; callers never pass empty
// input.
type Provider interface {
	Name() string
	TranslateToEnglish(ctx context.Context, text string) (string, error)
}

// Error is a failed translation. Message is short and safe to show to users;
// Err keeps the underlying cause for logs.
type Error struct {
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// defaultMessage is what users see when a provider fails.
const defaultMessage = "Failed to translate the search query. Please try again."
