// Package video searches a video catalogue and normalises the results.
package video

import (
	"context"
	"fmt"
)

// Record is a single search hit. It is passed through from the provider
// unchanged apart from field defaults; ID is its only identity.
type Record struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelName  string `json:"channelName"`
	ChannelID    string `json:"channelId"`
	ThumbnailURL string `json:"thumbnailUrl"`
	ViewCount    string `json:"views"`
	PublishedAt  string `json:"uploadedAt"`
}

// Provider is the backing video catalogue.
type Provider interface {
	Name() string
	// FindCandidates returns up to maxResults video ids in ranked order.
	FindCandidates(ctx context.Context, text string, maxResults int) ([]string, error)
	// FetchDetails returns full records for ids. Order is not guaranteed.
	FetchDetails(ctx context.Context, ids []string) ([]Record, error)
}

// SearchError is a failed search. Message is the provider's human-readable
// message when one was available and a generic message otherwise.
type SearchError struct {
	Provider string
	Message  string
	Err      error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

const defaultMessage = "Failed to perform the search. Please check your connection and try again."
