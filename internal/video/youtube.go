package video

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeService is a Provider backed by the YouTube Data API v3.
type YouTubeService struct {
	svc *youtube.Service
}

// NewYouTubeService creates a Data API client authenticated with apiKey.
// Extra options are appended, which lets tests point it at a fake endpoint.
func NewYouTubeService(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeService, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	return &YouTubeService{svc: svc}, nil
}

func (s *YouTubeService) Name() string {
	return "youtube"
}

func (s *YouTubeService) FindCandidates(ctx context.Context, text string, maxResults int) ([]string, error) {
	resp, err := s.svc.Search.List([]string{"snippet"}).
		Q(text).
		Type("video").
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, s.apiError(err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}
	return ids, nil
}

func (s *YouTubeService) FetchDetails(ctx context.Context, ids []string) ([]Record, error) {
	resp, err := s.svc.Videos.List([]string{"snippet", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, s.apiError(err)
	}

	records := make([]Record, 0, len(resp.Items))
	for _, item := range resp.Items {
		r, err := toRecord(item)
		if err != nil {
			return nil, &SearchError{Provider: s.Name(), Message: defaultMessage, Err: err}
		}
		records = append(records, r)
	}
	return records, nil
}

// toRecord validates a videos.list item and maps it to a Record.
func toRecord(item *youtube.Video) (Record, error) {
	if item == nil || item.Id == "" {
		return Record{}, errors.New("malformed video details: missing id")
	}
	if item.Snippet == nil {
		return Record{}, fmt.Errorf("malformed video details for %s: missing snippet", item.Id)
	}

	r := Record{
		ID:          item.Id,
		Title:       item.Snippet.Title,
		ChannelName: item.Snippet.ChannelTitle,
		ChannelID:   item.Snippet.ChannelId,
		PublishedAt: item.Snippet.PublishedAt,
		ViewCount:   "0",
	}

	if th := item.Snippet.Thumbnails; th != nil {
		switch {
		case th.High != nil && th.High.Url != "":
			r.ThumbnailURL = th.High.Url
		case th.Default != nil:
			r.ThumbnailURL = th.Default.Url
		}
	}

	if item.Statistics != nil {
		r.ViewCount = strconv.FormatUint(item.Statistics.ViewCount, 10)
	}
	return r, nil
}

// apiError keeps the provider's message when the API returned one.
func (s *YouTubeService) apiError(err error) *SearchError {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return &SearchError{Provider: s.Name(), Message: gerr.Message, Err: err}
	}
	return &SearchError{Provider: s.Name(), Message: defaultMessage, Err: err}
}
