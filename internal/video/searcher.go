package video

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultPageSize is the number of candidates requested per search.
const DefaultPageSize = 15

// Searcher runs a two-step search against a Provider: candidate ids first,
// then details for exactly those ids, returned in candidate order.
type Searcher struct {
	provider Provider
	pageSize int
	timeout  time.Duration
	log      *zap.SugaredLogger
}

// NewSearcher creates a Searcher. pageSize <= 0 selects DefaultPageSize; a
// zero timeout disables the per-call deadline.
func NewSearcher(provider Provider, pageSize int, timeout time.Duration, log *zap.SugaredLogger) *Searcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Searcher{
		provider: provider,
		pageSize: pageSize,
		timeout:  timeout,
		log:      log,
	}
}

// Search returns the records matching text. Blank text returns an empty list
// without calling the provider. Errors are always *SearchError.
func (s *Searcher) Search(ctx context.Context, text string) ([]Record, error) {
	if strings.TrimSpace(text) == "" {
		return []Record{}, nil
	}

	ids, err := s.findCandidates(ctx, text)
	if err != nil {
		return nil, s.wrap("find candidates", err)
	}
	if len(ids) == 0 {
		return []Record{}, nil
	}

	details, err := s.fetchDetails(ctx, ids)
	if err != nil {
		return nil, s.wrap("fetch details", err)
	}

	byID := make(map[string]Record, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			records = append(records, r)
		}
	}

	if len(records) < len(ids) {
		s.log.Debugw("provider returned fewer details than candidates",
			"candidates", len(ids),
			"details", len(records),
		)
	}
	return records, nil
}

func (s *Searcher) findCandidates(ctx context.Context, text string) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.provider.FindCandidates(ctx, text, s.pageSize)
}

func (s *Searcher) fetchDetails(ctx context.Context, ids []string) ([]Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.provider.FetchDetails(ctx, ids)
}

func (s *Searcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

func (s *Searcher) wrap(step string, err error) *SearchError {
	s.log.Warnw("video search failed", "provider", s.provider.Name(), "step", step, "error", err)

	var serr *SearchError
	if errors.As(err, &serr) {
		return serr
	}
	return &SearchError{Provider: s.provider.Name(), Message: defaultMessage, Err: err}
}
