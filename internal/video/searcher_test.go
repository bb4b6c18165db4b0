package video

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	candidatesFunc func(ctx context.Context, text string, max int) ([]string, error)
	detailsFunc    func(ctx context.Context, ids []string) ([]Record, error)
	candidateCalls atomic.Int32
	detailCalls    atomic.Int32
	lastMax        atomic.Int32
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) FindCandidates(ctx context.Context, text string, max int) ([]string, error) {
	m.candidateCalls.Add(1)
	m.lastMax.Store(int32(max))
	if m.candidatesFunc != nil {
		return m.candidatesFunc(ctx, text, max)
	}
	return []string{"a", "b"}, nil
}

func (m *mockProvider) FetchDetails(ctx context.Context, ids []string) ([]Record, error) {
	m.detailCalls.Add(1)
	if m.detailsFunc != nil {
		return m.detailsFunc(ctx, ids)
	}
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, Record{ID: id, Title: "video " + id, ViewCount: "1"})
	}
	return out, nil
}

func TestSearcher_BlankTextSkipsProvider(t *testing.T) {
	p := &mockProvider{}
	s := NewSearcher(p, 0, time.Second, nil)

	records, err := s.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Equal(t, int32(0), p.candidateCalls.Load())
}

func TestSearcher_DefaultPageSize(t *testing.T) {
	p := &mockProvider{}
	s := NewSearcher(p, 0, time.Second, nil)

	_, err := s.Search(context.Background(), "soleil")
	require.NoError(t, err)
	assert.Equal(t, int32(DefaultPageSize), p.lastMax.Load())
}

func TestSearcher_NoCandidatesSkipsDetails(t *testing.T) {
	p := &mockProvider{candidatesFunc: func(ctx context.Context, text string, max int) ([]string, error) {
		return nil, nil
	}}
	s := NewSearcher(p, 15, time.Second, nil)

	records, err := s.Search(context.Background(), "zzzzqqq")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int32(0), p.detailCalls.Load())
}

func TestSearcher_PreservesCandidateOrder(t *testing.T) {
	p := &mockProvider{
		candidatesFunc: func(ctx context.Context, text string, max int) ([]string, error) {
			return []string{"c", "a", "b"}, nil
		},
		detailsFunc: func(ctx context.Context, ids []string) ([]Record, error) {
			return []Record{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil
		},
	}
	s := NewSearcher(p, 15, time.Second, nil)

	records, err := s.Search(context.Background(), "sun")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "a", records[1].ID)
	assert.Equal(t, "b", records[2].ID)
}

func TestSearcher_DropsIDsWithoutDetails(t *testing.T) {
	p := &mockProvider{
		candidatesFunc: func(ctx context.Context, text string, max int) ([]string, error) {
			return []string{"a", "gone", "b"}, nil
		},
		detailsFunc: func(ctx context.Context, ids []string) ([]Record, error) {
			return []Record{{ID: "b"}, {ID: "a"}}, nil
		},
	}
	s := NewSearcher(p, 15, time.Second, nil)

	records, err := s.Search(context.Background(), "sun")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
}

func TestSearcher_CandidateError(t *testing.T) {
	p := &mockProvider{candidatesFunc: func(ctx context.Context, text string, max int) ([]string, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	s := NewSearcher(p, 15, time.Second, nil)

	_, err := s.Search(context.Background(), "sun")

	var serr *SearchError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, defaultMessage, serr.Message)
	assert.Equal(t, int32(0), p.detailCalls.Load())
}

func TestSearcher_DetailErrorKeepsProviderMessage(t *testing.T) {
	p := &mockProvider{detailsFunc: func(ctx context.Context, ids []string) ([]Record, error) {
		return nil, &SearchError{Provider: "mock", Message: "The request cannot be completed because you have exceeded your quota."}
	}}
	s := NewSearcher(p, 15, time.Second, nil)

	_, err := s.Search(context.Background(), "sun")

	var serr *SearchError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Message, "exceeded your quota")
}

func TestSearcher_Timeout(t *testing.T) {
	p := &mockProvider{candidatesFunc: func(ctx context.Context, text string, max int) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	s := NewSearcher(p, 15, 20*time.Millisecond, nil)

	_, err := s.Search(context.Background(), "sun")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
