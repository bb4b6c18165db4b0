package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/vidlingo/internal/quota"
	"github.com/valpere/vidlingo/internal/video"
)

func TestBoard_AcceptsLatestGenerationOnly(t *testing.T) {
	b := NewBoard()
	b.Begin(1)
	assert.True(t, b.Publish(Snapshot{Generation: 1, Phase: PhaseDirect}))

	b.Begin(2)
	assert.False(t, b.Publish(Snapshot{Generation: 1, Phase: PhaseSettled}))
	assert.True(t, b.Publish(Snapshot{Generation: 2, Phase: PhaseDirect}))

	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(2), cur.Generation)
	assert.Equal(t, PhaseDirect, cur.Phase)
}

func TestBoard_BeginNeverLowers(t *testing.T) {
	b := NewBoard()
	b.Begin(5)
	b.Begin(3)

	assert.Equal(t, uint64(5), b.Latest())
	assert.False(t, b.Publish(Snapshot{Generation: 3}))
}

func TestBoard_EmptyCurrent(t *testing.T) {
	var b Board
	_, ok := b.Current()
	assert.False(t, ok)
}

func TestBoard_StaleSearchDiscarded(t *testing.T) {
	vs := newFakeSearcher().
		on("first", videos("f1"), nil).
		on("second", videos("s1"), nil)
	o := New(vs, &fakeTranslator{}, quota.NewGate(5), Config{}, nil)
	b := NewBoard()

	first, err := o.Run(context.Background(), "first", nil)
	require.NoError(t, err)
	b.Begin(first.Generation)

	second, err := o.Run(context.Background(), "second", nil)
	require.NoError(t, err)
	b.Begin(second.Generation)

	for _, snap := range collect(t, second) {
		assert.True(t, b.Publish(snap))
	}
	for _, snap := range collect(t, first) {
		assert.False(t, b.Publish(snap))
	}

	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, second.ID, cur.SearchID)
	assert.Equal(t, PhaseSettled, cur.Phase)
	assert.Equal(t, []video.Record{{ID: "s1", Title: "title s1", ViewCount: "0"}}, cur.Session.Results)
}
