package orchestrator

import (
	"sync"

	"github.com/valpere/vidlingo/internal/video"
)

type Phase string

const (
	PhaseDirect      Phase = "direct"
	PhaseIntelligent Phase = "intelligent"
	PhaseSettled     Phase = "settled"
)

// ErrorInfo is the failure shown to the user when no results can be offered.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session is what the caller sees of one search at a point in time.
type Session struct {
	QueryLabel string         `json:"queryLabel"`
	Results    []video.Record `json:"results"`
	Loading    bool           `json:"loading"`
	Error      *ErrorInfo     `json:"error,omitempty"`
}

// Snapshot is a Session stamped with the search and generation it belongs to.
type Snapshot struct {
	SearchID   string  `json:"searchId"`
	Generation uint64  `json:"generation"`
	Phase      Phase   `json:"phase"`
	Session    Session `json:"session"`
}

// Search is a running orchestrated search.
type Search struct {
	ID         string
	Generation uint64
	Query      string

	updates chan Snapshot
}

// Updates yields the loading, post-direct and settled snapshots in order and
// is closed afterwards.
func (s *Search) Updates() <-chan Snapshot {
	return s.updates
}

func (s *Search) publish(phase Phase, session Session) {
	s.updates <- Snapshot{
		SearchID:   s.ID,
		Generation: s.Generation,
		Phase:      phase,
		Session:    session,
	}
}

// Board holds the latest accepted snapshot for one caller. Publishes from any
// generation other than the most recently begun one are discarded.
type Board struct {
	mu      sync.Mutex
	latest  uint64
	current Snapshot
	has     bool
}

func NewBoard() *Board {
	return &Board{}
}

// Begin marks gen as the newest search for this board. Older generations
// never replace newer ones.
func (b *Board) Begin(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen > b.latest {
		b.latest = gen
	}
}

// Publish stores snap if it belongs to the latest generation and reports
// whether it was accepted.
func (b *Board) Publish(snap Snapshot) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if snap.Generation != b.latest {
		return false
	}
	b.current = snap
	b.has = true
	return true
}

func (b *Board) Current() (Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.has
}

func (b *Board) Latest() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}
