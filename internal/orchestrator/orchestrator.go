// Package orchestrator runs progressive searches: a fast direct search on the
// raw query followed by a translation-assisted search that silently upgrades
// the results.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/vidlingo/internal"
	"github.com/valpere/vidlingo/internal/identity"
	"github.com/valpere/vidlingo/internal/quota"
	"github.com/valpere/vidlingo/internal/translator"
	"github.com/valpere/vidlingo/internal/video"
)

var (
	// ErrEmptyQuery is returned by Run for a blank query. No stream is produced.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrQuotaExceeded is returned by Run when a free user has no searches left.
	ErrQuotaExceeded = errors.New("free search quota exhausted")
)

const (
	KindTranslation = "translation"
	KindSearch      = "search"

	genericMessage = "Something went wrong. Please try again."

	// one snapshot per phase
	snapshotsPerSearch = 3

	defaultRecordTimeout = 5 * time.Second
)

// VideoSearcher finds videos for a text query.
type VideoSearcher interface {
	Search(ctx context.Context, text string) ([]video.Record, error)
}

// Translator turns a query into English.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Recorder receives a summary of every settled search.
type Recorder interface {
	SaveSearch(ctx context.Context, rec internal.SearchRecord) error
}

type Config struct {
	Recorder      Recorder
	RecordTimeout time.Duration
}

type Orchestrator struct {
	videos     VideoSearcher
	translator Translator
	gate       *quota.Gate
	config     Config
	log        *zap.SugaredLogger
	generation atomic.Uint64
}

func New(videos VideoSearcher, tr Translator, gate *quota.Gate, cfg Config, log *zap.SugaredLogger) *Orchestrator {
	if gate == nil {
		gate = quota.NewGate(quota.DefaultFreeSearches)
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = defaultRecordTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		videos:     videos,
		translator: tr,
		gate:       gate,
		config:     cfg,
		log:        log,
	}
}

// Run starts an orchestrated search for user. The returned Search already
// holds the initial loading snapshot; the rest arrive as the phases finish.
func (o *Orchestrator) Run(ctx context.Context, query string, user *identity.User) (*Search, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if o.gate.TryAcquire(user) == quota.Blocked {
		o.log.Infow("search blocked by quota", "user", userID(user))
		return nil, ErrQuotaExceeded
	}

	s := &Search{
		ID:         uuid.NewString(),
		Generation: o.generation.Add(1),
		Query:      query,
		updates:    make(chan Snapshot, snapshotsPerSearch),
	}
	s.publish(PhaseDirect, Session{Loading: true, Results: []video.Record{}})

	go o.run(ctx, s, user)
	return s, nil
}

// RemainingQuota returns how many free searches user has left.
func (o *Orchestrator) RemainingQuota(user *identity.User) int {
	return o.gate.Remaining(user)
}

// QuotaState returns user's quota including the unlimited flag.
func (o *Orchestrator) QuotaState(user *identity.User) quota.State {
	return o.gate.State(user)
}

func (o *Orchestrator) run(ctx context.Context, s *Search, user *identity.User) {
	defer close(s.updates)

	rec := internal.SearchRecord{
		ID:        s.ID,
		UserID:    userID(user),
		Query:     s.Query,
		Timestamp: time.Now(),
	}

	direct, err := o.videos.Search(ctx, s.Query)
	if err != nil {
		o.log.Warnw("direct search failed", "search", s.ID, "error", err)
		rec.DirectError = messageOf(err)
		direct = nil
	} else {
		o.log.Debugw("direct search finished", "search", s.ID, "results", len(direct))
	}
	hasDirect := len(direct) > 0
	rec.DirectCount = len(direct)

	session := Session{Results: clone(direct)}
	s.publish(PhaseIntelligent, session)

	o.gate.Consume(user)

	label, results, failure := o.intelligent(ctx, s)
	switch {
	case failure == nil:
		session.QueryLabel = label
		session.Results = results
		o.log.Debugw("intelligent search finished", "search", s.ID, "label", label, "results", len(results))
	case hasDirect:
		rec.IntelligentError = failure.Message
		o.log.Infow("intelligent search failed, keeping direct results",
			"search", s.ID, "kind", failure.Kind, "direct", len(direct))
	default:
		rec.IntelligentError = failure.Message
		rec.SurfacedError = failure.Message
		session.Error = failure
		session.Results = []video.Record{}
		o.log.Warnw("search failed", "search", s.ID, "kind", failure.Kind, "message", failure.Message)
	}

	rec.QueryLabel = session.QueryLabel
	rec.FinalCount = len(session.Results)
	s.publish(PhaseSettled, session)

	o.record(ctx, rec)
}

func (o *Orchestrator) intelligent(ctx context.Context, s *Search) (string, []video.Record, *ErrorInfo) {
	translated, err := o.translator.Translate(ctx, s.Query)
	if err != nil {
		o.log.Debugw("translation failed", "search", s.ID, "error", err)
		return "", nil, &ErrorInfo{Kind: KindTranslation, Message: messageOf(err)}
	}

	results, err := o.videos.Search(ctx, translated)
	if err != nil {
		o.log.Debugw("intelligent search failed", "search", s.ID, "error", err)
		return "", nil, &ErrorInfo{Kind: KindSearch, Message: messageOf(err)}
	}

	return queryLabel(s.Query, translated), clone(results), nil
}

func (o *Orchestrator) record(ctx context.Context, rec internal.SearchRecord) {
	if o.config.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.RecordTimeout)
	defer cancel()

	if err := o.config.Recorder.SaveSearch(ctx, rec); err != nil {
		o.log.Errorw("failed to record search", "search", rec.ID, "error", err)
	}
}

// queryLabel is the "showing results for" annotation: empty when the
// translation is a no-op.
func queryLabel(query, translated string) string {
	if translated == "" || strings.EqualFold(translated, query) {
		return ""
	}
	return translated
}

func messageOf(err error) string {
	var te *translator.Error
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	var se *video.SearchError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return genericMessage
}

func clone(records []video.Record) []video.Record {
	out := make([]video.Record, len(records))
	copy(out, records)
	return out
}

func userID(user *identity.User) string {
	if user == nil {
		return identity.Guest("").ID
	}
	return user.ID
}
