package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/valpere/vidlingo/internal/cache"
	"github.com/valpere/vidlingo/internal/placeholder"
)

// Translator wraps a Provider with the shared translation cache.
//
// Successful translations are cached under the exact input text. Failures
// are never cached, so the next identical request goes back to the provider.
type Translator struct {
	provider Provider
	cache    *cache.Cache[string]
	timeout  time.Duration
	log      *zap.SugaredLogger
	check    func(string) error
	limiter  *rate.Limiter

	group singleflight.Group
}

// New creates a Translator. A zero timeout disables the per-call deadline.
func New(provider Provider, c *cache.Cache[string], timeout time.Duration, log *zap.SugaredLogger) *Translator {
	if c == nil {
		c = cache.New[string]()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Translator{
		provider: provider,
		cache:    c,
		timeout:  timeout,
		log:      log,
	}
}

// Translate returns the English translation of text.
//
// Blank input yields an empty string without calling the provider. Errors
// are always *Error.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	if cached, ok := t.cache.Get(text); ok {
		t.log.Debugw("translation cache hit", "query", text)
		return cached, nil
	}

	// Concurrent misses for the same text share one provider call. The call
	// is detached from any single caller's cancellation and bounded by the
	// adapter timeout; each caller stops waiting when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	ch := t.group.DoChan(text, func() (interface{}, error) {
		return t.fetch(shared, text)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &Error{Provider: t.provider.Name(), Message: defaultMessage, Err: ctx.Err()}
	}
}

// SetOutputCheck installs a check run on every fresh translation. A failed
// check is logged; the translation is still used and cached.
func (t *Translator) SetOutputCheck(check func(string) error) {
	t.check = check
}

// SetRateLimit caps provider calls at perSecond, allowing bursts of burst
// calls. A non-positive perSecond removes the cap. Cache hits are never
// limited.
func (t *Translator) SetRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		t.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// CacheStats exposes the underlying cache counters.
func (t *Translator) CacheStats() cache.Stats {
	return t.cache.Stats()
}

// ProviderName names the configured backend.
func (t *Translator) ProviderName() string {
	return t.provider.Name()
}

func (t *Translator) fetch(ctx context.Context, text string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	masked, tokens := placeholder.Protect(text)
	if len(tokens) > 0 && placeholder.OnlyMarkers(masked) {
		stored, _ := t.cache.Put(text, strings.TrimSpace(text))
		return stored, nil
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			t.log.Warnw("translation rate limited", "provider", t.provider.Name(), "error", err)
			return "", &Error{Provider: t.provider.Name(), Message: defaultMessage, Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	start := time.Now()
	out, err := t.provider.TranslateToEnglish(ctx, masked)
	if err != nil {
		t.log.Warnw("translation provider failed",
			"provider", t.provider.Name(),
			"latency", time.Since(start),
			"error", err,
		)
		var terr *Error
		if errors.As(err, &terr) {
			return "", terr
		}
		return "", &Error{Provider: t.provider.Name(), Message: defaultMessage, Err: err}
	}

	if missing := placeholder.Missing(out, tokens); len(missing) > 0 {
		t.log.Warnw("provider dropped protected tokens", "provider", t.provider.Name(), "tokens", missing)
		out = strings.TrimSpace(out) + " " + strings.Join(missing, " ")
	}
	out = strings.TrimSpace(placeholder.Restore(out, tokens))
	if t.check != nil {
		if err := t.check(out); err != nil {
			t.log.Warnw("suspicious translation", "provider", t.provider.Name(), "error", err)
		}
	}
	stored, _ := t.cache.Put(text, out)

	t.log.Debugw("translated query",
		"provider", t.provider.Name(),
		"latency", time.Since(start),
	)
	return stored, nil
}
