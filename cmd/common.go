/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/valpere/vidlingo/internal/cache"
	"github.com/valpere/vidlingo/internal/config"
	"github.com/valpere/vidlingo/internal/detector"
	"github.com/valpere/vidlingo/internal/logging"
	"github.com/valpere/vidlingo/internal/orchestrator"
	"github.com/valpere/vidlingo/internal/quota"
	"github.com/valpere/vidlingo/internal/store"
	"github.com/valpere/vidlingo/internal/translator"
	"github.com/valpere/vidlingo/internal/video"
)

// app holds the components a command needs. Close releases them.
type app struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	closer []func() error
	det    *detector.Detector
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) Close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		if err := a.closer[i](); err != nil {
			a.log.Warnw("failed to release resource", "error", err)
		}
	}
	_ = a.log.Sync()
}

// detector returns the shared language detector, building it on first use.
func (a *app) detector() *detector.Detector {
	if a.det == nil {
		a.det = detector.New()
	}
	return a.det
}

// buildProvider constructs the translation provider selected in the config.
func (a *app) buildProvider(ctx context.Context) (translator.Provider, error) {
	if err := a.cfg.ValidateTranslator(); err != nil {
		return nil, err
	}

	switch a.cfg.Translator.Provider {
	case "gemini":
		return translator.NewGeminiService(ctx, a.cfg.Gemini.APIKey, a.cfg.Gemini.Model), nil
	case "google":
		svc, err := translator.NewGoogleService(ctx, a.cfg.Google.Credentials)
		if err != nil {
			return nil, err
		}
		a.closer = append(a.closer, svc.Close)
		return svc, nil
	case "ollama":
		svc := translator.NewOllamaTranslator(a.cfg.Ollama.URL, a.cfg.Ollama.Model)
		if err := svc.IsAvailable(ctx); err != nil {
			a.log.Warnw("ollama is not reachable yet", "url", a.cfg.Ollama.URL, "error", err)
		}
		return svc, nil
	case "openrouter":
		return translator.NewOpenRouterService(a.cfg.OpenRouter.APIKey, a.cfg.OpenRouter.URL, a.cfg.OpenRouter.Models), nil
	case "mymemory":
		return translator.NewMyMemoryService(a.cfg.MyMemory.URL, a.cfg.MyMemory.Email, a.detector()), nil
	case "systran":
		return translator.NewSystranService(a.cfg.Systran.APIKey, a.cfg.Systran.URL), nil
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", a.cfg.Translator.Provider)
	}
}

func (a *app) buildTranslator(ctx context.Context) (*translator.Translator, error) {
	provider, err := a.buildProvider(ctx)
	if err != nil {
		return nil, err
	}
	a.log.Debugw("translation provider ready", "provider", provider.Name())
	tr := translator.New(provider, cache.New[string](), a.cfg.Timeouts.Provider, a.log)
	tr.SetRateLimit(a.cfg.Translator.RateLimit, a.cfg.Translator.Burst)
	return tr, nil
}

func (a *app) buildSearcher(ctx context.Context) (*video.Searcher, error) {
	if err := a.cfg.ValidateSearch(); err != nil {
		return nil, err
	}
	yt, err := video.NewYouTubeService(ctx, a.cfg.YouTube.APIKey)
	if err != nil {
		return nil, err
	}
	return video.NewSearcher(yt, a.cfg.YouTube.PageSize, a.cfg.Timeouts.Provider, a.log), nil
}

// openStore opens the search log, or returns nil when it is disabled.
func (a *app) openStore() (*store.Store, error) {
	if a.cfg.Store.Path == "" {
		return nil, nil
	}
	db, err := store.New(a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open search log: %w", err)
	}
	a.closer = append(a.closer, db.Close)
	return db, nil
}

// buildOrchestrator wires the full search pipeline.
func (a *app) buildOrchestrator(tr *translator.Translator, videos *video.Searcher) (*orchestrator.Orchestrator, error) {
	db, err := a.openStore()
	if err != nil {
		return nil, err
	}

	var ocfg orchestrator.Config
	if db != nil {
		ocfg.Recorder = db
	}

	gate := quota.NewGate(a.cfg.Quota.FreeSearches)
	return orchestrator.New(videos, tr, gate, ocfg, a.log), nil
}
