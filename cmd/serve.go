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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/vidlingo/internal/server"
	"github.com/valpere/vidlingo/internal/validator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Serve the search API:

  POST /api/search               progressive search, NDJSON snapshot stream
  GET  /api/session              latest snapshot of the caller's session
  GET  /api/quota                remaining free searches
  GET  /api/stats                translation cache statistics
  POST /api/translate            translate text to English
  POST /api/direct-search        one search on the raw query
  POST /api/intelligent-search   translate, then search once
  POST /api/detect-language      detect the language of text
  GET  /healthz                  liveness

Callers are keyed by the X-Session-ID header. Signed-in users are read from
X-User-ID, X-User-Name, X-User-Avatar and X-User-Tier (pro).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tr, err := a.buildTranslator(ctx)
		if err != nil {
			return err
		}
		det := a.detector()
		tr.SetOutputCheck(validator.New(det).CheckEnglish)

		videos, err := a.buildSearcher(ctx)
		if err != nil {
			return err
		}
		orch, err := a.buildOrchestrator(tr, videos)
		if err != nil {
			return err
		}

		srv := server.New(server.Deps{
			Search:     orch,
			Translator: tr,
			Videos:     videos,
			Detector:   det,
		}, a.log)

		a.log.Infow("starting server",
			"translator", tr.ProviderName(),
			"free_searches", a.cfg.Quota.FreeSearches,
			"search_log", a.cfg.Store.Path != "",
		)
		return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}
