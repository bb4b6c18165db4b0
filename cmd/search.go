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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/vidlingo/internal/identity"
	"github.com/valpere/vidlingo/internal/orchestrator"
	"github.com/valpere/vidlingo/internal/video"
)

var (
	searchPro    bool
	searchUser   string
	searchAsJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Run a progressive search",
	Long: `Run one progressive search and print every stage as it arrives:

  1. loading      the search has started
  2. quick        results for the query exactly as typed
  3. final        results for the English translation of the query

If the translation-assisted stage fails, the quick results are kept. Free
users are limited to quota.free_searches searches per process; --pro lifts
the limit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
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
		videos, err := a.buildSearcher(ctx)
		if err != nil {
			return err
		}
		orch, err := a.buildOrchestrator(tr, videos)
		if err != nil {
			return err
		}

		user := cliUser(searchUser, searchPro)
		search, err := orch.Run(ctx, strings.Join(args, " "), user)
		switch {
		case errors.Is(err, orchestrator.ErrEmptyQuery):
			return fmt.Errorf("search query is required")
		case errors.Is(err, orchestrator.ErrQuotaExceeded):
			fmt.Fprintln(os.Stderr, "You have used all of your free searches. Upgrade to Pro (--pro) for unlimited searches.")
			return err
		case err != nil:
			return err
		}

		out := cmd.OutOrStdout()
		enc := json.NewEncoder(out)
		for snap := range search.Updates() {
			if searchAsJSON {
				if err := enc.Encode(snap); err != nil {
					return fmt.Errorf("failed to encode snapshot: %w", err)
				}
				continue
			}
			if err := printSnapshot(out, snap); err != nil {
				return err
			}
		}

		if !user.IsPro {
			fmt.Fprintf(os.Stderr, "Free searches left: %d\n", orch.RemainingQuota(user))
		}
		return nil
	},
}

func cliUser(id string, pro bool) *identity.User {
	user := identity.Guest("cli")
	if id != "" {
		user = &identity.User{ID: id, Name: id, AvatarURL: identity.DefaultAvatar(id)}
	}
	user.IsPro = pro
	return user
}

func printSnapshot(w io.Writer, snap orchestrator.Snapshot) error {
	s := snap.Session
	switch snap.Phase {
	case orchestrator.PhaseDirect:
		fmt.Fprintln(w, "Searching...")
		return nil
	case orchestrator.PhaseIntelligent:
		fmt.Fprintf(w, "\nQuick results (%d):\n", len(s.Results))
		return printVideos(w, s.Results)
	}

	fmt.Fprintln(w)
	if s.Error != nil {
		fmt.Fprintf(w, "Error: %s\n", s.Error.Message)
		return nil
	}
	if s.QueryLabel != "" {
		fmt.Fprintf(w, "Showing results for: %s\n", s.QueryLabel)
	}
	fmt.Fprintf(w, "Results (%d):\n", len(s.Results))
	return printVideos(w, s.Results)
}

func printVideos(w io.Writer, records []video.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "  no videos found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tCHANNEL\tVIEWS\tUPLOADED\tURL")
	for i, r := range records {
		title := r.Title
		if len([]rune(title)) > 50 {
			title = string([]rune(title)[:47]) + "..."
		}
		uploaded := r.PublishedAt
		if len(uploaded) >= 10 {
			uploaded = uploaded[:10]
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\thttps://www.youtube.com/watch?v=%s\n",
			i+1, title, r.ChannelName, r.ViewCount, uploaded, r.ID)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolVar(&searchPro, "pro", false, "Search as a Pro user (no quota)")
	searchCmd.Flags().StringVar(&searchUser, "user", "", "User id to charge the search to (default: guest)")
	searchCmd.Flags().BoolVar(&searchAsJSON, "json", false, "Print snapshots as NDJSON")
}
