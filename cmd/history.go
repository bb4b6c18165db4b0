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
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/vidlingo/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the search log",
	Long: `List, inspect, and clear the SQLite search log. The log is written by
"search" and "serve" when --store (store.path) is set.`,
}

// withStore opens the configured search log for the duration of fn.
func withStore(fn func(ctx context.Context, db *store.Store) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	db, err := a.openStore()
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("search log is disabled: set --store or store.path")
	}
	return fn(context.Background(), db)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, db *store.Store) error {
			records, err := db.ListSearches(ctx, historyLimit)
			if err != nil {
				return fmt.Errorf("failed to list searches: %w", err)
			}

			if len(records) == 0 {
				fmt.Println("No searches in the log.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWHEN\tUSER\tQUERY\tLABEL\tDIRECT\tFINAL\tERROR")
			for _, r := range records {
				query := r.Query
				if len([]rune(query)) > 40 {
					query = string([]rune(query)[:37]) + "..."
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					r.ID, r.Timestamp.Format("2006-01-02 15:04"), r.UserID,
					query, r.QueryLabel, r.DirectCount, r.FinalCount, r.SurfacedError)
			}
			return w.Flush()
		})
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show search log statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, db *store.Store) error {
			stats, err := db.Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}

			fmt.Printf("Total searches:        %d\n", stats.TotalSearches)
			fmt.Printf("Translated queries:    %d\n", stats.Translated)
			fmt.Printf("Direct failures:       %d\n", stats.DirectFailures)
			fmt.Printf("Intelligent failures:  %d\n", stats.IntelligentFailures)
			fmt.Printf("Errors shown to users: %d\n", stats.SurfacedErrors)
			fmt.Printf("Empty results:         %d\n", stats.EmptyResults)
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a search by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, db *store.Store) error {
			if err := db.DeleteSearch(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete search: %w", err)
			}
			fmt.Printf("Deleted search: %s\n", args[0])
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all searches from the log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, db *store.Store) error {
			n, err := db.ClearSearches(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear search log: %w", err)
			}
			fmt.Printf("Cleared %d searches from the log.\n", n)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "Maximum number of searches to list (0 = all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}
