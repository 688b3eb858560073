package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/vibeverse/internal/loadtest"
)

func newLoadTestCmd() *cobra.Command {
	cfg := loadtest.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Play sessions against a running server and verify the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadtest.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d sessions accepted, %d players ranked in %s\n",
				stats.SessionsAccepted, stats.SessionsPlayed, stats.RankingsRetrieved, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the service")
	f.IntVar(&cfg.Sessions, "sessions", cfg.Sessions, "number of sessions to play")
	f.IntVar(&cfg.Players, "players", cfg.Players, "number of distinct players")
	f.IntVar(&cfg.Hits, "hits", cfg.Hits, "hits attempted per session")
	f.DurationVar(&cfg.HitInterval, "hit-interval", cfg.HitInterval, "upper bound of the pause between hits")
	f.StringVar(&cfg.Mood, "mood", "", "only play tracks with this mood")
	f.IntVar(&cfg.TopN, "top", cfg.TopN, "leaderboard entries to fetch")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent rank lookups")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.DurationVar(&cfg.Settle, "settle", cfg.Settle, "how long ranks may lag behind accepted results")
	f.StringVar(&cfg.OutputFile, "output", "", "write accepted results to this JSON file")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every session")
	return cmd
}
