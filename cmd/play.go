package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/vibeverse/internal/config"
	"github.com/okian/vibeverse/internal/domain/catalog"
	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/pkg/logger"
)

const playProgressInterval = time.Second

func newPlayCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "play <track-id>",
		Short: "Play one track on the local device until it ends or is interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), c.cfg, args[0], cmd.OutOrStdout())
		},
	}
}

func runPlay(ctx context.Context, cfg *config.Config, id string, out io.Writer) error {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	track, err := cat.ByID(id)
	if err != nil {
		return err
	}
	player, err := buildPlayer(ctx, cfg)
	if err != nil {
		return err
	}
	defer player.Close(context.Background())

	snap := player.PlayTrack(ctx, track)
	fmt.Fprintf(out, "%s - %s (%s)\n", track.Artist, track.Name, snap.Mode)

	ticker := time.NewTicker(playProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Named("main").Info(ctx, "playback interrupted", logger.String("track", track.ID))
			return nil
		case <-ticker.C:
			snap = player.Snapshot()
			if snap.Status == model.StatusStopped {
				fmt.Fprintln(out, "\ndone")
				return nil
			}
			fmt.Fprintf(out, "\r%s / %s", snap.Position.Truncate(time.Second), snap.Duration.Truncate(time.Second))
		}
	}
}
