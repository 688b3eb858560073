package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/vibeverse/internal/domain/catalog"
	"github.com/okian/vibeverse/internal/domain/model"
)

func newTracksCmd(c *cli) *cobra.Command {
	var mood string
	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "List the track catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.Load(c.cfg.CatalogFile)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}
			tracks := cat.All()
			if m := strings.TrimSpace(mood); m != "" {
				tracks = cat.ByMood(m)
			}
			return printTracks(cmd.OutOrStdout(), tracks)
		},
	}
	cmd.Flags().StringVar(&mood, "mood", "", "only list tracks with this mood")
	return cmd
}

func printTracks(w io.Writer, tracks []model.Track) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMOOD\tBPM\tLENGTH\tARTIST\tNAME")
	for _, t := range tracks {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%s\t%s\t%s\n", t.ID, t.Mood, t.BPM, t.NominalDuration(), t.Artist, t.Name)
	}
	return tw.Flush()
}
