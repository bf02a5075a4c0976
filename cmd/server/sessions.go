package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/session"
	"github.com/ashureev/c2h-ai/internal/store"
)

func sessionsCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored chat sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			blobs, err := store.NewSQLite(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}
			defer blobs.Close()

			return listSessions(context.Background(), os.Stdout, blobs, owner, logger)
		},
	}

	cmd.Flags().StringVar(&owner, "device", "", "Only list sessions of this device id")
	return cmd
}

// listSessions prints the stored sessions of owner, or of every device when
// owner is empty.
func listSessions(ctx context.Context, w io.Writer, blobs store.BlobStore, owner string, logger *slog.Logger) error {
	// Listing never talks to the model, so no backend is configured.
	reg := session.NewRegistry(blobs, completion.NewWithBackend(nil, completion.WithLogger(logger)), logger, nil)
	defer reg.Close(ctx)

	owners := []string{owner}
	if owner == "" {
		var err error
		if owners, err = reg.Owners(ctx); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OWNER\tSESSION\tTITLE\tMESSAGES\tACTIVE")
	for _, o := range owners {
		s, err := reg.Store(ctx, o)
		if err != nil {
			return err
		}
		active := s.ActiveID()
		for _, cs := range s.Sessions() {
			mark := ""
			if cs.ID == active {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", o, cs.ID, cs.Title, len(cs.Messages), mark)
		}
	}
	return tw.Flush()
}
