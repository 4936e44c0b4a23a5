package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/eventstore"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Since time.Duration `help:"How far back to look" default:"168h"`
	Limit int           `short:"n" help:"Maximum number of builds to show" default:"20"`
	JSON  bool          `help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return ferrors.ConfigError("history.path is not configured").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return h.print(context.Background(), os.Stdout, store)
}

func (h *HistoryCmd) print(ctx context.Context, out io.Writer, store eventstore.Store) error {
	builds, err := eventstore.History(ctx, store, time.Now().Add(-h.Since), h.Limit)
	if err != nil {
		return err
	}
	if h.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(builds)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tKIND\tTRIGGER\tSTATUS\tPOSTS\tSKIPPED\tDURATION\tBUILD")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			b.StartedAt.Local().Format(time.DateTime), b.Kind, b.Trigger, b.Status,
			b.Posts, b.Skipped, b.Duration.Round(time.Millisecond), b.BuildID)
	}
	return tw.Flush()
}
