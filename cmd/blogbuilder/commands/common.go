package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/eventstore"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/notify"
)

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command with its global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"site-config.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the whole site once"`
	Watch   WatchCmd   `cmd:"" help:"Build, serve and rebuild on every change"`
	CSS     CSSCmd     `cmd:"" name:"css" help:"Recompile and prune the stylesheet"`
	Scripts ScriptsCmd `cmd:"" help:"Rebundle the scripts"`
	Init    InitCmd    `cmd:"" help:"Write a configuration file and a starter site"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the history store"`
}

// AfterApply runs after flag parsing and installs the default logger.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	setupLogging(os.Stderr, c.Verbose, config.LogFormatText)
	return nil
}

func setupLogging(w io.Writer, verbose bool, format config.LogFormat) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the configuration and switches the log format if the
// file asks for it.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if cfg.Log.Format != config.LogFormatText {
		setupLogging(os.Stderr, c.Verbose, cfg.Log.Format)
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// backends holds the optional history store and notifier.
type backends struct {
	store     *eventstore.SQLiteStore
	publisher notify.Publisher
}

func openBackends(cfg *config.Config) (*backends, error) {
	b := &backends{publisher: notify.NoopPublisher{}}
	if cfg.History.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		b.store = store
	}
	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Build notifications disabled", "url", cfg.Notify.NATSURL, "error", err)
		} else {
			b.publisher = pub
		}
	}
	return b, nil
}

func (b *backends) close() {
	b.publisher.Close()
	if b.store != nil {
		if err := b.store.Close(); err != nil {
			slog.Warn("Failed to close history store", "error", err)
		}
	}
}

func (b *backends) builder(cfg *config.Config, recorder metrics.Recorder) *build.Builder {
	builder := build.NewBuilder(cfg).WithNotifier(b.publisher)
	if recorder != nil {
		builder = builder.WithRecorder(recorder)
	}
	if b.store != nil {
		builder = builder.WithHistory(b.store)
	}
	return builder
}

// runOnce executes one build of kind and waits for its script bundle.
func runOnce(ctx context.Context, out io.Writer, svc build.Service, kind build.Kind) (*build.Report, error) {
	report, err := svc.Run(ctx, build.Request{Kind: kind, Trigger: "cli"})
	if err != nil {
		return report, err
	}
	if report.Scripts != nil {
		if err := report.Scripts.Wait(ctx); err != nil {
			return report, err
		}
	}
	printReport(out, report)
	return report, nil
}

func printReport(out io.Writer, r *build.Report) {
	if r.Kind.Aggregate() {
		_, _ = fmt.Fprintf(out, "%s build %s: %d posts, %d skipped in %s\n", r.Kind, r.Status, r.Posts, len(r.Skipped), r.Duration.Round(time.Millisecond))
		for _, s := range r.Skipped {
			_, _ = fmt.Fprintf(out, "  skipped %s: %v\n", s.File, s.Err)
		}
		return
	}
	_, _ = fmt.Fprintf(out, "%s build %s in %s\n", r.Kind, r.Status, r.Duration.Round(time.Millisecond))
}
