package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/devserver"
	"git.home.luguber.info/inful/blogbuilder/internal/editor"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/rebuild"
)

// WatchCmd implements the 'watch' command: an initial full build, the dev
// server and the rebuild loop.
type WatchCmd struct {
	Port    int  `short:"p" help:"Override server.port from the configuration"`
	NoBuild bool `name:"no-build" help:"Skip the initial full build"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if w.Port != 0 {
		cfg.Server.Port = w.Port
	}

	ctx, cancel := signalContext()
	defer cancel()

	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.close()

	reg := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	builder := b.builder(cfg, recorder)

	if !w.NoBuild {
		if _, err := runOnce(ctx, os.Stdout, builder, build.KindFull); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("Initial build failed, serving the previous output", "error", err)
		}
	}

	staging := &editor.Staging{Dir: cfg.Editor.Staging}
	srv := devserver.New(cfg).
		WithMetrics(reg).
		WithEditor(editor.NewHandlers(editor.NewSaver(cfg, staging), staging))

	loop, err := rebuild.NewLoop(cfg, builder, srv, recorder)
	if err != nil {
		return err
	}
	return serveAndWatch(ctx, cancel, srv.Run, loop.Run)
}

// serveAndWatch runs every task until the first one stops, then cancels the
// rest and waits for them.
func serveAndWatch(ctx context.Context, cancel context.CancelFunc, tasks ...func(context.Context) error) error {
	errCh := make(chan error, len(tasks))
	for _, task := range tasks {
		go func() { errCh <- task(ctx) }()
	}
	errs := []error{<-errCh}
	cancel()
	for range len(tasks) - 1 {
		errs = append(errs, <-errCh)
	}
	return errors.Join(errs...)
}
