package rebuild

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// Reloader tells connected browsers to reload.
type Reloader interface {
	Broadcast(version string)
}

// Loop is the edit-time rebuild loop: watch the source tree, dispatch the
// builds each change needs and signal a reload once a burst settles.
type Loop struct {
	cfg        *config.Config
	dispatcher *Dispatcher
	reload     *Debouncer
	watcher    *Watcher
	scheduler  *Scheduler
}

// NewLoop wires a watcher on cfg.Source to svc. reloader may be nil.
func NewLoop(cfg *config.Config, svc build.Service, reloader Reloader, recorder metrics.Recorder) (*Loop, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	l := &Loop{cfg: cfg}
	l.reload = NewDebouncer(cfg.Watch.Debounce.Std(), func() {
		if reloader == nil {
			return
		}
		reloader.Broadcast(strconv.FormatInt(time.Now().UnixNano(), 10))
		recorder.IncReloadBroadcast()
	})
	l.dispatcher = NewDispatcher(svc, func(_ *build.Report, err error) {
		if err != nil {
			slog.Warn("Rebuild failed", logfields.Error(err))
		}
		l.reload.Trigger()
	})

	watcher, err := NewWatcher(cfg.Source, cfg.Watch.Ignore)
	if err != nil {
		return nil, err
	}
	l.watcher = watcher
	return l, nil
}

// Dispatcher exposes the loop's dispatcher, e.g. for manual rebuilds.
func (l *Loop) Dispatcher() *Dispatcher { return l.dispatcher }

// Handle classifies one change and submits the build it needs.
func (l *Loop) Handle(ctx context.Context, ev Event) {
	req, ok := Classify(l.cfg, ev)
	if !ok {
		slog.Debug("Change needs no rebuild", logfields.Path(ev.Path), logfields.Op(string(ev.Op)))
		return
	}
	l.dispatcher.Submit(ctx, req)
}

// Run blocks until ctx is done, then waits for in-flight builds.
func (l *Loop) Run(ctx context.Context) error {
	if every := l.cfg.Watch.RebuildEvery.Std(); every > 0 {
		s, err := NewScheduler(every, func() {
			l.dispatcher.Submit(ctx, build.Request{Kind: build.KindFull, Trigger: scheduleName})
		})
		if err != nil {
			return err
		}
		l.scheduler = s
		s.Start()
	}

	slog.Info("Watching for changes", logfields.Path(l.cfg.Source))
	err := l.watcher.Run(ctx, func(ev Event) { l.Handle(ctx, ev) })

	if l.scheduler != nil {
		if serr := l.scheduler.Stop(); serr != nil {
			slog.Warn("Scheduler shutdown failed", logfields.Error(serr))
		}
	}
	_ = l.watcher.Close()
	l.dispatcher.Wait()
	l.reload.Stop()
	return err
}
