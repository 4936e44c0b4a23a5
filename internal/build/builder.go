package build

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tdewolff/minify/v2"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/css"
	"git.home.luguber.info/inful/blogbuilder/internal/eventstore"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/minifier"
	"git.home.luguber.info/inful/blogbuilder/internal/notify"
	"git.home.luguber.info/inful/blogbuilder/internal/observability"
	"git.home.luguber.info/inful/blogbuilder/internal/page"
	"git.home.luguber.info/inful/blogbuilder/internal/scripts"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// Builder owns the cached templates, the compiled stylesheet and the output
// tree. Every operation runs under one lock.
type Builder struct {
	cfg      *config.Config
	min      *minify.M
	compiler css.Compiler
	dates    DateSource
	recorder metrics.Recorder
	history  eventstore.Store
	notifier notify.Publisher
	now      func() time.Time

	mu    sync.Mutex
	asm   *page.Assembler
	sheet *css.Stylesheet
	// base is the whitelist every aggregate run starts from: seeds, configured
	// extras and whatever the templates and the 404 page use.
	base css.Whitelist
	last *site.BuildState
}

var _ Service = (*Builder)(nil)

// NewBuilder creates a Builder for cfg. With site.gitDates set, post dates
// come from git history when the source tree is inside a repository.
func NewBuilder(cfg *config.Config) *Builder {
	b := &Builder{
		cfg:      cfg,
		min:      minifier.New(),
		compiler: css.NewCompiler(cfg.CSS.Compiler),
		dates:    FileDates{},
		recorder: metrics.NoopRecorder{},
		notifier: notify.NoopPublisher{},
		now:      time.Now,
	}
	if cfg.Site.GitDates {
		gd, err := NewGitDates(cfg.Source)
		if err != nil {
			slog.Warn("Git dates unavailable, using file times", "source", cfg.Source, "error", err)
		} else {
			b.dates = gd
		}
	}
	return b
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithHistory records every run in store.
func (b *Builder) WithHistory(store eventstore.Store) *Builder {
	b.history = store
	return b
}

// WithNotifier publishes successful aggregate runs through p.
func (b *Builder) WithNotifier(p notify.Publisher) *Builder {
	if p != nil {
		b.notifier = p
	}
	return b
}

// WithCompiler replaces the stylesheet compiler.
func (b *Builder) WithCompiler(c css.Compiler) *Builder {
	b.compiler = c
	return b
}

// WithDateSource replaces the source of fragment timestamps.
func (b *Builder) WithDateSource(d DateSource) *Builder {
	b.dates = d
	return b
}

// WithClock replaces the clock (for tests).
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// LastState returns the state of the most recent aggregate run, or nil.
func (b *Builder) LastState() *site.BuildState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Run executes one build operation. Operations never overlap. A successful
// full build returns with its script bundle still running on report.Scripts.
func (b *Builder) Run(ctx context.Context, req Request) (*Report, error) {
	report := newReport(uuid.NewString(), req, b.now())
	ctx = observability.WithBuildID(ctx, report.BuildID)
	ctx = observability.WithKind(ctx, string(req.Kind))
	if req.Trigger != "" {
		ctx = observability.WithTrigger(ctx, req.Trigger)
	}
	b.recordStarted(ctx, report)

	b.mu.Lock()
	err := b.dispatch(ctx, req, report)
	b.mu.Unlock()

	report.finish(b.now(), err)
	if err == nil && req.Kind == KindFull {
		report.Scripts = scripts.Go(context.WithoutCancel(ctx), b.bundleLocked)
	}
	b.recordFinished(ctx, report)
	return report, err
}

func (b *Builder) dispatch(ctx context.Context, req Request, report *Report) error {
	switch req.Kind {
	case KindFull:
		return b.runStages(ctx, report, []stageDef{
			{StageTemplates, b.loadTemplates},
			{StageClean, b.cleanOutput},
			{StageCopyStatic, func(context.Context) error { return b.copyStatic(report) }},
			{StageStyles, b.compileStyles},
			{StageNotFound, func(context.Context) error { return b.writeNotFound(report) }},
			{StagePosts, func(ctx context.Context) error { return b.aggregate(ctx, report) }},
		})
	case KindPosts:
		return b.runStages(ctx, report, []stageDef{
			{StagePrepare, b.prepare},
			{StagePosts, func(ctx context.Context) error { return b.aggregate(ctx, report) }},
		})
	case KindCSS:
		return b.runStages(ctx, report, []stageDef{
			{StagePrepare, b.prepareTemplates},
			{StageStyles, b.compileStyles},
			{StageRescan, func(context.Context) error { return b.refreshStyles(report) }},
		})
	case KindScripts:
		return b.runStages(ctx, report, []stageDef{
			{StagePrepare, b.prepareTemplates},
			{StageScripts, func(ctx context.Context) error { return b.bundle(ctx, report) }},
		})
	case KindNotFound:
		return b.runStages(ctx, report, []stageDef{
			{StagePrepare, b.prepare},
			{StageNotFound, func(context.Context) error { return b.writeNotFound(report) }},
		})
	case KindCopy:
		return b.runStages(ctx, report, []stageDef{
			{StageCopyFile, func(context.Context) error { return b.copyFile(req.Path, report) }},
		})
	case KindRemove:
		return b.runStages(ctx, report, []stageDef{
			{StageRemoveFile, func(context.Context) error { return b.removeFile(req.Path, report) }},
		})
	default:
		return ferrors.ValidationError("unknown build kind").WithContext("kind", string(req.Kind)).Build()
	}
}

// prepare loads templates and compiles the stylesheet when no full build has
// done so yet.
func (b *Builder) prepare(ctx context.Context) error {
	if err := b.prepareTemplates(ctx); err != nil {
		return err
	}
	if b.sheet == nil {
		return b.compileStyles(ctx)
	}
	return nil
}

func (b *Builder) prepareTemplates(ctx context.Context) error {
	if b.asm == nil {
		return b.loadTemplates(ctx)
	}
	return nil
}

func (b *Builder) bundleLocked(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t0 := time.Now()
	err := b.bundle(ctx, nil)
	b.recorder.ObserveStageDuration(string(StageScripts), time.Since(t0))
	if err != nil {
		b.recorder.IncStageResult(string(StageScripts), metrics.ResultFatal)
		observability.ErrorContext(ctx, "Script bundle failed", "error", err)
		return err
	}
	b.recorder.IncStageResult(string(StageScripts), metrics.ResultSuccess)
	observability.DebugContext(ctx, "Script bundle written", "duration", time.Since(t0))
	return nil
}
