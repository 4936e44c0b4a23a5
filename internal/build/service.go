package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/scripts"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// Service executes build requests. Builder is the only implementation; the
// rebuild dispatcher depends on this interface so it can be tested alone.
type Service interface {
	Run(ctx context.Context, req Request) (*Report, error)
}

// Kind identifies one build operation.
type Kind string

const (
	// KindFull rebuilds the whole site and reloads templates.
	KindFull Kind = "full"
	// KindPosts re-aggregates every post with the cached templates.
	KindPosts Kind = "posts"
	// KindCSS recompiles the stylesheet and re-derives its whitelist.
	KindCSS Kind = "css"
	// KindScripts rebuilds the script bundle.
	KindScripts Kind = "scripts"
	// KindNotFound re-renders the 404 page.
	KindNotFound Kind = "notfound"
	// KindCopy mirrors one static file into the output tree.
	KindCopy Kind = "copy"
	// KindRemove deletes the mirror of one static file.
	KindRemove Kind = "remove"
)

// Aggregate reports whether the kind regenerates the post set.
func (k Kind) Aggregate() bool { return k == KindFull || k == KindPosts }

// Request describes one build operation.
type Request struct {
	Kind Kind
	// Trigger is the changed path that caused the request, empty for manual runs.
	Trigger string
	// Path is the source file for KindCopy and KindRemove.
	Path string
}

// Status is the outcome of one build.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusWarning   Status = "warning"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsSuccess reports whether the build produced its output.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusWarning
}

// StageName identifies one step of a build.
type StageName string

const (
	StagePrepare    StageName = "prepare"
	StageTemplates  StageName = "load_templates"
	StageClean      StageName = "clean_output"
	StageCopyStatic StageName = "copy_static"
	StageStyles     StageName = "compile_styles"
	StageNotFound   StageName = "not_found"
	StagePosts      StageName = "posts"
	StageRescan     StageName = "rescan_styles"
	StageScripts    StageName = "scripts"
	StageCopyFile   StageName = "copy_file"
	StageRemoveFile StageName = "remove_file"
)

// Report is the result of one Run.
type Report struct {
	BuildID   string
	Kind      Kind
	Trigger   string
	Status    Status
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	StageDurations map[StageName]time.Duration
	// FailedStage is set when a stage aborted the run.
	FailedStage StageName

	// Posts is the number of pages built by an aggregate run.
	Posts   int
	Skipped []site.Skipped
	// Artifacts lists the files written, relative to the output directory.
	Artifacts []string

	// Scripts is the pending script bundle of a successful full build.
	Scripts *scripts.Task
	Err     error
}

func newReport(id string, req Request, start time.Time) *Report {
	return &Report{
		BuildID:        id,
		Kind:           req.Kind,
		Trigger:        req.Trigger,
		StartTime:      start,
		StageDurations: make(map[StageName]time.Duration),
	}
}

func (r *Report) finish(end time.Time, err error) {
	r.EndTime = end
	r.Duration = end.Sub(r.StartTime)
	r.Err = err
	switch {
	case err != nil && r.Status == StatusCancelled:
	case err != nil:
		r.Status = StatusFailed
	case len(r.Skipped) > 0:
		r.Status = StatusWarning
	default:
		r.Status = StatusSuccess
	}
}

func (r *Report) addArtifact(rel string) {
	r.Artifacts = append(r.Artifacts, rel)
}

// Outcome maps the status onto the metrics outcome label.
func (r *Report) Outcome() metrics.BuildOutcome {
	switch r.Status {
	case StatusSuccess:
		return metrics.OutcomeSuccess
	case StatusWarning:
		return metrics.OutcomeWarning
	default:
		return metrics.OutcomeFailed
	}
}
