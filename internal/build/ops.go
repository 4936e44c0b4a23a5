package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/css"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/observability"
	"git.home.luguber.info/inful/blogbuilder/internal/page"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
	"git.home.luguber.info/inful/blogbuilder/internal/scripts"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// Output paths relative to the output directory.
const (
	fileIndex       = "index.html"
	fileNotFound    = "404.html"
	fileSitemap     = "sitemap.xml"
	fileSearchIndex = "js/search.json"
	dirStyles       = "css"
	dirScripts      = "js"
)

func (b *Builder) loadTemplates(ctx context.Context) error {
	tpl, err := page.LoadTemplates(b.cfg.TemplatesDir())
	if err != nil {
		return err
	}
	b.asm = page.NewAssembler(b.cfg, tpl, page.NewRenderer(b.min))
	observability.DebugContext(ctx, "Templates loaded", "dir", b.cfg.TemplatesDir())
	return nil
}

// cleanOutput empties the output directory. Saved post images only live
// under img/, so that directory survives.
func (b *Builder) cleanOutput(context.Context) error {
	return ClearDir(b.cfg.OutputDir(), filepath.Base(b.cfg.ImagesOutputDir()))
}

func (b *Builder) copyStatic(report *Report) error {
	copied, err := CopyTree(b.cfg.CopyDir(), b.cfg.OutputDir())
	for _, rel := range copied {
		report.addArtifact(filepath.ToSlash(rel))
	}
	return err
}

// compileStyles compiles the stylesheet entry point and resets the base
// whitelist to the seeds, the configured extras and every selector the raw
// templates use.
func (b *Builder) compileStyles(ctx context.Context) error {
	entry, err := css.FindEntry(b.cfg.StylesDir())
	if err != nil {
		return err
	}
	src, err := b.compiler.Compile(ctx, entry)
	if err != nil {
		return err
	}
	sheet, err := css.Parse(src)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryCompiler, "parse compiled stylesheet").
			WithContext("entry", entry).
			Build()
	}
	b.sheet = sheet

	tracker := css.NewTracker(sheet, b.cfg.CSS.Whitelist...)
	if err := observeDir(tracker, b.cfg.TemplatesDir()); err != nil {
		return err
	}
	b.base = tracker.Whitelist()
	observability.DebugContext(ctx, "Stylesheet compiled", "entry", entry, "selectors", len(sheet.Selectors()))
	return nil
}

func (b *Builder) writeNotFound(report *Report) error {
	html, err := b.asm.RenderNotFound()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "render 404 page").Build()
	}
	if err := b.write(report, fileNotFound, []byte(html)); err != nil {
		return err
	}
	used, err := css.NewAnalyzer(b.sheet).UsedInHTML(html)
	if err != nil {
		return err
	}
	b.base.Add(used...)
	return nil
}

// aggregate rebuilds every post page from scratch, then the search index,
// sitemap, homepage and pruned stylesheet. Output of fragments that no
// longer exist is removed.
func (b *Builder) aggregate(ctx context.Context, report *Report) error {
	tracker := css.NewTrackerWith(b.sheet, b.base)
	state := site.NewBuildState(tracker)
	agg := site.NewAggregator(b.cfg, b.asm, state).
		WithClock(b.now).
		WithPersist(func(a *page.Assembled) error {
			rel := filepath.Join(b.cfg.Output.Posts, a.Meta.File)
			if err := b.write(report, rel, []byte(a.HTML)); err != nil {
				RemoveBestEffort(filepath.Join(b.cfg.OutputDir(), rel))
				return err
			}
			return nil
		})

	if err := ClearDir(b.cfg.PostsOutputDir()); err != nil {
		return err
	}

	dir := b.cfg.PartialsDir()
	files, err := ListFragments(dir)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, file)
		markup, err := os.ReadFile(path)
		if err != nil {
			state.Skipped = append(state.Skipped, site.Skipped{File: file, Err: err})
			observability.WarnContext(ctx, "Skipping unreadable fragment", "file", file, "error", err)
			continue
		}
		if _, err := agg.AddPost(file, string(markup), b.seed(ctx, path)); err != nil {
			observability.WarnContext(ctx, "Skipping fragment", "file", file, "error", err)
		}
	}

	artifacts, err := agg.Finish()
	if err != nil {
		return err
	}
	if err := b.write(report, fileSearchIndex, artifacts.SearchIndex); err != nil {
		return err
	}
	if err := b.write(report, fileSitemap, artifacts.Sitemap); err != nil {
		return err
	}
	if err := b.write(report, fileIndex, []byte(artifacts.Homepage)); err != nil {
		return err
	}

	b.last = state
	report.Posts = len(state.Posts)
	report.Skipped = state.Skipped
	observability.InfoContext(ctx, "Posts aggregated", "posts", report.Posts, "skipped", len(report.Skipped))
	return b.writeStyles(report, tracker.Pruned())
}

// refreshStyles re-derives the whitelist from every fragment and template on
// disk and publishes the pruned stylesheet. compileStyles has already reset
// the base whitelist from the templates.
func (b *Builder) refreshStyles(report *Report) error {
	tracker := css.NewTrackerWith(b.sheet, b.base)
	if err := observeDir(tracker, b.cfg.PartialsDir()); err != nil {
		return err
	}
	return b.writeStyles(report, tracker.Pruned())
}

func (b *Builder) writeStyles(report *Report, pruned *css.Stylesheet) error {
	out, err := css.Finalize(pruned, b.min)
	if err != nil {
		return err
	}
	if err := b.write(report, dirStyles+"/"+css.FileCSS, []byte(out.CSS)); err != nil {
		return err
	}
	if err := b.write(report, dirStyles+"/"+css.FileMinCSS, []byte(out.Minified)); err != nil {
		return err
	}
	return b.write(report, dirStyles+"/"+css.FileSourceMap, out.SourceMap)
}

// bundle writes the script bundle. report may be nil for the background
// bundle of a full build.
func (b *Builder) bundle(ctx context.Context, report *Report) error {
	postLoop, err := b.asm.Templates().PostLoopBody()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "read post-loop template").Build()
	}
	bundler := &scripts.Bundler{
		SourceDir: b.cfg.ScriptsDir(),
		OutputDir: filepath.Join(b.cfg.OutputDir(), dirScripts),
		Min:       b.min,
	}
	if _, err := bundler.Build(ctx, postLoop); err != nil {
		return err
	}
	if report != nil {
		report.addArtifact(dirScripts + "/" + scripts.BundleFile)
	}
	return nil
}

func (b *Builder) copyFile(src string, report *Report) error {
	rel, err := b.staticRel(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat static file").WithContext("path", src).Build()
	}
	dst := filepath.Join(b.cfg.OutputDir(), rel)
	if info.IsDir() {
		copied, err := CopyTree(src, dst)
		for _, c := range copied {
			report.addArtifact(filepath.ToSlash(filepath.Join(rel, c)))
		}
		return err
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	report.addArtifact(filepath.ToSlash(rel))
	return nil
}

func (b *Builder) removeFile(src string, report *Report) error {
	rel, err := b.staticRel(src)
	if err != nil {
		return err
	}
	RemoveBestEffort(filepath.Join(b.cfg.OutputDir(), rel))
	report.addArtifact(filepath.ToSlash(rel))
	return nil
}

// staticRel maps a path inside the static-copy directory to its location
// relative to the output directory.
func (b *Builder) staticRel(src string) (string, error) {
	rel, err := filepath.Rel(b.cfg.CopyDir(), src)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ferrors.ValidationError("path is outside the static copy directory").
			WithContext("path", src).
			WithContext("dir", b.cfg.CopyDir()).
			Build()
	}
	return rel, nil
}

func (b *Builder) seed(ctx context.Context, path string) post.Seed {
	created, modified, err := b.dates.Dates(path)
	if err != nil {
		observability.DebugContext(ctx, "No timestamps for fragment", "path", path, "error", err)
	}
	return post.Seed{PostDate: created, UpdateDate: modified}
}

func (b *Builder) write(report *Report, rel string, data []byte) error {
	if err := writeFile(filepath.Join(b.cfg.OutputDir(), rel), data); err != nil {
		return err
	}
	report.addArtifact(filepath.ToSlash(rel))
	return nil
}

// observeDir merges in the selectors used by every HTML file in dir.
func observeDir(tracker *css.Tracker, dir string) error {
	files, err := ListFragments(dir)
	if err != nil {
		return err
	}
	for _, name := range files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read markup").WithContext("path", path).Build()
		}
		if err := tracker.ObserveHTML(string(data)); err != nil {
			return err
		}
	}
	return nil
}
