package site

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/page"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

// Artifacts are the site-wide outputs of one aggregate run.
type Artifacts struct {
	SearchIndex []byte
	Sitemap     []byte
	Homepage    string
}

// Aggregator assembles posts into a BuildState and renders the artifacts.
type Aggregator struct {
	cfg     *config.Config
	asm     *page.Assembler
	state   *BuildState
	now     func() time.Time
	persist func(*page.Assembled) error
}

// NewAggregator binds an assembler to a fresh state.
func NewAggregator(cfg *config.Config, asm *page.Assembler, state *BuildState) *Aggregator {
	return &Aggregator{cfg: cfg, asm: asm, state: state, now: time.Now}
}

// WithClock replaces the clock used for the sitemap's root lastmod.
func (g *Aggregator) WithClock(now func() time.Time) *Aggregator {
	g.now = now
	return g
}

// WithPersist sets the function that stores each assembled page. A post is
// only recorded once persist succeeds.
func (g *Aggregator) WithPersist(persist func(*page.Assembled) error) *Aggregator {
	g.persist = persist
	return g
}

// State exposes the accumulated run state.
func (g *Aggregator) State() *BuildState { return g.state }

// AddPost assembles one fragment, persists it and records it. Any failure,
// including a panic inside assembly, is returned and recorded as skipped. The
// posts, homepage and sitemap are left untouched so the caller can carry on.
func (g *Aggregator) AddPost(file, markup string, seed post.Seed) (out *page.Assembled, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("Recovered fragment panic", "file", file, "stack", string(debug.Stack()))
			out = nil
			err = ferrors.ContentError("fragment assembly panicked").
				WithContext("file", file).
				WithContext("panic", fmt.Sprint(r)).
				Build()
		}
		if err != nil {
			g.state.Skipped = append(g.state.Skipped, Skipped{File: file, Err: err})
		}
	}()

	frag, err := post.ParseFragment(file, markup)
	if err != nil {
		return nil, err
	}
	seed.File = file
	meta := post.Extract(frag, seed)

	assembled, err := g.asm.Assemble(frag, meta)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "assemble post").
			WithSeverity(ferrors.SeverityWarning).
			WithContext("file", file).
			Build()
	}

	if g.persist != nil {
		if err := g.persist(assembled); err != nil {
			return nil, err
		}
	}

	if g.state.CSS != nil {
		if err := g.state.CSS.ObserveHTML(assembled.HTML); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryContent, "scan post selectors").
				WithSeverity(ferrors.SeverityWarning).
				WithContext("file", file).
				Build()
		}
	}

	g.state.Posts = append(g.state.Posts, meta)
	g.state.Homepage = append(g.state.Homepage, HomepageEntry{File: file, Snippet: assembled.Snippet, PostDate: meta.PostDate})
	g.state.Sitemap = append(g.state.Sitemap, SitemapEntry{
		Loc:      assembled.URL,
		Lastmod:  post.FormatISO(meta.UpdateDate),
		Priority: postPriority,
	})
	return assembled, nil
}

// Finish sorts the state and renders the search index, sitemap and homepage.
// The homepage is scanned for selectors like any post page.
func (g *Aggregator) Finish() (*Artifacts, error) {
	g.state.Sort()

	index, err := json.MarshalIndent(g.state.Posts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal search index: %w", err)
	}
	if g.state.Posts == nil {
		index = []byte("[]")
	}

	sitemap, err := Sitemap(g.cfg.BaseURL(), g.now(), g.state.Sitemap)
	if err != nil {
		return nil, err
	}

	homepage, err := g.asm.RenderHomepage(g.state.Snippets())
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "render homepage").Build()
	}

	if g.state.CSS != nil {
		if err := g.state.CSS.ObserveHTML(homepage); err != nil {
			return nil, fmt.Errorf("scan homepage selectors: %w", err)
		}
	}

	return &Artifacts{SearchIndex: index, Sitemap: sitemap, Homepage: homepage}, nil
}
