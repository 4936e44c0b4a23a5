package site

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/css"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

// HomepageEntry is one rendered feed snippet.
type HomepageEntry struct {
	File     string
	Snippet  string
	PostDate time.Time
}

// SitemapEntry is one <url> element.
type SitemapEntry struct {
	Loc      string
	Lastmod  string
	Priority string
}

// Skipped records a fragment excluded from the run.
type Skipped struct {
	File string
	Err  error
}

// BuildState accumulates one aggregate run.
type BuildState struct {
	Posts    []*post.Meta
	Homepage []HomepageEntry
	Sitemap  []SitemapEntry
	Skipped  []Skipped
	CSS      *css.Tracker
}

// NewBuildState returns an empty state tracking selector usage with tracker.
func NewBuildState(tracker *css.Tracker) *BuildState {
	return &BuildState{CSS: tracker}
}

// Sort orders posts and homepage entries newest first. Posts sharing a post
// date are ordered by file name so the order is total.
func (s *BuildState) Sort() {
	sort.SliceStable(s.Posts, func(i, j int) bool {
		return newerFirst(s.Posts[i].PostDate, s.Posts[j].PostDate, s.Posts[i].File, s.Posts[j].File)
	})
	sort.SliceStable(s.Homepage, func(i, j int) bool {
		return newerFirst(s.Homepage[i].PostDate, s.Homepage[j].PostDate, s.Homepage[i].File, s.Homepage[j].File)
	})
}

func newerFirst(a, b time.Time, fileA, fileB string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return fileA < fileB
}

// Snippets returns the homepage snippets in their current order.
func (s *BuildState) Snippets() []string {
	out := make([]string, len(s.Homepage))
	for i, e := range s.Homepage {
		out[i] = e.Snippet
	}
	return out
}
