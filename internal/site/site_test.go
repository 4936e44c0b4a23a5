package site

import (
	"encoding/json"
	"encoding/xml"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/css"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/page"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
	"git.home.luguber.info/inful/blogbuilder/internal/scaffold"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newAggregator(t *testing.T, tracker *css.Tracker) *Aggregator {
	t.Helper()
	dir := t.TempDir()
	_, err := scaffold.WriteSource(dir, false)
	require.NoError(t, err)

	cfg := &config.Config{
		Output: config.OutputConfig{Main: "build", Posts: "posts"},
		Site:   config.SiteConfig{Root: "https://example.com"},
	}
	tpl, err := page.LoadTemplates(filepath.Join(dir, "templates"))
	require.NoError(t, err)

	g := NewAggregator(cfg, page.NewAssembler(cfg, tpl, nil), NewBuildState(tracker))
	g.now = func() time.Time { return fixedNow }
	return g
}

func fragment(title, date, tags string) string {
	return `<div id="post-meta"><span class="meta-title">` + title + `</span>` +
		`<span class="meta-tags">` + tags + `</span>` +
		`<time class="meta-post-date" datetime="` + date + `"></time></div>` +
		`<article><p>` + title + ` body</p></article>`
}

type parsedSitemap struct {
	URLs []struct {
		Loc      string `xml:"loc"`
		Lastmod  string `xml:"lastmod"`
		Priority string `xml:"priority"`
	} `xml:"url"`
}

func TestAggregator_TwoPostExample(t *testing.T) {
	g := newAggregator(t, nil)

	_, err := g.AddPost("a.html", fragment("Alpha", "2023-01-01", ""), post.Seed{})
	require.NoError(t, err)
	b, err := g.AddPost("b.html", fragment("Beta", "2023-06-01", "go, cli"), post.Seed{})
	require.NoError(t, err)

	art, err := g.Finish()
	require.NoError(t, err)

	var sm parsedSitemap
	require.NoError(t, xml.Unmarshal(art.Sitemap, &sm))
	require.Len(t, sm.URLs, 3)
	require.Equal(t, "https://example.com/", sm.URLs[0].Loc)
	require.Equal(t, "1.00", sm.URLs[0].Priority)
	require.Equal(t, "2024-03-01T12:00:00.000Z", sm.URLs[0].Lastmod)
	require.Equal(t, "https://example.com/posts/a.html", sm.URLs[1].Loc)
	require.Equal(t, "0.80", sm.URLs[1].Priority)
	require.Equal(t, "2023-01-01T00:00:00.000Z", sm.URLs[1].Lastmod)
	require.Contains(t, string(art.Sitemap), `xmlns="https://www.sitemaps.org/schemas/sitemap/0.9"`)

	var index []map[string]any
	require.NoError(t, json.Unmarshal(art.SearchIndex, &index))
	require.Len(t, index, 2)
	require.Equal(t, "b.html", index[0]["file"])
	require.Equal(t, "a.html", index[1]["file"])

	home, err := goquery.NewDocumentFromReader(strings.NewReader(art.Homepage))
	require.NoError(t, err)
	titles := home.Find("#post-container .post-title")
	require.Equal(t, 2, titles.Length())
	require.Equal(t, "Beta", titles.Eq(0).Text())
	require.Equal(t, "Alpha", titles.Eq(1).Text())

	pageDoc, err := goquery.NewDocumentFromReader(strings.NewReader(b.HTML))
	require.NoError(t, err)
	links := pageDoc.Find(".post-tags a")
	require.Equal(t, 2, links.Length())
	require.True(t, strings.HasSuffix(links.Eq(0).AttrOr("href", ""), "?search=tag:go"))
	require.True(t, strings.HasSuffix(links.Eq(1).AttrOr("href", ""), "?search=tag:cli"))
}

func TestAggregator_SkipsFragmentWithoutArticle(t *testing.T) {
	g := newAggregator(t, nil)

	_, err := g.AddPost("broken.html", `<div id="post-meta"></div>`, post.Seed{})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))

	_, err = g.AddPost("ok.html", fragment("Ok", "2023-01-01", ""), post.Seed{})
	require.NoError(t, err)

	art, err := g.Finish()
	require.NoError(t, err)
	require.Len(t, g.State().Posts, 1)
	require.Len(t, g.State().Skipped, 1)
	require.Equal(t, "broken.html", g.State().Skipped[0].File)
	require.NotContains(t, string(art.SearchIndex), "broken.html")
	require.NotContains(t, string(art.Sitemap), "broken.html")
	require.NotContains(t, art.Homepage, "broken.html")
}

func TestAggregator_PersistFailureSkipsOnlyThatPost(t *testing.T) {
	var persisted []string
	g := newAggregator(t, nil).WithPersist(func(a *page.Assembled) error {
		if a.Meta.File == "a.html" {
			return ferrors.FileSystemError("disk full").Build()
		}
		persisted = append(persisted, a.Meta.File)
		return nil
	})

	_, err := g.AddPost("a.html", fragment("Alpha", "2023-01-01", ""), post.Seed{})
	require.Error(t, err)
	_, err = g.AddPost("b.html", fragment("Beta", "2023-06-01", ""), post.Seed{})
	require.NoError(t, err)

	require.Equal(t, []string{"b.html"}, persisted)
	require.Len(t, g.State().Skipped, 1)
	require.Equal(t, "a.html", g.State().Skipped[0].File)

	art, err := g.Finish()
	require.NoError(t, err)
	var sm parsedSitemap
	require.NoError(t, xml.Unmarshal(art.Sitemap, &sm))
	require.Len(t, sm.URLs, 2)
	require.NotContains(t, string(art.SearchIndex), "a.html")
}

func TestAggregator_RecoversFromPanics(t *testing.T) {
	cfg := &config.Config{Site: config.SiteConfig{Root: "https://example.com"}}
	g := NewAggregator(cfg, nil, NewBuildState(nil))

	_, err := g.AddPost("a.html", fragment("A", "2023-01-01", ""), post.Seed{})
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
	require.Empty(t, g.State().Posts)
	require.Len(t, g.State().Skipped, 1)
}

func TestAggregator_TieBreakIsDeterministic(t *testing.T) {
	for range 3 {
		g := newAggregator(t, nil)
		for _, f := range []string{"c.html", "a.html", "b.html"} {
			_, err := g.AddPost(f, fragment(f, "2023-01-01", ""), post.Seed{})
			require.NoError(t, err)
		}
		_, err := g.Finish()
		require.NoError(t, err)

		var files []string
		for _, p := range g.State().Posts {
			files = append(files, p.File)
		}
		require.Equal(t, []string{"a.html", "b.html", "c.html"}, files)
		require.Equal(t, "a.html", g.State().Homepage[0].File)
	}
}

func TestAggregator_IsIdempotent(t *testing.T) {
	run := func() *Artifacts {
		g := newAggregator(t, nil)
		_, err := g.AddPost("a.html", fragment("A", "2023-01-01", "x"), post.Seed{})
		require.NoError(t, err)
		_, err = g.AddPost("b.html", fragment("B", "2023-02-01", "y"), post.Seed{})
		require.NoError(t, err)
		art, err := g.Finish()
		require.NoError(t, err)
		return art
	}
	first, second := run(), run()
	require.Equal(t, first.SearchIndex, second.SearchIndex)
	require.Equal(t, first.Sitemap, second.Sitemap)
	require.Equal(t, first.Homepage, second.Homepage)
}

func TestAggregator_TracksSelectors(t *testing.T) {
	sheet, err := css.Parse([]byte(`.card { a: b; } .post-title { a: b; } .nowhere { a: b; } .post-tags a { a: b; }`))
	require.NoError(t, err)
	tracker := css.NewTracker(sheet)

	g := newAggregator(t, tracker)
	_, err = g.AddPost("a.html", fragment("A", "2023-01-01", "x"), post.Seed{})
	require.NoError(t, err)
	_, err = g.Finish()
	require.NoError(t, err)

	require.Equal(t, []string{".card", ".post-title", ".post-tags a"}, tracker.Pruned().Selectors())
}

func TestFinish_EmptySite(t *testing.T) {
	g := newAggregator(t, nil)
	art, err := g.Finish()
	require.NoError(t, err)
	require.Equal(t, "[]", string(art.SearchIndex))

	var sm parsedSitemap
	require.NoError(t, xml.Unmarshal(art.Sitemap, &sm))
	require.Len(t, sm.URLs, 1)
}
