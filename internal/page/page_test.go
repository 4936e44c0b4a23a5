package page

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
	"git.home.luguber.info/inful/blogbuilder/internal/scaffold"
)

func newTestAssembler(t *testing.T, cfg *config.Config) *Assembler {
	t.Helper()
	dir := t.TempDir()
	_, err := scaffold.WriteSource(dir, false)
	require.NoError(t, err)

	tpl, err := LoadTemplates(filepath.Join(dir, "templates"))
	require.NoError(t, err)
	return NewAssembler(cfg, tpl, nil)
}

func testConfig() *config.Config {
	return &config.Config{
		Source: "src",
		Output: config.OutputConfig{Main: "build", Posts: "posts"},
		Site:   config.SiteConfig{Root: "https://example.com", Subfolder: "blog"},
	}
}

func mustParse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

const fragmentWithThumbnail = `<div id="post-meta">
<span class="meta-title">Go &amp; CLIs</span>
<span class="meta-excerpt">Building tools.</span>
<span class="meta-tags">go, cli</span>
<a class="meta-author" href="https://example.com/jo">Jo</a>
<time class="meta-post-date" datetime="2023-06-01T00:00:00Z"></time>
<picture class="meta-thumbnail">
<source srcset="img/b/1200.webp"><source srcset="img/b/992.webp"><source srcset="img/b/768.webp"><source srcset="img/b/530.webp">
</picture>
</div>
<article><p>Body text</p></article>`

func assemble(t *testing.T, a *Assembler, file, markup string) *Assembled {
	t.Helper()
	frag, err := post.ParseFragment(file, markup)
	require.NoError(t, err)
	meta := post.Extract(frag, post.Seed{File: file})
	out, err := a.Assemble(frag, meta)
	require.NoError(t, err)
	return out
}

func TestLoadTemplates_ComposesPostIntoShell(t *testing.T) {
	a := newTestAssembler(t, testConfig())
	doc := mustParse(t, a.Templates().Post)

	require.Equal(t, 1, doc.Find("#mainContent #post-inner").Length())
	require.Equal(t, 1, doc.Find("#mainContent #post-thumbnail").Length())
	require.Equal(t, 1, doc.Find("header.site-header").Length())
}

func TestLoadTemplates_MissingTemplate(t *testing.T) {
	_, err := LoadTemplates(t.TempDir())
	require.Error(t, err)
}

func TestAssemble_PostPage(t *testing.T) {
	a := newTestAssembler(t, testConfig())
	out := assemble(t, a, "b.html", fragmentWithThumbnail)

	require.True(t, strings.HasPrefix(out.HTML, "<!DOCTYPE html>\n<html lang=\"en\">"))
	require.True(t, strings.HasSuffix(out.HTML, "\n</html>"))
	require.Equal(t, "https://example.com/blog/posts/b.html", out.URL)

	doc := mustParse(t, out.HTML)
	require.Equal(t, "Go & CLIs", doc.Find("title").Text())
	require.Contains(t, doc.Find("#post-inner").Text(), "Body text")

	links := doc.Find(".post-tags ul li a")
	require.Equal(t, 2, links.Length())
	require.Equal(t, "https://example.com/blog/?search=tag:go", links.Eq(0).AttrOr("href", ""))
	require.Equal(t, "https://example.com/blog/?search=tag:cli", links.Eq(1).AttrOr("href", ""))

	for _, marker := range []string{MetaTitle, MetaDescription, MetaURL, MetaImage, MetaPublishedTime, MetaModifiedTime, MetaTag} {
		require.Zero(t, doc.Find("."+marker).Length(), marker)
	}
	require.Equal(t, "https://example.com/blog/img/b/1200.webp", doc.Find(`meta[property="og:image"]`).AttrOr("content", ""))
	sources := doc.Find("#post-thumbnail source")
	require.Equal(t, 4, sources.Length())
	require.Equal(t, "https://example.com/blog/img/b/1200.webp", sources.Eq(0).AttrOr("srcset", ""))
	require.Equal(t, "https://example.com/blog/img/b/530.webp", sources.Eq(3).AttrOr("srcset", ""))
	require.Equal(t, "2023-06-01T00:00:00.000Z", doc.Find(`meta[property="article:published_time"]`).AttrOr("content", ""))
	require.Equal(t, "go, cli", doc.Find(`meta[property="article:tag"]`).AttrOr("content", ""))
	require.Equal(t, 4, doc.Find("#post-thumbnail source").Length())

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc.Find(`script[type="application/ld+json"]`).Text()), &data))
	require.Equal(t, "BlogPosting", data["@type"])
	require.Equal(t, "Go & CLIs", data["headline"])
	require.Equal(t, []any{"go", "cli"}, data["keywords"])
	require.Equal(t, []any{"https://example.com/blog/img/b/1200.webp"}, data["image"])
	require.Equal(t, "https://example.com/blog/posts/b.html", data["mainEntityOfPage"])

	snippet := mustParse(t, out.Snippet)
	require.Equal(t, "Go & CLIs", snippet.Find(".post-title").Text())
	require.Equal(t, "/blog/posts/b.html", snippet.Find(".post-link").AttrOr("href", ""))
	require.Equal(t, "June 1, 2023", snippet.Find(".post-date").Text())
	require.Equal(t, "Jo", snippet.Find(".post-author").Text())
	require.Equal(t, "Building tools.", snippet.Find(".post-excerpt").Text())
	require.Equal(t, "https://example.com/blog/img/b/530.webp", snippet.Find(".post-thumbnail img").AttrOr("src", ""))
}

func TestAssemble_MissingValuesRemoveMetaTags(t *testing.T) {
	a := newTestAssembler(t, testConfig())
	out := assemble(t, a, "a.html", `<article><p>Plain</p></article>`)

	doc := mustParse(t, out.HTML)
	require.Zero(t, doc.Find(`meta[name="description"]`).Length())
	require.Zero(t, doc.Find(`meta[property="og:image"]`).Length())
	require.Zero(t, doc.Find(`meta[property="article:tag"]`).Length())
	require.Equal(t, 1, doc.Find(`meta[property="og:url"]`).Length())
	require.Empty(t, strings.TrimSpace(doc.Find("#post-thumbnail").Text()))
	require.Zero(t, doc.Find(".post-tags li").Length())

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc.Find(`script[type="application/ld+json"]`).Text()), &data))
	require.NotContains(t, data, "image")
	require.NotContains(t, data, "keywords")
	require.NotContains(t, data, "headline")

	snippet := mustParse(t, out.Snippet)
	require.Zero(t, snippet.Find(".post-thumbnail img").Length())
	require.Equal(t, "", snippet.Find(".post-excerpt").Text())
}

func TestAssemble_IsDeterministic(t *testing.T) {
	a := newTestAssembler(t, testConfig())
	first := assemble(t, a, "b.html", fragmentWithThumbnail)
	second := assemble(t, a, "b.html", fragmentWithThumbnail)
	require.Equal(t, first.HTML, second.HTML)
	require.Equal(t, first.Snippet, second.Snippet)
}

func TestAbsoluteSrcset(t *testing.T) {
	a := newTestAssembler(t, testConfig())
	require.Equal(t,
		"https://example.com/blog/img/a-1x.webp 1x, https://example.com/img/a-2x.webp 2x, https://cdn.example/a.webp 600w",
		a.absoluteSrcset(" img/a-1x.webp 1x,/img/a-2x.webp 2x , https://cdn.example/a.webp 600w,"))
	require.Empty(t, a.absoluteSrcset(""))
}

func TestRenderHomepage(t *testing.T) {
	cfg := testConfig()
	a := newTestAssembler(t, cfg)

	html, err := a.RenderHomepage([]string{`<div class="card" id="b"></div>`, `<div class="card" id="a"></div>`})
	require.NoError(t, err)
	doc := mustParse(t, html)
	cards := doc.Find("#mainContent #post-container .card")
	require.Equal(t, 2, cards.Length())
	require.Equal(t, "b", cards.Eq(0).AttrOr("id", ""))
	require.Zero(t, doc.Find("pwa-update").Length())

	cfg.Site.PWA = true
	html, err = a.RenderHomepage(nil)
	require.NoError(t, err)
	doc = mustParse(t, html)
	require.Equal(t, 1, doc.Find("pwa-update").Length())
	require.Contains(t, doc.Find(`head script[type="module"]`).Text(), "@pwabuilder/pwaupdate")
}

func TestRenderNotFound(t *testing.T) {
	a := newTestAssembler(t, testConfig())
	html, err := a.RenderNotFound()
	require.NoError(t, err)
	require.Contains(t, html, "Page not found")
	require.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
}

func TestAbsoluteURL(t *testing.T) {
	a := NewAssembler(testConfig(), &Templates{}, nil)
	require.Equal(t, "https://example.com/blog/img/x.webp", a.AbsoluteURL("img/x.webp"))
	require.Equal(t, "https://example.com/img/x.webp", a.AbsoluteURL("/img/x.webp"))
	require.Equal(t, "https://cdn.example.com/x.webp", a.AbsoluteURL("https://cdn.example.com/x.webp"))
	require.Equal(t, "", a.AbsoluteURL(" "))
}

func TestAssemble_PostDateFallback(t *testing.T) {
	a := newTestAssembler(t, testConfig())
	frag, err := post.ParseFragment("a.html", `<article>x</article>`)
	require.NoError(t, err)
	seed := time.Date(2022, 5, 4, 3, 2, 1, 0, time.UTC)
	out, err := a.Assemble(frag, post.Extract(frag, post.Seed{File: "a.html", PostDate: seed, UpdateDate: seed}))
	require.NoError(t, err)
	doc := mustParse(t, out.HTML)
	require.Equal(t, "2022-05-04T03:02:01.000Z", doc.Find(`meta[property="article:modified_time"]`).AttrOr("content", ""))
}
