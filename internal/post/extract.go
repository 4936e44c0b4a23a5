package post

import (
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// MetaBlockID is the id of the metadata block inside a content fragment.
const MetaBlockID = "post-meta"

// Fragment is a parsed content fragment.
type Fragment struct {
	Doc     *goquery.Document
	Article *goquery.Selection
}

// ParseFragment parses fragment HTML and locates its article body. A fragment
// without an <article> element yields a content error and must be skipped.
func ParseFragment(file, html string) (*Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "parse fragment").
			WithSeverity(ferrors.SeverityWarning).
			WithContext("file", file).
			Build()
	}
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return nil, ferrors.ContentError("failed to read article body").WithContext("file", file).Build()
	}
	return &Fragment{Doc: doc, Article: article}, nil
}

// Extract builds a Meta from the seed values and the fragment's metadata block.
// Values present in the block override the seeds; a missing update date falls
// back to the post date.
func Extract(frag *Fragment, seed Seed) *Meta {
	meta := &Meta{
		File:       seed.File,
		Slug:       SlugFromFile(seed.File),
		Tags:       []string{},
		PostDate:   seed.PostDate,
		UpdateDate: seed.UpdateDate,
		SearchBody: seed.SearchBody,
	}
	if meta.SearchBody == "" {
		meta.SearchBody = SearchBody(frag.Article.Text())
	}

	block := frag.Doc.Find("#" + MetaBlockID).First()
	if block.Length() == 0 {
		slog.Debug("Fragment has no metadata block", "file", seed.File)
		return meta
	}

	meta.Title = field(block, ".meta-title")
	meta.Excerpt = field(block, ".meta-excerpt")
	meta.Tags = ParseTags(field(block, ".meta-tags"))

	author := block.Find(".meta-author").First()
	meta.Author.Name = strings.TrimSpace(author.Text())
	meta.Author.URL = strings.TrimSpace(author.AttrOr("href", ""))

	postDate, hasPostDate := dateField(block, ".meta-post-date", seed.File)
	if hasPostDate {
		meta.PostDate = postDate
	}
	if t, ok := dateField(block, ".meta-update-date", seed.File); ok {
		meta.UpdateDate = t
	} else if hasPostDate {
		meta.UpdateDate = meta.PostDate
	}
	if meta.UpdateDate.IsZero() {
		meta.UpdateDate = meta.PostDate
	}

	meta.Thumbnail = thumbnail(block.Find(".meta-thumbnail").First())
	meta.Image = meta.Thumbnail.Primary()
	return meta
}

func field(block *goquery.Selection, selector string) string {
	return strings.TrimSpace(block.Find(selector).First().Text())
}

func dateField(block *goquery.Selection, selector, file string) (time.Time, bool) {
	var t0 time.Time
	sel := block.Find(selector).First()
	if sel.Length() == 0 {
		return t0, false
	}
	raw := sel.AttrOr("datetime", "")
	if strings.TrimSpace(raw) == "" {
		raw = sel.Text()
	}
	if strings.TrimSpace(raw) == "" {
		return t0, false
	}
	t, err := ParseDate(raw)
	if err != nil {
		slog.Warn("Ignoring unparseable date", "file", file, "selector", selector, "value", raw)
		return t0, false
	}
	return t, true
}

func thumbnail(picture *goquery.Selection) *Thumbnail {
	if picture.Length() == 0 {
		return nil
	}
	var sources []string
	picture.Find("source").Each(func(_ int, s *goquery.Selection) {
		sources = append(sources, strings.TrimSpace(s.AttrOr("srcset", "")))
	})
	if len(sources) == 0 {
		if src := strings.TrimSpace(picture.Find("img").AttrOr("src", "")); src != "" {
			sources = append(sources, src)
		}
	}
	hasSource := false
	for _, s := range sources {
		if s != "" {
			hasSource = true
			break
		}
	}
	if !hasSource {
		return nil
	}
	inner, err := picture.Html()
	if err != nil {
		return nil
	}
	return &Thumbnail{Sources: sources, InnerHTML: strings.TrimSpace(inner)}
}
