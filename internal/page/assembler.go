package page

import (
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

// Marker classes of the templated meta elements in the shell head.
const (
	MetaTitle         = "metaTitle"
	MetaDescription   = "metaDescription"
	MetaURL           = "metaUrl"
	MetaImage         = "metaImage"
	MetaPublishedTime = "metaPublishedTime"
	MetaModifiedTime  = "metaModifiedTime"
	MetaTag           = "metaTag"
)

const previewImageWidth = "530"

// Assembled is one rendered post page plus what the aggregate artifacts need from it.
type Assembled struct {
	Meta *post.Meta
	// HTML is the complete document written to the posts directory.
	HTML string
	// Snippet is the homepage feed entry for the post.
	Snippet string
	// URL is the fully qualified page URL.
	URL string
}

// Assembler builds post pages from fragments.
type Assembler struct {
	cfg      *config.Config
	tpl      *Templates
	renderer *Renderer
}

// NewAssembler returns an Assembler bound to the loaded templates.
func NewAssembler(cfg *config.Config, tpl *Templates, renderer *Renderer) *Assembler {
	if renderer == nil {
		renderer = NewRenderer(nil)
	}
	return &Assembler{cfg: cfg, tpl: tpl, renderer: renderer}
}

// Templates returns the templates the assembler renders with.
func (a *Assembler) Templates() *Templates { return a.tpl }

// Renderer returns the document renderer.
func (a *Assembler) Renderer() *Renderer { return a.renderer }

// Assemble composes the post page and homepage snippet for one fragment.
func (a *Assembler) Assemble(frag *post.Fragment, meta *post.Meta) (*Assembled, error) {
	doc, err := a.tpl.PostDocument()
	if err != nil {
		return nil, err
	}
	loop, err := a.tpl.PostLoopDocument()
	if err != nil {
		return nil, err
	}

	pageURL := a.cfg.PostURL(meta.File)

	frag.Article.AppendHtml(a.tagList(meta.Tags))
	articleHTML, err := frag.Article.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize article: %w", err)
	}
	doc.Find("#post-inner").SetHtml(articleHTML)
	doc.Find("title").First().SetText(meta.Title)

	data := newStructuredData(meta.Author)
	a.applyThumbnail(doc, loop, meta, &data)

	publishedISO := post.FormatISO(meta.PostDate)
	modifiedISO := post.FormatISO(meta.UpdateDate)

	setMetaContent(doc, MetaTitle, meta.Title)
	setMetaContent(doc, MetaDescription, meta.Excerpt)
	setMetaContent(doc, MetaURL, pageURL)
	setMetaContent(doc, MetaPublishedTime, publishedISO)
	setMetaContent(doc, MetaModifiedTime, modifiedISO)
	setMetaContent(doc, MetaTag, meta.TagList())

	data.Headline = meta.Title
	data.MainEntityOfPage = pageURL
	data.DatePublished = publishedISO
	data.DateModified = modifiedISO
	if len(meta.Tags) > 0 {
		data.Keywords = meta.Tags
	}
	script, err := data.scriptTag()
	if err != nil {
		return nil, err
	}
	doc.Find("body").AppendHtml(script)

	loop.Find(".post-title").First().SetText(meta.Title)
	loop.Find(".post-link").First().SetAttr("href", a.cfg.PostPath(meta.File))
	loop.Find(".post-date").First().SetText(post.FormatDisplay(meta.PostDate))
	loop.Find(".post-author").First().SetText(meta.Author.Name)
	loop.Find(".post-excerpt").First().SetText(meta.Excerpt)

	rendered, err := a.renderer.Render(doc)
	if err != nil {
		return nil, err
	}
	snippet, err := loop.Find("body").Html()
	if err != nil {
		return nil, fmt.Errorf("serialize snippet: %w", err)
	}

	return &Assembled{Meta: meta, HTML: rendered, Snippet: strings.TrimSpace(snippet), URL: pageURL}, nil
}

func (a *Assembler) tagList(tags []string) string {
	var b strings.Builder
	b.WriteString(`<div class="post-tags mt-30"><ul>`)
	for _, tag := range tags {
		href := a.cfg.BaseURL() + "?search=tag:" + url.QueryEscape(tag)
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, html.EscapeString(href), html.EscapeString(tag))
	}
	b.WriteString(`</ul></div>`)
	return b.String()
}

func (a *Assembler) applyThumbnail(doc, loop *goquery.Document, meta *post.Meta, data *structuredData) {
	if meta.Thumbnail == nil {
		doc.Find("#post-thumbnail").SetHtml("")
		loop.Find(".post-thumbnail").First().SetHtml("")
		setMetaContent(doc, MetaImage, "")
		return
	}

	hero := doc.Find("#post-thumbnail")
	hero.SetHtml(meta.Thumbnail.InnerHTML)
	// Fragment references are relative to the site base, not the post page.
	hero.Find("source[srcset], img[srcset]").Each(func(_ int, s *goquery.Selection) {
		s.SetAttr("srcset", a.absoluteSrcset(s.AttrOr("srcset", "")))
	})
	hero.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		s.SetAttr("src", a.AbsoluteURL(s.AttrOr("src", "")))
	})
	loop.Find(".post-thumbnail").First().SetHtml(fmt.Sprintf(
		`<img src="%s" alt="%s" class="img-fluid" width="%s"/>`,
		html.EscapeString(a.AbsoluteURL(meta.Thumbnail.Preview())),
		html.EscapeString(meta.Title),
		previewImageWidth,
	))

	image := a.AbsoluteURL(meta.Thumbnail.Primary())
	setMetaContent(doc, MetaImage, image)
	if image != "" {
		data.Image = []string{image}
	}
}

// AbsoluteURL resolves a site-relative reference against the site root and subfolder.
func (a *Assembler) AbsoluteURL(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "//"):
		return ref
	case strings.HasPrefix(ref, "/"):
		return a.cfg.Site.Root + ref
	default:
		return a.cfg.BaseURL() + ref
	}
}

// absoluteSrcset resolves the URL of every candidate in a srcset list and
// keeps its width or density descriptor.
func (a *Assembler) absoluteSrcset(srcset string) string {
	candidates := strings.Split(srcset, ",")
	out := candidates[:0]
	for _, c := range candidates {
		fields := strings.Fields(c)
		if len(fields) == 0 {
			continue
		}
		fields[0] = a.AbsoluteURL(fields[0])
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, ", ")
}

// setMetaContent fills every element carrying the marker class. An empty value
// removes the elements so no empty meta tags are emitted.
func setMetaContent(doc *goquery.Document, marker, value string) {
	elements := doc.Find("." + marker)
	if value == "" {
		elements.Remove()
		return
	}
	elements.SetAttr("content", value)
	elements.RemoveClass(marker)
	elements.Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.AttrOr("class", "")) == "" {
			s.RemoveAttr("class")
		}
	})
}

type structuredAuthor struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type structuredData struct {
	Context          string           `json:"@context"`
	Type             string           `json:"@type"`
	Author           structuredAuthor `json:"author"`
	Image            []string         `json:"image,omitempty"`
	Headline         string           `json:"headline,omitempty"`
	MainEntityOfPage string           `json:"mainEntityOfPage,omitempty"`
	DatePublished    string           `json:"datePublished,omitempty"`
	DateModified     string           `json:"dateModified,omitempty"`
	Keywords         []string         `json:"keywords,omitempty"`
}

func newStructuredData(author post.Author) structuredData {
	return structuredData{
		Context: "https://schema.org",
		Type:    "BlogPosting",
		Author:  structuredAuthor{Type: "Person", Name: author.Name, URL: author.URL},
	}
}

func (d structuredData) scriptTag() (string, error) {
	payload, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal structured data: %w", err)
	}
	return `<script type="application/ld+json">` + string(payload) + `</script>`, nil
}
