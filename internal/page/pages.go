package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	pwaUpdateScript  = `<script type="module">import 'https://cdn.jsdelivr.net/npm/@pwabuilder/pwaupdate';</script>`
	pwaUpdateElement = `<pwa-update></pwa-update>`
)

// RenderNotFound renders the 404 page.
func (a *Assembler) RenderNotFound() (string, error) {
	composed, err := a.tpl.ComposeShell(a.tpl.NotFound)
	if err != nil {
		return "", err
	}
	doc, err := parse(composed)
	if err != nil {
		return "", err
	}
	return a.renderer.Render(doc)
}

// RenderHomepage renders the index page with the snippets in feed order.
func (a *Assembler) RenderHomepage(snippets []string) (string, error) {
	index, err := parse(a.tpl.Index)
	if err != nil {
		return "", err
	}
	index.Find("#post-container").SetHtml(strings.Join(snippets, " "))
	indexHTML, err := goquery.OuterHtml(index.Selection)
	if err != nil {
		return "", err
	}

	composed, err := a.tpl.ComposeShell(indexHTML)
	if err != nil {
		return "", err
	}
	doc, err := parse(composed)
	if err != nil {
		return "", err
	}
	if a.cfg.Site.PWA {
		doc.Find("head").AppendHtml(pwaUpdateScript)
		doc.Find("body").AppendHtml(pwaUpdateElement)
	}
	return a.renderer.Render(doc)
}
