package page

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/tdewolff/minify/v2"

	"git.home.luguber.info/inful/blogbuilder/internal/minifier"
)

const (
	documentPrefix = "<!DOCTYPE html>\n<html lang=\"en\">"
	documentSuffix = "\n</html>"
)

// Renderer turns a composed document into the final, minified page.
type Renderer struct {
	min *minify.M
}

// NewRenderer returns a Renderer; a nil minifier selects the shared default.
func NewRenderer(m *minify.M) *Renderer {
	if m == nil {
		m = minifier.New()
	}
	return &Renderer{min: m}
}

// Render minifies the document's head and body and wraps them in the fixed
// document envelope.
func (r *Renderer) Render(doc *goquery.Document) (string, error) {
	inner, err := doc.Find("html").Html()
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	minified, err := r.min.String(minifier.MediaHTML, inner)
	if err != nil {
		return "", fmt.Errorf("minify document: %w", err)
	}
	return documentPrefix + minified + documentSuffix, nil
}
