// Package minifier configures the shared HTML, CSS, JS and JSON minifier.
package minifier

import (
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
)

const (
	MediaHTML = "text/html"
	MediaCSS  = "text/css"
	MediaJS   = "application/javascript"
)

// New returns a minifier for the media types the build emits. Inline <style>,
// <script> and JSON-LD blocks inside HTML are minified with the same instance.
func New() *minify.M {
	m := minify.New()
	m.Add(MediaHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc(MediaCSS, css.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	m.AddFuncRegexp(regexp.MustCompile("[/+]json$"), json.Minify)
	return m
}
