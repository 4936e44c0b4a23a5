package page

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Template names under the templates directory, without extension.
const (
	TemplateShell     = "shell"
	TemplatePost      = "post-template"
	TemplatePostLoop  = "post-loop"
	TemplateIndex     = "index"
	TemplateNotFound  = "404"
	TemplateEmptyPost = "empty-post"
)

// MainContentID is the shell region page-specific templates are composed into.
const MainContentID = "mainContent"

// Templates holds the raw template markup plus the pre-composed post page.
type Templates struct {
	Shell    string
	PostLoop string
	Index    string
	NotFound string
	// Post is the shell with its main-content region replaced by the post template.
	Post string
}

// LoadTemplates reads every page template from dir and composes the post page.
func LoadTemplates(dir string) (*Templates, error) {
	read := func(name string) (string, error) {
		path := filepath.Join(dir, name+".html")
		data, err := os.ReadFile(path)
		if err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "read template").
				WithContext("template", name).
				WithContext("path", path).
				Build()
		}
		return string(data), nil
	}

	t := &Templates{}
	var err error
	if t.Shell, err = read(TemplateShell); err != nil {
		return nil, err
	}
	if t.PostLoop, err = read(TemplatePostLoop); err != nil {
		return nil, err
	}
	if t.Index, err = read(TemplateIndex); err != nil {
		return nil, err
	}
	if t.NotFound, err = read(TemplateNotFound); err != nil {
		return nil, err
	}
	postTemplate, err := read(TemplatePost)
	if err != nil {
		return nil, err
	}
	if t.Post, err = t.ComposeShell(postTemplate); err != nil {
		return nil, fmt.Errorf("compose post template: %w", err)
	}
	return t, nil
}

// LoadEmptyPost reads the fragment skeleton used by the content-save flow.
func LoadEmptyPost(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, TemplateEmptyPost+".html"))
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "read empty-post template").Build()
	}
	return string(data), nil
}

// ComposeShell returns the shell markup with its main-content region replaced
// by the body of inner.
func (t *Templates) ComposeShell(inner string) (string, error) {
	doc, err := t.ShellDocument()
	if err != nil {
		return "", err
	}
	if err := composeInto(doc, inner); err != nil {
		return "", err
	}
	return goquery.OuterHtml(doc.Selection)
}

// ShellDocument returns a fresh parse of the shell template.
func (t *Templates) ShellDocument() (*goquery.Document, error) {
	return parse(t.Shell)
}

// PostDocument returns a fresh parse of the composed post page.
func (t *Templates) PostDocument() (*goquery.Document, error) {
	return parse(t.Post)
}

// PostLoopDocument returns a fresh parse of the homepage snippet template.
func (t *Templates) PostLoopDocument() (*goquery.Document, error) {
	return parse(t.PostLoop)
}

// PostLoopBody returns the inner body markup of the homepage snippet template.
func (t *Templates) PostLoopBody() (string, error) {
	doc, err := t.PostLoopDocument()
	if err != nil {
		return "", err
	}
	return doc.Find("body").Html()
}

func composeInto(doc *goquery.Document, inner string) error {
	region := doc.Find("#" + MainContentID)
	if region.Length() == 0 {
		return ferrors.BuildError("shell template has no main content region").
			WithContext("id", MainContentID).
			Build()
	}
	innerDoc, err := parse(inner)
	if err != nil {
		return err
	}
	body, err := innerDoc.Find("body").Html()
	if err != nil {
		return err
	}
	region.SetHtml(body)
	return nil
}

func parse(markup string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}
