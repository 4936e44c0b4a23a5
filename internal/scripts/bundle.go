// Package scripts concatenates and minifies the site's script sources into a
// single bundle.
package scripts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tdewolff/minify/v2"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/minifier"
)

const (
	// PostLoopToken is replaced by the homepage snippet template markup.
	PostLoopToken = "[POSTLOOP]"
	// BundleFile is the bundle name under the output js directory.
	BundleFile = "bundle.min.js"
	separator  = "\r\n"
)

// Bundler builds bundle.min.js.
type Bundler struct {
	SourceDir string
	OutputDir string
	Min       *minify.M
}

// Sources lists the script files that go into the bundle, in name order.
// Already minified files are left out.
func (b *Bundler) Sources() ([]string, error) {
	entries, err := os.ReadDir(b.SourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "list scripts").
			WithContext("dir", b.SourceDir).
			Build()
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".js") || strings.Contains(name, ".min.") {
			continue
		}
		files = append(files, filepath.Join(b.SourceDir, name))
	}
	sort.Strings(files)
	return files, nil
}

// Build concatenates the sources, substitutes the post-loop markup, minifies
// the result and writes it. It returns the path written.
func (b *Bundler) Build(ctx context.Context, postLoop string) (string, error) {
	files, err := b.Sources()
	if err != nil {
		return "", err
	}

	var joined strings.Builder
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "read script").WithContext("path", f).Build()
		}
		joined.Write(data)
		joined.WriteString(separator)
	}

	source := strings.Replace(joined.String(), PostLoopToken, postLoop, 1)

	m := b.Min
	if m == nil {
		m = minifier.New()
	}
	bundle, err := m.String(minifier.MediaJS, source)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryCompiler, "minify scripts").Build()
	}

	target := filepath.Join(b.OutputDir, BundleFile)
	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create script output dir: %w", err)
	}
	if err := os.WriteFile(target, []byte(bundle), 0o644); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "write bundle").WithContext("path", target).Build()
	}
	return target, nil
}
