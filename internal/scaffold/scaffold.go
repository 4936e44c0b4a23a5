// Package scaffold carries the starter site written by "blogbuilder init".
package scaffold

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

//go:embed site
var starter embed.FS

const root = "site"

// FS returns the starter source tree (templates, partials, styles, js, copy).
func FS() fs.FS {
	sub, err := fs.Sub(starter, root)
	if err != nil {
		panic(err)
	}
	return sub
}

// WriteSource writes the starter source tree into dir. Existing files are
// kept unless force is set.
func WriteSource(dir string, force bool) ([]string, error) {
	var written []string
	err := fs.WalkDir(FS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		target := filepath.Join(dir, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if _, statErr := os.Stat(target); statErr == nil && !force {
			return nil
		}
		data, err := fs.ReadFile(FS(), path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		written = append(written, target)
		return nil
	})
	if err != nil {
		return written, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write starter site").
			WithContext("dir", dir).
			Build()
	}
	return written, nil
}
