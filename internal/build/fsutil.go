package build

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// fragmentExt is the extension a file needs to be picked up as a post.
const fragmentExt = ".html"

// ListFragments returns the names of the content fragments in dir, sorted.
// A missing directory holds no fragments.
func ListFragments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "list fragments").
			WithContext("dir", dir).
			Build()
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), fragmentExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ClearDir removes everything inside dir except the entries named in keep.
// dir itself is kept, and created when missing.
func ClearDir(dir string, keep ...string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create directory").WithContext("dir", dir).Build()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read directory").WithContext("dir", dir).Build()
	}
	for _, e := range entries {
		if slices.Contains(keep, e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clear directory").WithContext("path", path).Build()
		}
	}
	return nil
}

// CopyFile copies src to dst, creating dst's parent directories.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "open source file").WithContext("path", src).Build()
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create directory").WithContext("path", dst).Build()
	}
	out, err := os.Create(dst)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create file").WithContext("path", dst).Build()
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "copy file").WithContext("path", dst).Build()
	}
	return out.Close()
}

// CopyTree mirrors the src tree into dst and returns the copied files
// relative to src. A missing src copies nothing.
func CopyTree(src, dst string) ([]string, error) {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil, nil
	}
	var copied []string
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := CopyFile(path, target); err != nil {
			return err
		}
		copied = append(copied, rel)
		return nil
	})
	if err != nil {
		return copied, ferrors.WrapError(err, ferrors.CategoryFileSystem, "copy tree").WithContext("src", src).Build()
	}
	return copied, nil
}

// RemoveBestEffort deletes path and anything below it. Failures are logged
// and swallowed; a path that is already gone counts as removed.
func RemoveBestEffort(path string) {
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		slog.Debug("Best-effort removal failed", "path", path, "error", err)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create directory").WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write file").WithContext("path", path).Build()
	}
	return nil
}
