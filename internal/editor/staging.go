package editor

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// StagingRoute is the URL prefix staged uploads are served under.
const StagingRoute = "/img_temp/"

// Staging holds uploads until a save moves them into the output tree.
type Staging struct {
	Dir string
}

// Put stores r under a fresh name keeping the extension of filename and
// returns the stored name.
func (s *Staging) Put(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "create staging directory").WithContext("dir", s.Dir).Build()
	}
	name := uuid.NewString() + cleanExt(filename)
	target := filepath.Join(s.Dir, name)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "create staged file").WithContext("path", target).Build()
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "write staged file").WithContext("path", target).Build()
	}
	if err := f.Close(); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "close staged file").WithContext("path", target).Build()
	}
	return name, nil
}

// URL is the address a staged file is served at.
func (s *Staging) URL(name string) string {
	return StagingRoute + name
}

// Path returns the file behind a staged name.
func (s *Staging) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// NameFromURL extracts the staged file name from a staging URL. Anything
// else is rejected so a save cannot move files from outside staging.
func (s *Staging) NameFromURL(url string) (string, error) {
	rest, ok := strings.CutPrefix(url, StagingRoute)
	if !ok {
		rest, ok = strings.CutPrefix(url, strings.TrimPrefix(StagingRoute, "/"))
	}
	if !ok || rest == "" || path.Base(rest) != rest || rest == ".." {
		return "", ferrors.ValidationError("image is not a staged upload").WithContext("url", url).Build()
	}
	return rest, nil
}

// Remove deletes the named staged files. Empty names and failures are ignored.
func (s *Staging) Remove(names ...string) {
	for _, name := range names {
		if name == "" || filepath.Base(name) != name {
			continue
		}
		_ = os.Remove(s.Path(name))
	}
}

// Clear removes every staged file. Failures are ignored.
func (s *Staging) Clear() {
	_ = os.RemoveAll(s.Dir)
}

// cleanExt keeps a short alphanumeric extension, lowercased.
func cleanExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
