package build

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// DateSource supplies the timestamps a fragment's metadata starts from.
type DateSource interface {
	Dates(path string) (created, modified time.Time, err error)
}

// FileDates uses the file's modification time for both timestamps.
type FileDates struct{}

func (FileDates) Dates(path string) (time.Time, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, time.Time{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat fragment").
			WithContext("path", path).
			Build()
	}
	mod := info.ModTime().UTC()
	return mod, mod, nil
}

// GitDates takes the first and last commit touching a file as its created and
// modified times. Files without history fall back to FileDates.
type GitDates struct {
	repo     *git.Repository
	root     string
	fallback FileDates
}

// NewGitDates opens the repository containing dir.
func NewGitDates(dir string) (*GitDates, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "open git repository").
			WithContext("dir", dir).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "open git worktree").
			WithContext("dir", dir).
			Build()
	}
	return &GitDates{repo: repo, root: resolve(wt.Filesystem.Root())}, nil
}

func (g *GitDates) Dates(path string) (time.Time, time.Time, error) {
	rel, err := filepath.Rel(g.root, resolve(path))
	if err != nil {
		return g.fallback.Dates(path)
	}
	rel = filepath.ToSlash(rel)

	iter, err := g.repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return g.fallback.Dates(path)
	}
	defer iter.Close()

	var created, modified time.Time
	err = iter.ForEach(func(c *object.Commit) error {
		when := c.Committer.When.UTC()
		if modified.IsZero() {
			modified = when
		}
		created = when
		return nil
	})
	if err != nil || modified.IsZero() {
		return g.fallback.Dates(path)
	}
	return created, modified, nil
}

func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
