package editor

import (
	"context"
	"html"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/page"
	"git.home.luguber.info/inful/blogbuilder/internal/post"
)

// Post is the metadata submitted with a save.
type Post struct {
	Title      string
	Excerpt    string
	Tags       string
	PostDate   time.Time
	AuthorName string
	AuthorURL  string
	// Thumbnail and Images are staged file names.
	Thumbnail string
	Images    []string
}

// SaveResult is the JSON body returned for a save.
type SaveResult struct {
	Success bool   `json:"success"`
	Post    string `json:"post,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Saver writes new posts.
type Saver struct {
	cfg     *config.Config
	staging *Staging
}

// NewSaver creates a Saver moving uploads out of staging.
func NewSaver(cfg *config.Config, staging *Staging) *Saver {
	return &Saver{cfg: cfg, staging: staging}
}

type move struct {
	from, to string
}

// saveTx records every mutation of one save so it can be undone.
type saveTx struct {
	imageDir       string
	createdDir     bool
	moved          []move
	partial        string
	createdPartial bool
}

func (tx *saveTx) move(from, to string) error {
	if err := moveFile(from, to); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "move staged file").
			WithContext("from", from).
			WithContext("to", to).
			Build()
	}
	tx.moved = append(tx.moved, move{from: from, to: to})
	return nil
}

// rollback puts moved uploads back into staging and removes what the save
// created. Failures are swallowed.
func (tx *saveTx) rollback() {
	for i := len(tx.moved) - 1; i >= 0; i-- {
		m := tx.moved[i]
		if err := moveFile(m.to, m.from); err != nil {
			slog.Debug("Rollback could not restore staged file", "path", m.from, "error", err)
		}
	}
	if tx.createdDir {
		_ = os.RemoveAll(tx.imageDir)
	}
	if tx.createdPartial {
		_ = os.Remove(tx.partial)
	}
}

// Save writes p and doc as a new fragment. An existing image directory or
// fragment for the slug fails with an already-exists error before anything
// is touched.
// Any later failure rolls the filesystem back and returns the error.
func (s *Saver) Save(ctx context.Context, p Post, doc *Document) (*SaveResult, error) {
	slug := Slug(p.Title)
	if slug == "" {
		return nil, ferrors.ValidationError("title must contain at least one letter or digit").Build()
	}
	if doc == nil {
		doc = &Document{}
	}

	tx := &saveTx{
		imageDir: filepath.Join(s.cfg.ImagesOutputDir(), slug),
		partial:  filepath.Join(s.cfg.PartialsDir(), slug+".html"),
	}
	if exists(tx.imageDir) || exists(tx.partial) {
		return nil, ferrors.AlreadyExistsError("Post with the same path already exists.").
			WithContext("slug", slug).
			Build()
	}

	if err := s.apply(tx, slug, p, doc); err != nil {
		tx.rollback()
		slog.WarnContext(ctx, "Save rolled back", "slug", slug, "error", err)
		return nil, err
	}

	s.staging.Clear()
	slog.InfoContext(ctx, "Post saved", "slug", slug, "fragment", tx.partial)
	return &SaveResult{Success: true, Post: s.cfg.PostPath(slug + ".html")}, nil
}

func (s *Saver) apply(tx *saveTx, slug string, p Post, doc *Document) error {
	if err := os.MkdirAll(tx.imageDir, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create image directory").WithContext("dir", tx.imageDir).Build()
	}
	tx.createdDir = true

	imageURL := func(name string) string {
		return s.cfg.SitePath() + "img/" + slug + "/" + name
	}
	err := doc.RewriteImages(func(url string) (string, error) {
		name, err := s.staging.NameFromURL(url)
		if err != nil {
			return "", err
		}
		if err := tx.move(s.staging.Path(name), filepath.Join(tx.imageDir, name)); err != nil {
			return "", err
		}
		return imageURL(name), nil
	})
	if err != nil {
		return err
	}

	for _, name := range p.Images {
		if err := tx.move(s.staging.Path(name), filepath.Join(tx.imageDir, name)); err != nil {
			return err
		}
	}

	thumbnail := ""
	if p.Thumbnail != "" {
		if err := tx.move(s.staging.Path(p.Thumbnail), filepath.Join(tx.imageDir, p.Thumbnail)); err != nil {
			return err
		}
		thumbnail = "img/" + slug + "/" + p.Thumbnail
	}

	body, err := doc.RenderHTML()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "render editor document").Build()
	}

	skeleton, err := page.LoadEmptyPost(s.cfg.TemplatesDir())
	if err != nil {
		return err
	}
	fragment := fillSkeleton(skeleton, p, body, thumbnail)

	if err := os.MkdirAll(filepath.Dir(tx.partial), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create partials directory").Build()
	}
	tx.createdPartial = true
	if err := os.WriteFile(tx.partial, []byte(fragment), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write fragment").WithContext("path", tx.partial).Build()
	}
	return nil
}

// fillSkeleton substitutes the empty-post placeholders. Everything except
// the body is escaped.
func fillSkeleton(skeleton string, p Post, body, thumbnail string) string {
	r := strings.NewReplacer(
		"==title==", html.EscapeString(p.Title),
		"==author-name==", html.EscapeString(p.AuthorName),
		"==formatted-date==", html.EscapeString(post.FormatDisplay(p.PostDate)),
		"==body==", body,
		"==thumbnail==", html.EscapeString(thumbnail),
		"==raw-post-date==", html.EscapeString(post.FormatISO(p.PostDate)),
		"==tags==", html.EscapeString(p.Tags),
		"==excerpt==", html.EscapeString(p.Excerpt),
		"==author-url==", html.EscapeString(p.AuthorURL),
	)
	return r.Replace(skeleton)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// moveFile renames from to to, copying when they sit on different devices.
func moveFile(from, to string) error {
	if err := os.Rename(from, to); err == nil {
		return nil
	} else if _, statErr := os.Stat(from); statErr != nil {
		return err
	}
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(to)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(from)
}
