package rebuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Watcher reports changes anywhere below a root directory. Directories
// created after start are watched too.
type Watcher struct {
	root   string
	ignore []string
	fs     *fsnotify.Watcher
}

// NewWatcher watches root recursively. ignore holds doublestar patterns
// matched against slash-separated paths relative to root.
func NewWatcher(root string, ignore []string) (*Watcher, error) {
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{root: filepath.Clean(root), ignore: ignore, fs: fw}
	if err := w.addDirsRecursive(w.root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers events to handle until ctx is done or the watcher closes.
func (w *Watcher) Run(ctx context.Context, handle func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleFileEvent(ev, handle)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) handleFileEvent(ev fsnotify.Event, handle func(Event)) {
	if w.ShouldIgnore(ev.Name) {
		return
	}
	op := opFromNotify(ev.Op)
	if op == "" {
		return
	}
	if op == OpAdd {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
	handle(Event{Op: op, Path: ev.Name})
}

func (w *Watcher) addDirsRecursive(root string) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("watch root: %w", err)
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.root && w.ShouldIgnore(path) {
				return filepath.SkipDir
			}
			if err := w.fs.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// ShouldIgnore reports whether changes to path are noise: hidden files,
// editor swap files and anything matching an ignore pattern.
func (w *Watcher) ShouldIgnore(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	if base == "Thumbs.db" {
		return true
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
