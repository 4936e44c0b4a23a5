package rebuild

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// Op is the kind of filesystem change.
type Op string

const (
	OpAdd    Op = "add"
	OpChange Op = "change"
	OpUnlink Op = "unlink"
)

// Event is one change under the source tree.
type Event struct {
	Op   Op
	Path string
}

// opFromNotify maps an fsnotify op; chmod-only events map to "".
func opFromNotify(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpAdd
	case op.Has(fsnotify.Write):
		return OpChange
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpUnlink
	default:
		return ""
	}
}

// Classify maps an event to the narrowest build that covers it, by the source
// directory the path lives in. ok is false for paths no build depends on.
func Classify(cfg *config.Config, ev Event) (build.Request, bool) {
	req := build.Request{Trigger: ev.Path}
	switch {
	case within(cfg.PartialsDir(), ev.Path):
		req.Kind = build.KindPosts
	case within(cfg.StylesDir(), ev.Path):
		req.Kind = build.KindCSS
	case within(cfg.TemplatesDir(), ev.Path):
		req.Kind = build.KindFull
	case within(cfg.ScriptsDir(), ev.Path):
		req.Kind = build.KindScripts
	case within(cfg.CopyDir(), ev.Path):
		req.Path = ev.Path
		if ev.Op == OpUnlink {
			req.Kind = build.KindRemove
		} else {
			req.Kind = build.KindCopy
		}
	default:
		return build.Request{}, false
	}
	return req, true
}

// within reports whether path lies strictly below dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
