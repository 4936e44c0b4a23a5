package rebuild

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

func testConfig(src string) *config.Config {
	return &config.Config{
		Source: src,
		Output: config.OutputConfig{Main: filepath.Join(src, "..", "build"), Posts: "posts"},
		Watch:  config.WatchConfig{Debounce: config.Duration(10 * time.Millisecond)},
	}
}

func TestClassify(t *testing.T) {
	cfg := testConfig("/site/src")
	cases := []struct {
		name string
		ev   Event
		kind build.Kind
		path string
	}{
		{"fragment", Event{OpChange, "/site/src/partials/a.html"}, build.KindPosts, ""},
		{"fragment removed", Event{OpUnlink, "/site/src/partials/a.html"}, build.KindPosts, ""},
		{"stylesheet", Event{OpChange, "/site/src/styles/_vars.scss"}, build.KindCSS, ""},
		{"template", Event{OpChange, "/site/src/templates/shell.html"}, build.KindFull, ""},
		{"script", Event{OpAdd, "/site/src/js/search.js"}, build.KindScripts, ""},
		{"static add", Event{OpAdd, "/site/src/copy/img/a.png"}, build.KindCopy, "/site/src/copy/img/a.png"},
		{"static change", Event{OpChange, "/site/src/copy/robots.txt"}, build.KindCopy, "/site/src/copy/robots.txt"},
		{"static unlink", Event{OpUnlink, "/site/src/copy/img/a.png"}, build.KindRemove, "/site/src/copy/img/a.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, ok := Classify(cfg, tc.ev)
			require.True(t, ok)
			require.Equal(t, tc.kind, req.Kind)
			require.Equal(t, tc.path, req.Path)
			require.Equal(t, tc.ev.Path, req.Trigger)
		})
	}
}

func TestClassify_Unrelated(t *testing.T) {
	cfg := testConfig("/site/src")
	for _, p := range []string{"/site/src/site-config.yaml", "/site/src/partials", "/site/src/partialsx/a.html", "/elsewhere/partials/a.html"} {
		_, ok := Classify(cfg, Event{OpChange, p})
		require.False(t, ok, p)
	}
}

func TestOpFromNotify(t *testing.T) {
	require.Equal(t, OpAdd, opFromNotify(fsnotify.Create))
	require.Equal(t, OpChange, opFromNotify(fsnotify.Write))
	require.Equal(t, OpUnlink, opFromNotify(fsnotify.Remove))
	require.Equal(t, OpUnlink, opFromNotify(fsnotify.Rename))
	require.Equal(t, Op(""), opFromNotify(fsnotify.Chmod))
}

// blockingService holds every run until released and counts runs per kind.
type blockingService struct {
	mu      sync.Mutex
	runs    map[build.Kind]int
	active  map[build.Kind]int
	overlap bool
	started chan build.Kind
	release chan struct{}
}

func newBlockingService() *blockingService {
	return &blockingService{
		runs:    map[build.Kind]int{},
		active:  map[build.Kind]int{},
		started: make(chan build.Kind, 16),
		release: make(chan struct{}),
	}
}

func (s *blockingService) Run(_ context.Context, req build.Request) (*build.Report, error) {
	s.mu.Lock()
	s.runs[req.Kind]++
	s.active[req.Kind]++
	if s.active[req.Kind] > 1 {
		s.overlap = true
	}
	s.mu.Unlock()

	s.started <- req.Kind
	<-s.release

	s.mu.Lock()
	s.active[req.Kind]--
	s.mu.Unlock()
	return &build.Report{Kind: req.Kind, Status: build.StatusSuccess}, nil
}

func (s *blockingService) count(k build.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[k]
}

func TestDispatcher_CoalescesBurst(t *testing.T) {
	svc := newBlockingService()
	var done atomic.Int32
	d := NewDispatcher(svc, func(*build.Report, error) { done.Add(1) })

	d.Submit(t.Context(), build.Request{Kind: build.KindPosts})
	require.Equal(t, build.KindPosts, <-svc.started)
	for range 5 {
		d.Submit(t.Context(), build.Request{Kind: build.KindPosts})
	}
	require.True(t, d.Busy())

	close(svc.release)
	d.Wait()

	require.Equal(t, 2, svc.count(build.KindPosts))
	require.Equal(t, int32(2), done.Load())
	require.False(t, svc.overlap)
	require.False(t, d.Busy())
}

func TestDispatcher_KindsHaveSeparateGates(t *testing.T) {
	svc := newBlockingService()
	d := NewDispatcher(svc, nil)

	d.Submit(t.Context(), build.Request{Kind: build.KindPosts})
	d.Submit(t.Context(), build.Request{Kind: build.KindCSS})
	got := map[build.Kind]bool{<-svc.started: true, <-svc.started: true}
	require.True(t, got[build.KindPosts])
	require.True(t, got[build.KindCSS])

	close(svc.release)
	d.Wait()
	require.Equal(t, 1, svc.count(build.KindPosts))
	require.Equal(t, 1, svc.count(build.KindCSS))
}

func TestDispatcher_WaitsForScriptTask(t *testing.T) {
	var bundled atomic.Bool
	svc := serviceFunc(func(ctx context.Context, req build.Request) (*build.Report, error) {
		r := &build.Report{Kind: req.Kind, Status: build.StatusSuccess}
		r.Scripts = scriptsTask(ctx, func() {
			time.Sleep(20 * time.Millisecond)
			bundled.Store(true)
		})
		return r, nil
	})
	var sawBundle atomic.Bool
	d := NewDispatcher(svc, func(*build.Report, error) { sawBundle.Store(bundled.Load()) })

	d.Submit(t.Context(), build.Request{Kind: build.KindFull})
	d.Wait()
	require.True(t, sawBundle.Load())
}

func TestDebouncer_CollapsesBurst(t *testing.T) {
	var calls atomic.Int32
	fired := make(chan struct{}, 4)
	d := NewDebouncer(30*time.Millisecond, func() {
		calls.Add(1)
		fired <- struct{}{}
	})
	for range 5 {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never fired")
	}
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}

func TestDebouncer_Stop(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })
	d.Trigger()
	d.Stop()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), calls.Load())
}

func TestWatcher_ShouldIgnore(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, []string{"**/*.tmp", "drafts/**"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	for _, p := range []string{".hidden", "partials/.a.html.swp", "partials/a.html~", "#a#", "x/y.tmp", "drafts/post.html"} {
		require.True(t, w.ShouldIgnore(filepath.Join(root, filepath.FromSlash(p))), p)
	}
	for _, p := range []string{"partials/a.html", "styles/style.scss", "copy/drafts.txt"} {
		require.False(t, w.ShouldIgnore(filepath.Join(root, filepath.FromSlash(p))), p)
	}
}

func TestNewWatcher_InvalidPattern(t *testing.T) {
	_, err := NewWatcher(t.TempDir(), []string{"[unclosed"})
	require.Error(t, err)
}

func TestWatcher_ReportsNestedChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "partials"), 0o755))
	w, err := NewWatcher(root, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	events := make(chan Event, 16)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(ev Event) { events <- ev }) }()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})

	target := filepath.Join(root, "partials", "a.html")
	require.NoError(t, os.WriteFile(target, []byte("<article/>"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Path == target {
				return
			}
		case <-deadline:
			t.Fatal("no event for created fragment")
		}
	}
}

func TestScheduler_Fires(t *testing.T) {
	fired := make(chan struct{}, 8)
	s, err := NewScheduler(50*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled task never ran")
	}
}

type recordingReloader struct {
	mu       sync.Mutex
	versions []string
}

func (r *recordingReloader) Broadcast(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions = append(r.versions, v)
}

func (r *recordingReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.versions)
}

func TestLoop_HandleDispatchesAndReloads(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "partials"), 0o755))
	cfg := testConfig(src)

	var mu sync.Mutex
	var kinds []build.Kind
	svc := serviceFunc(func(_ context.Context, req build.Request) (*build.Report, error) {
		mu.Lock()
		kinds = append(kinds, req.Kind)
		mu.Unlock()
		return &build.Report{Kind: req.Kind}, nil
	})
	reloader := &recordingReloader{}
	loop, err := NewLoop(cfg, svc, reloader, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = loop.watcher.Close() })

	loop.Handle(t.Context(), Event{OpChange, filepath.Join(src, "partials", "a.html")})
	loop.Handle(t.Context(), Event{OpChange, filepath.Join(src, "notes.txt")})
	loop.Dispatcher().Wait()

	require.Eventually(t, func() bool { return reloader.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []build.Kind{build.KindPosts}, kinds)
}
