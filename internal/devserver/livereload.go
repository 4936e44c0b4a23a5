package devserver

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

const (
	// RouteLiveReload is the SSE endpoint browsers subscribe to.
	RouteLiveReload = "/livereload"
	// RouteLiveReloadScript serves the client script.
	RouteLiveReloadScript = "/livereload.js"

	heartbeatInterval = 30 * time.Second
)

// Hub fans out site versions to connected browsers over server-sent events.
type Hub struct {
	mu          sync.RWMutex
	nextID      int
	clients     map[int]*hubClient
	closed      bool
	lastVersion string
	heartbeat   time.Duration
}

type hubClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: map[int]*hubClient{}, heartbeat: heartbeatInterval}
}

// ServeHTTP streams version events until the client disconnects or the hub
// shuts down. The first event carries the current version, which is empty
// before any broadcast.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &hubClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastVersion
	count := len(h.clients)
	h.mu.Unlock()
	slog.Debug("Live reload client connected", logfields.Clients(count))

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("Live reload write failed", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(": connected\n\n" + event(current)) {
		h.removeClient(client.id)
		return
	}

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()
	for {
		select {
		case <-r.Context().Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			return
		case <-hb.C:
			send(": ping\n\n")
		case version := <-client.ch:
			send(event(version))
		}
	}
}

func event(version string) string {
	return "data: {\"version\":\"" + version + "\"}\n\n"
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Broadcast sends version to every client. Repeating the last version is a
// no-op; clients whose buffer is full are dropped.
func (h *Hub) Broadcast(version string) {
	h.mu.Lock()
	if h.closed || version == "" || version == h.lastVersion {
		h.mu.Unlock()
		return
	}
	h.lastVersion = version
	snapshot := make([]*hubClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- version:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("Live reload broadcast", "version", version, logfields.Clients(len(snapshot)), "dropped", dropped)
}

// Clients reports the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*hubClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// ClientScript reloads the page whenever the announced version changes.
const ClientScript = `(() => {
  if (window.__BLOGBUILDER_LR__) return;
  window.__BLOGBUILDER_LR__ = true;
  let current = null;
  function connect() {
    const es = new EventSource('` + RouteLiveReload + `');
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (current === null) { current = p.version; return; }
        if (p.version && p.version !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();`

func serveClientScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write([]byte(ClientScript)); err != nil {
		slog.Debug("Failed to write live reload script", logfields.Error(err))
	}
}
