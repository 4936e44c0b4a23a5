package rebuild

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// gate tracks one request kind: whether a run is in flight and the single
// request coalesced behind it.
type gate struct {
	running bool
	pending *build.Request
}

// Dispatcher runs build requests with at most one run per gate in flight.
// Requests arriving while their gate is busy replace any pending request
// and run once the current run ends, so a burst costs at most two runs.
type Dispatcher struct {
	svc    build.Service
	onDone func(*build.Report, error)

	mu    sync.Mutex
	gates map[string]*gate
	wg    sync.WaitGroup
}

// NewDispatcher creates a dispatcher over svc. onDone, when set, is called
// after every run, once a full build's script bundle has finished.
func NewDispatcher(svc build.Service, onDone func(*build.Report, error)) *Dispatcher {
	return &Dispatcher{svc: svc, onDone: onDone, gates: make(map[string]*gate)}
}

// gateKey groups requests that must not overlap. Aggregate kinds share a
// gate per kind; single-file kinds get one per path.
func gateKey(req build.Request) string {
	if req.Path != "" {
		return string(req.Kind) + ":" + req.Path
	}
	return string(req.Kind)
}

// Submit starts req or queues it behind the run already holding its gate.
func (d *Dispatcher) Submit(ctx context.Context, req build.Request) {
	key := gateKey(req)

	d.mu.Lock()
	g, ok := d.gates[key]
	if !ok {
		g = &gate{}
		d.gates[key] = g
	}
	if g.running {
		g.pending = &req
		d.mu.Unlock()
		slog.Debug("Build coalesced behind running build", logfields.Kind(string(req.Kind)), logfields.Path(req.Trigger))
		return
	}
	g.running = true
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(ctx, key, g, req)
}

func (d *Dispatcher) drain(ctx context.Context, key string, g *gate, req build.Request) {
	defer d.wg.Done()
	for {
		d.execute(ctx, req)

		d.mu.Lock()
		if g.pending == nil || ctx.Err() != nil {
			g.running = false
			g.pending = nil
			delete(d.gates, key)
			d.mu.Unlock()
			return
		}
		req = *g.pending
		g.pending = nil
		d.mu.Unlock()
	}
}

func (d *Dispatcher) execute(ctx context.Context, req build.Request) {
	report, err := d.svc.Run(ctx, req)
	if err == nil && report != nil && report.Scripts != nil {
		if werr := report.Scripts.Wait(ctx); werr != nil {
			slog.Warn("Script bundle failed", logfields.Error(werr))
		}
	}
	if d.onDone != nil {
		d.onDone(report, err)
	}
}

// Busy reports whether any run is in flight.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.gates) > 0
}

// Wait blocks until every submitted run, pending ones included, has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
