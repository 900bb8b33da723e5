// Package loader implements the bounded-parallelism page loader (spec.md
// C7): a global FIFO of per-tab loads served by a fixed worker pool,
// matching the teacher's fixed-worker-goroutines-over-a-queue shape used
// for packet processing.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/httptim/rednet-core/internal/helpers"
)

var (
	ErrTabAlreadyLoading = errors.New("loader: tab is already loading")
	ErrTabNotLoading     = errors.New("loader: tab has no in-flight or queued load")
)

type tabIDKey struct{}

// TabIDFromContext returns the tab ID the in-flight Fetcher call is
// loading for, so a Fetcher can route fetched content back to the
// right tab (spec.md §4.7: each tab serializes to at most one load).
func TabIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tabIDKey{}).(string)
	return id, ok
}

// Callback is invoked exactly once per queued load, with success/failure
// and an error message on failure (spec.md §4.7).
type Callback func(success bool, tabID, url string, errMsg string)

// Fetcher performs one load attempt. It must respect ctx cancellation.
// Handlers (C8) implement this.
type Fetcher func(ctx context.Context, url string) (content []byte, contentType, title string, err error)

// Config bounds the loader's concurrency and retry behavior (spec.md §6).
type Config struct {
	MaxConcurrent int           // default 3, bounded [1,10]
	LoadTimeout   time.Duration // default 10s
	MaxRetries    int           // default 2
}

type request struct {
	tabID     string
	url       string
	callback  Callback
	attempt   int
	cancelled bool
	cancel    context.CancelFunc
}

// Loader serializes each tab to at most one in-flight load at a time,
// and bounds total concurrent loads across all tabs to cfg.MaxConcurrent.
type Loader struct {
	cfg    Config
	fetch  Fetcher
	logger *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	busyTabs map[string]bool
	queue    []*request
	inFlight map[string]*request

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a loader with cfg.MaxConcurrent worker goroutines.
func New(cfg Config, fetch Fetcher, logger *slog.Logger) *Loader {
	cfg.MaxConcurrent = helpers.ClampInt(cfg.MaxConcurrent, 1, 10)
	l := &Loader{
		cfg: cfg, fetch: fetch, logger: logger,
		busyTabs: map[string]bool{},
		inFlight: map[string]*request{},
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Run starts the worker pool and blocks until ctx is cancelled and every
// worker has exited.
func (l *Loader) Run(ctx context.Context) {
	l.ctx, l.cancel = context.WithCancel(ctx)
	for i := 0; i < l.cfg.MaxConcurrent; i++ {
		l.wg.Add(1)
		go l.workerLoop()
	}
	go func() {
		<-l.ctx.Done()
		l.mu.Lock()
		l.cond.Broadcast()
		l.mu.Unlock()
	}()
	l.wg.Wait()
}

// Stop signals every worker to exit and waits for them to drain.
func (l *Loader) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
}

func (l *Loader) workerLoop() {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && l.ctx.Err() == nil {
			l.cond.Wait()
		}
		if l.ctx.Err() != nil {
			l.mu.Unlock()
			return
		}
		req := l.queue[0]
		l.queue = l.queue[1:]
		reqCtx, cancel := context.WithTimeout(context.WithValue(l.ctx, tabIDKey{}, req.tabID), l.cfg.LoadTimeout)
		req.cancel = cancel
		l.inFlight[req.tabID] = req
		l.mu.Unlock()

		l.process(req, reqCtx)
		cancel()
	}
}

// QueueLoad enqueues url for tabID. It rejects the request if the tab
// already has a load queued or in flight (spec.md §4.7).
func (l *Loader) QueueLoad(tabID, url string, callback Callback) error {
	l.mu.Lock()
	if l.busyTabs[tabID] {
		l.mu.Unlock()
		return ErrTabAlreadyLoading
	}
	l.busyTabs[tabID] = true
	l.queue = append(l.queue, &request{tabID: tabID, url: url, callback: callback})
	l.cond.Signal()
	l.mu.Unlock()
	return nil
}

func (l *Loader) process(req *request, reqCtx context.Context) {
	type result struct {
		content     []byte
		contentType string
		title       string
		err         error
	}
	done := make(chan result, 1)
	go func() {
		content, contentType, title, err := l.fetch(reqCtx, req.url)
		done <- result{content, contentType, title, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-reqCtx.Done():
		res = result{err: reqCtx.Err()}
	}

	l.finish(req, res.err)
}

func (l *Loader) finish(req *request, err error) {
	l.mu.Lock()
	if l.inFlight[req.tabID] != req {
		l.mu.Unlock()
		return
	}
	delete(l.inFlight, req.tabID)
	if req.cancelled {
		l.mu.Unlock()
		return
	}

	if err != nil && req.attempt < l.cfg.MaxRetries {
		req.attempt++
		req.cancel = nil
		l.queue = append(l.queue, req)
		l.cond.Signal()
		l.mu.Unlock()
		return
	}
	l.busyTabs[req.tabID] = false
	l.mu.Unlock()

	success := err == nil
	errMsg := ""
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			errMsg = "Timeout"
		} else {
			errMsg = err.Error()
		}
	}
	if req.callback != nil {
		req.callback(success, req.tabID, req.url, errMsg)
	}
}

// CancelLoad removes tabID's queued request (if any) and cancels its
// in-flight load, reporting "cancelled" to the callback exactly once.
func (l *Loader) CancelLoad(tabID string) error {
	l.mu.Lock()
	var queuedReq *request
	for i, r := range l.queue {
		if r.tabID == tabID {
			queuedReq = r
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			break
		}
	}
	running := l.inFlight[tabID]
	if running != nil {
		running.cancelled = true
	}
	busy := l.busyTabs[tabID]
	l.busyTabs[tabID] = false
	l.mu.Unlock()

	if queuedReq == nil && running == nil {
		if !busy {
			return ErrTabNotLoading
		}
	}

	if queuedReq != nil && queuedReq.callback != nil {
		queuedReq.callback(false, queuedReq.tabID, queuedReq.url, "cancelled")
	}
	if running != nil {
		if running.cancel != nil {
			running.cancel()
		}
		if running.callback != nil {
			running.callback(false, running.tabID, running.url, "cancelled")
		}
	}
	return nil
}

// ReloadTab cancels any current load for tabID and re-queues currentURL.
func (l *Loader) ReloadTab(tabID, currentURL string, callback Callback) error {
	_ = l.CancelLoad(tabID)
	return l.QueueLoad(tabID, currentURL, callback)
}

// IsLoading reports whether tabID has a load actually running (queued
// loads do not count).
func (l *Loader) IsLoading(tabID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.inFlight[tabID]
	return ok
}

// Status summarizes current loader occupancy for admin introspection.
type Status struct {
	Loading       int
	Queued        int
	MaxConcurrent int
}

// GetLoadingStatus reports the loader's current occupancy.
func (l *Loader) GetLoadingStatus() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{Loading: len(l.inFlight), Queued: len(l.queue), MaxConcurrent: l.cfg.MaxConcurrent}
}
