// Package gateway serializes all model completion requests behind a single
// rate-limited lane.
package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/offerarena/offerarena/internal/domain"
)

// Completer is the model backend: one completion per (system, user) prompt pair.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type result struct {
	text string
	err  error
}

type request struct {
	system string
	user   string
	done   chan result
}

// Gateway is the single entry point for every model call in the system.
// Requests are queued FIFO and issued one at a time, with at least
// minInterval between consecutive issuances regardless of caller. The
// drain worker starts lazily on the first submission while idle and exits
// once the queue is empty, so at most one worker ever runs.
type Gateway struct {
	completer   Completer
	minInterval time.Duration

	mu        sync.Mutex
	queue     []*request
	draining  bool
	lastIssue time.Time
}

// New creates a gateway around the given backend.
func New(completer Completer, minInterval time.Duration) *Gateway {
	return &Gateway{
		completer:   completer,
		minInterval: minInterval,
	}
}

// Complete submits one request and blocks until its specific response or
// failure is available. Errors are propagated to this caller only; the
// queue keeps draining for everyone else. If ctx expires while waiting the
// caller is released, but the request itself is still issued — in-flight
// work is never cancelled once submitted.
func (g *Gateway) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := &request{
		system: systemPrompt,
		user:   userPrompt,
		done:   make(chan result, 1),
	}

	g.mu.Lock()
	g.queue = append(g.queue, req)
	start := !g.draining
	if start {
		g.draining = true
	}
	g.mu.Unlock()

	if start {
		go g.drain()
	}

	select {
	case r := <-req.done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// QueueDepth returns the number of requests waiting to be issued.
func (g *Gateway) QueueDepth() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

func (g *Gateway) drain() {
	for {
		g.mu.Lock()
		if len(g.queue) == 0 {
			g.draining = false
			g.mu.Unlock()
			return
		}
		req := g.queue[0]
		g.queue = g.queue[1:]
		wait := g.minInterval - time.Since(g.lastIssue)
		g.mu.Unlock()

		if wait > 0 {
			time.Sleep(wait)
		}

		g.mu.Lock()
		g.lastIssue = time.Now()
		g.mu.Unlock()

		// Deliberately not the caller's context: a caller that stopped
		// waiting must not abort a request already committed to the lane.
		text, err := g.completer.Complete(context.Background(), req.system, req.user)
		if err != nil {
			slog.Warn("completion request failed", "error", err)
			err = &domain.CompletionError{Err: err}
		}
		req.done <- result{text: text, err: err}
	}
}
