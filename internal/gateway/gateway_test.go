package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/offerarena/offerarena/internal/domain"
)

// stubCompleter records issuance timestamps and tracks in-flight requests.
type stubCompleter struct {
	mu       sync.Mutex
	times    []time.Time
	inflight int32
	overlap  atomic.Bool
	reply    func(system, user string) (string, error)
}

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	if atomic.AddInt32(&s.inflight, 1) > 1 {
		s.overlap.Store(true)
	}
	defer atomic.AddInt32(&s.inflight, -1)

	s.mu.Lock()
	s.times = append(s.times, time.Now())
	s.mu.Unlock()

	if s.reply != nil {
		return s.reply(system, user)
	}
	return "ok", nil
}

func (s *stubCompleter) timestamps() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Time(nil), s.times...)
}

func TestGateway_MinIntervalBetweenIssuances(t *testing.T) {
	t.Parallel()

	const interval = 30 * time.Millisecond
	stub := &stubCompleter{}
	g := New(stub, interval)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Complete(context.Background(), "sys", "usr"); err != nil {
				t.Errorf("Complete failed: %v", err)
			}
		}()
	}
	wg.Wait()

	times := stub.timestamps()
	if len(times) != 5 {
		t.Fatalf("Expected 5 issued requests, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		// The stub reads its clock a hair after the gateway stamps the
		// issuance, so allow a millisecond of scheduler jitter.
		if gap < interval-time.Millisecond {
			t.Errorf("Requests %d and %d issued %v apart, want >= %v", i-1, i, gap, interval)
		}
	}
	if stub.overlap.Load() {
		t.Error("Two requests were in flight at the same time")
	}
}

func TestGateway_FailureReachesOnlyItsCaller(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{
		reply: func(_, user string) (string, error) {
			if user == "boom" {
				return "", errors.New("quota exceeded")
			}
			return "answer to " + user, nil
		},
	}
	g := New(stub, time.Millisecond)

	_, err := g.Complete(context.Background(), "sys", "boom")
	if err == nil {
		t.Fatal("Expected error for failing request")
	}
	var ce *domain.CompletionError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected CompletionError, got %T: %v", err, err)
	}

	// The lane keeps draining after a failure.
	got, err := g.Complete(context.Background(), "sys", "next")
	if err != nil {
		t.Fatalf("Subsequent request failed: %v", err)
	}
	if got != "answer to next" {
		t.Errorf("Unexpected reply %q", got)
	}
}

func TestGateway_WorkerStopsOnDrainAndRestarts(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{}
	g := New(stub, time.Millisecond)

	if _, err := g.Complete(context.Background(), "sys", "first"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// Queue fully drained; the worker must have exited.
	deadline := time.Now().Add(time.Second)
	for g.QueueDepth() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Queue never drained")
		}
		time.Sleep(time.Millisecond)
	}

	// A later submission restarts exactly one worker and still completes.
	if _, err := g.Complete(context.Background(), "sys", "second"); err != nil {
		t.Fatalf("Complete after idle failed: %v", err)
	}
	if stub.overlap.Load() {
		t.Error("Two requests were in flight at the same time")
	}
	if len(stub.timestamps()) != 2 {
		t.Errorf("Expected 2 issued requests, got %d", len(stub.timestamps()))
	}
}

func TestGateway_CallerContextReleasesWaiterOnly(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var issued atomic.Int32
	stub := &stubCompleter{
		reply: func(_, _ string) (string, error) {
			issued.Add(1)
			<-release
			return "late", nil
		},
	}
	g := New(stub, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Complete(ctx, "sys", "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected DeadlineExceeded, got %v", err)
	}

	// The request was still issued; submission is not cancellable.
	close(release)
	deadline := time.Now().Add(time.Second)
	for issued.Load() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("Request was never issued")
		}
		time.Sleep(time.Millisecond)
	}
}
