package batch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-evalreports/internal/batch"
)

func TestFetchAll_EmptyIDs(t *testing.T) {
	called := false
	got := batch.FetchAll(context.Background(), nil, func(context.Context, string) (int, error) {
		called = true
		return 1, nil
	})
	if got == nil {
		t.Fatalf("expected non-nil map")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
	if called {
		t.Fatalf("fetch must not be called for empty ids")
	}
}

func TestFetchAll_OneFailureAmongMany(t *testing.T) {
	ids := []string{"s1", "s2", "s3", "s4"}
	got := batch.FetchAll(context.Background(), ids, func(_ context.Context, id string) ([]string, error) {
		if id == "s3" {
			return nil, errors.New("boom")
		}
		return []string{"staff-" + id}, nil
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d (%v)", len(got), got)
	}
	if _, ok := got["s3"]; ok {
		t.Fatalf("failed id must be absent, got %v", got["s3"])
	}
	for _, id := range []string{"s1", "s2", "s4"} {
		v, ok := got[id]
		if !ok || len(v) != 1 || v[0] != "staff-"+id {
			t.Fatalf("unexpected result for %s: %v", id, v)
		}
	}
}

func TestFetchAll_FailureDoesNotCancelSiblings(t *testing.T) {
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)

	go func() {
		started.Wait()
		close(release)
	}()

	got := batch.FetchAll(context.Background(), []int{1, 2}, func(ctx context.Context, id int) (int, error) {
		if id == 1 {
			defer started.Done()
			return 0, errors.New("fail fast")
		}
		select {
		case <-release:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
		return id * 10, nil
	})
	if v, ok := got[2]; !ok || v != 20 {
		t.Fatalf("sibling should survive the failure, got %v", got)
	}
}

func TestFetchAll_Timeout(t *testing.T) {
	got := batch.FetchAll(context.Background(), []string{"slow", "fast"},
		func(ctx context.Context, id string) (string, error) {
			if id == "slow" {
				select {
				case <-time.After(2 * time.Second):
					return "late", nil
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}
			return "ok", nil
		},
		batch.WithTimeout(20*time.Millisecond),
	)
	if _, ok := got["slow"]; ok {
		t.Fatalf("timed-out id must be absent")
	}
	if got["fast"] != "ok" {
		t.Fatalf("expected fast result, got %v", got)
	}
}

func TestFetchAll_DeduplicatesAndLimits(t *testing.T) {
	var calls, inFlight, peak int32
	ids := []string{"a", "b", "a", "c", "d", "b"}
	got := batch.FetchAll(context.Background(), ids, func(_ context.Context, id string) (string, error) {
		atomic.AddInt32(&calls, 1)
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return id, nil
	}, batch.WithLimit(2))

	if calls != 4 {
		t.Fatalf("expected 4 distinct fetches, got %d", calls)
	}
	if peak > 2 {
		t.Fatalf("expected at most 2 in flight, saw %d", peak)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 results, got %v", got)
	}
}

func TestFetchAll_Observer(t *testing.T) {
	var mu sync.Mutex
	outcomes := map[string]bool{}
	batch.FetchAll(context.Background(), []string{"ok", "bad"},
		func(_ context.Context, id string) (int, error) {
			if id == "bad" {
				return 0, errors.New("nope")
			}
			return 1, nil
		},
		batch.WithObserver(func(id string, err error) {
			mu.Lock()
			outcomes[id] = err == nil
			mu.Unlock()
		}),
	)
	if len(outcomes) != 2 || !outcomes["ok"] || outcomes["bad"] {
		t.Fatalf("unexpected outcomes: %v", outcomes)
	}
}

func TestFetchAll_CanceledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := batch.FetchAll(ctx, []string{"x", "y"}, func(context.Context, string) (int, error) {
		return 1, nil
	})
	if len(got) != 0 {
		t.Fatalf("expected nothing fetched under canceled context, got %v", got)
	}
}
