package batch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type config struct {
	limit   int
	timeout time.Duration
	observe func(id any, err error)
}

type Option func(*config)

// WithLimit caps the number of in-flight fetches. Zero means one goroutine per id.
func WithLimit(n int) Option { return func(c *config) { c.limit = n } }

// WithTimeout bounds each individual fetch.
func WithTimeout(d time.Duration) Option { return func(c *config) { c.timeout = d } }

// WithObserver installs a callback told about every settled fetch; err is nil on success.
// K must match the id type passed to FetchAll; fn may run concurrently.
func WithObserver[K comparable](fn func(id K, err error)) Option {
	return func(c *config) {
		if fn == nil {
			c.observe = nil
			return
		}
		c.observe = func(id any, err error) { fn(id.(K), err) }
	}
}

// FetchAll issues one fetch per distinct id and settles all of them.
// Ids whose fetch failed are absent from the result; a failure never
// cancels or alters a sibling's result. The returned map is never nil.
func FetchAll[K comparable, T any](ctx context.Context, ids []K, fetch func(context.Context, K) (T, error), opts ...Option) map[K]T {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	out := make(map[K]T, len(ids))
	if len(ids) == 0 {
		return out
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	if cfg.limit > 0 {
		g.SetLimit(cfg.limit)
	}

	seen := make(map[K]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		id := id
		g.Go(func() error {
			v, err := fetchOne(ctx, id, fetch, cfg.timeout)
			if cfg.observe != nil {
				cfg.observe(id, err)
			}
			if err != nil {
				return nil
			}
			mu.Lock()
			out[id] = v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func fetchOne[K comparable, T any](ctx context.Context, id K, fetch func(context.Context, K) (T, error), timeout time.Duration) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fetch(ctx, id)
}
