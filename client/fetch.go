package client

import (
	"context"
	"errors"
	"sync"
)

// ErrStale marks a completed request whose result was discarded because a
// newer request for the same resource started after it.
var ErrStale = errors.New("client: stale response discarded")

// Resource wraps the request/response lifecycle every data fetch goes
// through: loading, success, error. Each Run bumps a sequence number; a slow
// response that finishes after a newer request has started is discarded so
// it can never overwrite fresher state.
type Resource[T any] struct {
	mu      sync.Mutex
	seq     uint64
	loading bool
	data    T
	err     error
}

// Run executes fn and records its outcome unless it has been superseded.
func (r *Resource[T]) Run(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.loading = true
	r.mu.Unlock()

	data, err := fn(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.seq {
		var zero T
		return zero, ErrStale
	}
	r.loading = false
	if err != nil {
		r.err = err
		var zero T
		return zero, err
	}
	r.data = data
	r.err = nil
	return data, nil
}

// Invalidate supersedes any in-flight Run so its late result is discarded.
// Called when the underlying state changes through a path other than Run,
// which makes an older request's response stale by definition.
func (r *Resource[T]) Invalidate() {
	r.mu.Lock()
	r.seq++
	r.loading = false
	r.mu.Unlock()
}

// State returns the latest settled data, the loading flag, and the last error.
func (r *Resource[T]) State() (T, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data, r.loading, r.err
}
