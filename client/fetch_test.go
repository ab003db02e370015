package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceLifecycle(t *testing.T) {
	r := &Resource[int]{}

	got, err := r.Run(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	data, loading, err := r.State()
	assert.Equal(t, 42, data)
	assert.False(t, loading)
	assert.NoError(t, err)
}

func TestResourceKeepsLastError(t *testing.T) {
	r := &Resource[int]{}
	boom := errors.New("boom")

	_, err := r.Run(context.Background(), func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	_, _, stateErr := r.State()
	assert.ErrorIs(t, stateErr, boom)
}

// A slow response that completes after a newer request has started must not
// overwrite the fresher result.
func TestResourceDiscardsStaleResponse(t *testing.T) {
	r := &Resource[string]{}

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	var staleErr error
	go func() {
		defer wg.Done()
		_, staleErr = r.Run(context.Background(), func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()
	<-started

	// Second request starts while the first is still in flight and settles.
	got, err := r.Run(context.Background(), func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	close(release)
	wg.Wait()
	assert.ErrorIs(t, staleErr, ErrStale)

	data, _, err := r.State()
	assert.Equal(t, "fresh", data)
	assert.NoError(t, err)
}

// Invalidate supersedes an in-flight request the same way a newer Run does,
// so state changed outside Run cannot be overwritten by a late response.
func TestResourceInvalidateDiscardsInFlight(t *testing.T) {
	r := &Resource[string]{}

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	var staleErr error
	go func() {
		defer wg.Done()
		_, staleErr = r.Run(context.Background(), func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()
	<-started

	r.Invalidate()
	close(release)
	wg.Wait()
	assert.ErrorIs(t, staleErr, ErrStale)
}
