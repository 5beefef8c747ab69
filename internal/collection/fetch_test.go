package collection

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerLastValueWins(t *testing.T) {
	var mu sync.Mutex
	var flushed []string
	d := NewDebouncer(20*time.Millisecond, func(term string) {
		mu.Lock()
		flushed = append(flushed, term)
		mu.Unlock()
	})
	defer d.Stop()

	d.Input("s")
	d.Input("st")
	d.Input("steel")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(flushed) == 1 && flushed[0] == "steel"
	}, time.Second, 5*time.Millisecond)

	// The window fully elapsed once; no extra flush may follow.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	require.Len(t, flushed, 1)
	mu.Unlock()
}

func TestDebouncerFlushDeliversImmediately(t *testing.T) {
	var got atomic.Value
	d := NewDebouncer(time.Hour, func(term string) { got.Store(term) })
	defer d.Stop()

	d.Input("partial")
	d.Flush()
	require.Equal(t, "partial", got.Load())
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func(string) { calls.Add(1) })
	d.Input("x")
	d.Stop()
	time.Sleep(40 * time.Millisecond)
	require.Zero(t, calls.Load())
}

func TestFetcherDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	backend := func(ctx context.Context, q Query) (PagedResult[string], error) {
		if q.Search == "slow" {
			<-release
			return NewPagedResult([]string{"stale"}, 1, 10, 1), nil
		}
		return NewPagedResult([]string{"fresh"}, 1, 10, 1), nil
	}

	var mu sync.Mutex
	var results []string
	var discards atomic.Int32
	f := NewFetcher(backend,
		func(_ Query, page PagedResult[string]) {
			mu.Lock()
			results = append(results, page.Items...)
			mu.Unlock()
		},
		func(Query, error) { t.Error("unexpected error callback") },
		func() { discards.Add(1) },
	)

	f.Fetch(context.Background(), Query{Search: "slow", Page: 1, PageSize: 10})
	f.Fetch(context.Background(), Query{Search: "fast", Page: 1, PageSize: 10})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results) == 1
	}, time.Second, 5*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return discards.Load() == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	require.Equal(t, []string{"fresh"}, results, "the superseding request wins")
	mu.Unlock()
}

func TestFetcherDeliversErrors(t *testing.T) {
	backend := func(ctx context.Context, q Query) (PagedResult[string], error) {
		return PagedResult[string]{}, context.DeadlineExceeded
	}
	errs := make(chan error, 1)
	f := NewFetcher(backend, nil, func(_ Query, err error) { errs <- err }, nil)
	f.Fetch(context.Background(), Query{Page: 1, PageSize: 10})

	select {
	case err := <-errs:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("error callback never fired")
	}
}
