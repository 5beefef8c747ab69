package collection

import (
	"context"
	"sync"
)

// Backend executes a collection query. The transport behind it is owned by
// the caller; this package owns only query construction and staleness rules.
type Backend[T any] func(ctx context.Context, q Query) (PagedResult[T], error)

// Fetcher issues sequence-numbered fetches and discards responses that were
// superseded before they arrived. A stale response never overwrites fresher
// state; callbacks are serialized and fire in issue order or not at all.
type Fetcher[T any] struct {
	mu        sync.Mutex
	seq       uint64
	backend   Backend[T]
	onResult  func(Query, PagedResult[T])
	onError   func(Query, error)
	discarded func()

	deliverMu sync.Mutex
	delivered uint64
}

// NewFetcher builds a fetcher delivering fresh results to onResult and load
// failures to onError. The optional discarded hook observes every stale
// response dropped.
func NewFetcher[T any](backend Backend[T], onResult func(Query, PagedResult[T]), onError func(Query, error), discarded func()) *Fetcher[T] {
	return &Fetcher[T]{backend: backend, onResult: onResult, onError: onError, discarded: discarded}
}

// Fetch starts an asynchronous fetch for the query. A later Fetch call
// supersedes it; the superseded response is dropped on arrival.
func (f *Fetcher[T]) Fetch(ctx context.Context, q Query) {
	f.mu.Lock()
	f.seq++
	seq := f.seq
	f.mu.Unlock()

	go func() {
		result, err := f.backend(ctx, q)
		f.deliver(seq, q, result, err)
	}()
}

func (f *Fetcher[T]) deliver(seq uint64, q Query, result PagedResult[T], err error) {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()

	f.mu.Lock()
	latest := f.seq
	f.mu.Unlock()

	// Superseded by a newer fetch, or an even fresher response already
	// landed: drop it.
	if seq != latest || seq <= f.delivered {
		if f.discarded != nil {
			f.discarded()
		}
		return
	}
	f.delivered = seq

	if err != nil {
		if f.onError != nil {
			f.onError(q, err)
		}
		return
	}
	if f.onResult != nil {
		f.onResult(q, result)
	}
}
