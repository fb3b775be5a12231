// Package listing accumulates the pages of a paginated post listing.
package listing

//go:generate mockgen -source=accumulator.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"spacetraveling/internal/domain"
)

// ErrNoMorePages is returned by LoadMore when the cursor is empty.
var ErrNoMorePages = errors.New("no more pages")

// PageFetcher fetches the page located at an opaque cursor.
type PageFetcher interface {
	FetchPage(ctx context.Context, cursor string) (*domain.Page, error)
}

// State is the serialisable form of an Accumulator.
type State struct {
	Items    []domain.PostSummary `json:"items"`
	NextPage string               `json:"next_page,omitempty"`
}

// Accumulator holds the displayed posts of a listing view and the cursor of
// the next page. Items are only ever appended.
type Accumulator struct {
	fetcher PageFetcher
	group   singleflight.Group
	timeout time.Duration

	mu    sync.RWMutex
	items []domain.PostSummary
	next  string
}

// DefaultFetchTimeout bounds a shared page fetch.
const DefaultFetchTimeout = 30 * time.Second

type Option func(*Accumulator)

// WithFetchTimeout replaces DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(a *Accumulator) { a.timeout = d }
}

// New creates an accumulator holding the first page of a listing.
func New(fetcher PageFetcher, initial domain.Page, opts ...Option) *Accumulator {
	return Restore(fetcher, State{Items: initial.Results, NextPage: initial.NextPage}, opts...)
}

// Restore creates an accumulator from a snapshot.
func Restore(fetcher PageFetcher, state State, opts ...Option) *Accumulator {
	items := make([]domain.PostSummary, len(state.Items))
	copy(items, state.Items)

	a := &Accumulator{
		fetcher: fetcher,
		timeout: DefaultFetchTimeout,
		items:   items,
		next:    state.NextPage,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoadMore fetches the page at the current cursor, appends its posts and
// replaces the cursor. It returns the appended batch.
//
// Concurrent calls for the same cursor share one fetch and the batch is
// appended once. A call holding a cursor that was consumed in the meantime
// returns an empty batch without fetching. On error the state is unchanged.
//
// The shared fetch is not cancelled by any single caller; it is bounded by
// the fetch timeout. A caller whose ctx ends first returns ctx.Err() while
// the fetch completes for the others.
func (a *Accumulator) LoadMore(ctx context.Context) ([]domain.PostSummary, error) {
	cursor := a.NextPage()
	if cursor == "" {
		return nil, ErrNoMorePages
	}

	ch := a.group.DoChan(cursor, func() (any, error) {
		if a.NextPage() != cursor {
			return []domain.PostSummary(nil), nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		page, err := a.fetcher.FetchPage(fetchCtx, cursor)
		if err != nil {
			return nil, err
		}
		if page == nil {
			return nil, errors.New("fetch page: empty response")
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		a.items = append(a.items, page.Results...)
		a.next = page.NextPage

		return page.Results, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.PostSummary), nil
	}
}

// Items returns a copy of the accumulated posts in display order.
func (a *Accumulator) Items() []domain.PostSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	items := make([]domain.PostSummary, len(a.items))
	copy(items, a.items)
	return items
}

// NextPage returns the cursor of the next page, or "" when exhausted.
func (a *Accumulator) NextPage() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.next
}

// HasMore reports whether a further page can be loaded.
func (a *Accumulator) HasMore() bool {
	return a.NextPage() != ""
}

// Snapshot returns a copy of the state for storage.
func (a *Accumulator) Snapshot() State {
	return State{Items: a.Items(), NextPage: a.NextPage()}
}
