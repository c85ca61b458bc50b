// Package collection implements the Collection Adapter (X): the
// client-side pagination logic a GUI list adapter would sit on top of,
// not the adapter itself. Grounded on the accumulation/page-token shape
// every original_source/src/*request.cpp list() call shares, and on the
// Request Engine's cancel-replaces-in-flight semantics in
// internal/request.
package collection

import (
	"context"
	"sync"

	"github.com/lvcoi/ytapi-go/internal/jsonvalue"
)

// Collection is the page-accumulating façade over one resource client's
// list operation. Implementations own their accumulated items and the
// token needed to fetch the next page.
type Collection interface {
	// List fetches the first page, replacing any accumulated items.
	List(ctx context.Context) error
	// FetchMore appends the next page, if one exists. Calling it once
	// exhausted is a no-op that returns nil.
	FetchMore(ctx context.Context) error
	// Reload re-fetches from the first page, same as a fresh List.
	Reload(ctx context.Context) error
	// Cancel aborts an in-flight List/FetchMore/Reload, if any.
	Cancel()
	// Insert runs mutate upstream and folds its result into the
	// accumulated items on success.
	Insert(ctx context.Context, mutate Mutator) error
	// Update runs mutate upstream and replaces the matching accumulated
	// item with its result.
	Update(ctx context.Context, mutate Mutator) error
	// Delete runs mutate upstream and removes the accumulated item
	// identified by id.
	Delete(ctx context.Context, id string, mutate Mutator) error
}

// PageFetcher fetches one raw page of a list operation, given the page
// token to resume from (empty for the first page). It is satisfied by a
// closure over any of the internal/youtube resource clients' List
// methods.
type PageFetcher func(ctx context.Context, pageToken string) (*jsonvalue.Value, error)

// ItemDecoder converts one raw "items" array entry into T.
type ItemDecoder[T any] func(item *jsonvalue.Value) (T, error)

// IDOf extracts the identifier Paginator uses to locate an item for
// Update/Delete bookkeeping.
type IDOf[T any] func(item T) string

// Mutator performs the upstream half of Insert/Update/Delete; Paginator
// reuses the same shape for all three so callers can plug in whichever
// *youtube client method is appropriate.
type Mutator func(ctx context.Context) (*jsonvalue.Value, error)

// Paginator is the one concrete Collection implementation: a generic,
// cancellable accumulator over any resource client that returns a
// nextPageToken, decoding each page's "items" into []T.
type Paginator[T any] struct {
	fetch  PageFetcher
	decode ItemDecoder[T]
	idOf   IDOf[T]

	mu        sync.Mutex
	items     []T
	nextPage  string
	started   bool
	exhausted bool
	cancel    context.CancelFunc
}

// NewPaginator builds a Paginator driven by fetch, decoding each item
// with decode and identifying items for Update/Delete via idOf.
func NewPaginator[T any](fetch PageFetcher, decode ItemDecoder[T], idOf IDOf[T]) *Paginator[T] {
	return &Paginator[T]{fetch: fetch, decode: decode, idOf: idOf}
}

// Items returns a snapshot of the accumulated, decoded items.
func (p *Paginator[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

// Exhausted reports whether the most recent page carried no
// nextPageToken.
func (p *Paginator[T]) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

func (p *Paginator[T]) List(ctx context.Context) error {
	return p.fetchPage(ctx, "", true)
}

func (p *Paginator[T]) Reload(ctx context.Context) error {
	return p.fetchPage(ctx, "", true)
}

func (p *Paginator[T]) FetchMore(ctx context.Context) error {
	p.mu.Lock()
	if p.exhausted || !p.started {
		p.mu.Unlock()
		return nil
	}
	token := p.nextPage
	p.mu.Unlock()
	return p.fetchPage(ctx, token, false)
}

func (p *Paginator[T]) fetchPage(ctx context.Context, pageToken string, reset bool) error {
	runCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	page, err := p.fetch(runCtx, pageToken)
	if err != nil {
		return err
	}

	rawItems := page.Get("items").MustArray()
	decoded := make([]T, 0, len(rawItems))
	for i := range rawItems {
		item, err := p.decode(page.Get("items").GetIndex(i))
		if err != nil {
			return err
		}
		decoded = append(decoded, item)
	}
	nextToken := page.Get("nextPageToken").MustString()

	p.mu.Lock()
	defer p.mu.Unlock()
	if reset {
		p.items = decoded
	} else {
		p.items = append(p.items, decoded...)
	}
	p.nextPage = nextToken
	p.exhausted = nextToken == ""
	p.started = true
	return nil
}

func (p *Paginator[T]) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// Insert runs mutate upstream, then decodes and appends its result to
// the accumulated items.
func (p *Paginator[T]) Insert(ctx context.Context, mutate Mutator) error {
	result, err := mutate(ctx)
	if err != nil {
		return err
	}
	item, err := p.decode(result)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.items = append(p.items, item)
	p.mu.Unlock()
	return nil
}

// Update runs mutate upstream, then replaces the matching accumulated
// item (located via idOf) with the decoded result.
func (p *Paginator[T]) Update(ctx context.Context, mutate Mutator) error {
	result, err := mutate(ctx)
	if err != nil {
		return err
	}
	item, err := p.decode(result)
	if err != nil {
		return err
	}
	id := p.idOf(item)
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.idOf(p.items[i]) == id {
			p.items[i] = item
			return nil
		}
	}
	p.items = append(p.items, item)
	return nil
}

// Delete runs mutate upstream, then removes the accumulated item whose
// idOf matches id.
func (p *Paginator[T]) Delete(ctx context.Context, id string, mutate Mutator) error {
	if _, err := mutate(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if p.idOf(p.items[i]) == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			break
		}
	}
	return nil
}
