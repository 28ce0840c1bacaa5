package feed

import (
	"context"
	"sync"

	"github.com/inkfeed/inkfeed/internal/blog"
	"github.com/inkfeed/inkfeed/internal/posts"
)

// State of the pager. Transitions:
//
//	Idle -> LoadingFirstPage  on Load (initial mount or session change)
//	Idle -> LoadingMore       on LoadMore (only when hasMore and idle)
//
// and back to Idle on completion. Load-more triggers while a fetch is in
// flight are ignored, so page fetches are strictly sequential.
type State int

const (
	StateIdle State = iota
	StateLoadingFirstPage
	StateLoadingMore
)

// Source yields feed pages. *posts.Service satisfies it.
type Source interface {
	Page(ctx context.Context, cursor string, pageSize int) (*posts.PageResult, error)
}

// EpochSource reports a counter that moves on every identity/session change.
// A page fetch dispatched under one epoch is discarded if it resolves under
// another, so a stale result never lands in a feed now showing a different
// session's view. identity.Gate implements it.
type EpochSource interface {
	Epoch() uint64
}

// FixedEpoch is an EpochSource for consumers whose pager lives and dies with
// a single session.
type FixedEpoch struct{}

func (FixedEpoch) Epoch() uint64 { return 0 }

// Pager accumulates feed pages for one consumer. Its in-memory cursor and
// item list are only mutated under the state machine above, never by two
// in-flight fetches at once.
type Pager struct {
	src      Source
	epochs   EpochSource
	pageSize int

	mu      sync.Mutex
	state   State
	items   []blog.Post
	cursor  string
	hasMore bool
}

func NewPager(src Source, epochs EpochSource, pageSize int) *Pager {
	if epochs == nil {
		epochs = FixedEpoch{}
	}
	if pageSize <= 0 {
		pageSize = posts.DefaultPageSize
	}
	return &Pager{src: src, epochs: epochs, pageSize: pageSize, hasMore: true}
}

// Load fetches the first page, discarding any previously accumulated items.
// A Load while another fetch is in flight is ignored and reports false.
func (p *Pager) Load(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return false, nil
	}
	p.state = StateLoadingFirstPage
	epoch := p.epochs.Epoch()
	p.mu.Unlock()

	res, err := p.src.Page(ctx, "", p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateIdle
	if err != nil {
		return false, err
	}
	if p.epochs.Epoch() != epoch {
		// session changed while the fetch was in flight; stale result
		return false, nil
	}
	p.items = res.Items
	p.cursor = res.NextCursor
	p.hasMore = res.HasMore
	return true, nil
}

// LoadMore fetches the next page and appends it. Reports false without
// fetching when there is nothing more to load or a fetch is already in
// flight.
func (p *Pager) LoadMore(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.state != StateIdle || !p.hasMore {
		p.mu.Unlock()
		return false, nil
	}
	p.state = StateLoadingMore
	epoch := p.epochs.Epoch()
	cursor := p.cursor
	p.mu.Unlock()

	res, err := p.src.Page(ctx, cursor, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateIdle
	if err != nil {
		return false, err
	}
	if p.epochs.Epoch() != epoch {
		return false, nil
	}
	p.items = append(p.items, res.Items...)
	if res.NextCursor != "" {
		p.cursor = res.NextCursor
	}
	p.hasMore = res.HasMore
	return true, nil
}

// Reset clears accumulated state, e.g. on session change before the next Load.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
	p.cursor = ""
	p.hasMore = true
}

// Items returns a copy of the accumulated feed.
func (p *Pager) Items() []blog.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]blog.Post, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

func (p *Pager) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
