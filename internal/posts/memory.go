package posts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/inkfeed/inkfeed/internal/blog"
)

// MemoryRepository is an in-memory Repository used for unit tests and local
// development without a Mongo instance. Insertion order stands in for
// store-internal document order.
type MemoryRepository struct {
	mu    sync.RWMutex
	now   func() time.Time
	seq   int
	order []string
	store map[string]*blog.Post
}

func NewMemoryRepository() *MemoryRepository {
	return NewMemoryRepositoryWithClock(time.Now)
}

// NewMemoryRepositoryWithClock injects the clock that stands in for the
// store's server-assigned timestamps.
func NewMemoryRepositoryWithClock(now func() time.Time) *MemoryRepository {
	return &MemoryRepository{now: now, store: make(map[string]*blog.Post)}
}

func (r *MemoryRepository) Insert(ctx context.Context, p *blog.Post) (*blog.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	cp := *p
	cp.ID = fmt.Sprintf("post_%06d", r.seq)
	now := r.now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.store[cp.ID] = &cp
	r.order = append(r.order, cp.ID)
	out := cp
	return &out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*blog.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.store[id]
	if !ok {
		return nil, blog.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *MemoryRepository) FindBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// first match in store order; later duplicates are ignored
	for _, id := range r.order {
		if p, ok := r.store[id]; ok && p.Slug == slug {
			out := *p
			return &out, nil
		}
	}
	return nil, blog.ErrNotFound
}

func (r *MemoryRepository) Page(ctx context.Context, before time.Time, limit int) ([]blog.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]blog.Post, 0, len(r.order))
	for _, id := range r.order {
		p := r.store[id]
		if before.IsZero() || p.CreatedAt.Before(before) {
			matched = append(matched, *p)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, patch Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.store[id]
	if !ok {
		return blog.ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	p.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return blog.ErrNotFound
	}
	delete(r.store, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, id := range r.order {
		if r.store[id].AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *MemoryRepository) SetAuthorName(ctx context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.store[id]
	if !ok {
		return blog.ErrNotFound
	}
	p.AuthorName = name
	return nil
}
