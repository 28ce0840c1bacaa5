package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inkfeed/inkfeed/internal/blog"
	"github.com/inkfeed/inkfeed/internal/posts"
	"github.com/stretchr/testify/require"
)

func seededSource(t *testing.T, n int) *posts.Service {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	i := 0
	repo := posts.NewMemoryRepositoryWithClock(func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Second)
	})
	svc := posts.NewService(repo)
	for j := 0; j < n; j++ {
		_, err := svc.Create(context.Background(), "u1", "Ada", "Post", "body", "")
		require.NoError(t, err)
	}
	return svc
}

func TestPagerLoadAndLoadMore(t *testing.T) {
	p := NewPager(seededSource(t, 12), nil, 5)
	ctx := context.Background()

	require.Equal(t, StateIdle, p.State())

	ok, err := p.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, p.Items(), 5)
	require.True(t, p.HasMore())

	ok, err = p.LoadMore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, p.Items(), 10)
	require.True(t, p.HasMore())

	ok, err = p.LoadMore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, p.Items(), 12)
	require.False(t, p.HasMore())

	// nothing more to load: ignored, no fetch
	ok, err = p.LoadMore(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	// no duplicates across the accumulated feed
	seen := map[string]bool{}
	for _, item := range p.Items() {
		require.False(t, seen[item.ID])
		seen[item.ID] = true
	}
}

func TestPagerLoadResetsAccumulatedItems(t *testing.T) {
	p := NewPager(seededSource(t, 8), nil, 5)
	ctx := context.Background()

	_, err := p.Load(ctx)
	require.NoError(t, err)
	_, err = p.LoadMore(ctx)
	require.NoError(t, err)
	require.Len(t, p.Items(), 8)

	ok, err := p.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, p.Items(), 5, "Load starts over from the first page")
}

// blockingSource lets the test hold a fetch in flight.
type blockingSource struct {
	inner   Source
	release chan struct{}
	calls   atomic.Int32
}

func (s *blockingSource) Page(ctx context.Context, cursor string, pageSize int) (*posts.PageResult, error) {
	s.calls.Add(1)
	<-s.release
	return s.inner.Page(ctx, cursor, pageSize)
}

func TestPagerIgnoresConcurrentLoadMore(t *testing.T) {
	src := &blockingSource{inner: seededSource(t, 12), release: make(chan struct{})}
	p := NewPager(src, nil, 5)
	ctx := context.Background()

	// first page, unblocked
	go func() { src.release <- struct{}{} }()
	_, err := p.Load(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var ignored atomic.Int32
	results := make([]bool, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := p.LoadMore(ctx)
			require.NoError(t, err)
			results[i] = ok
			if !ok {
				ignored.Add(1)
			}
		}(i)
	}

	// wait until one trigger is in flight and the other two were ignored,
	// then let the winner finish
	require.Eventually(t, func() bool {
		return src.calls.Load() == 2 && ignored.Load() == 2
	}, time.Second, time.Millisecond)
	src.release <- struct{}{}
	wg.Wait()

	fetched := 0
	for _, ok := range results {
		if ok {
			fetched++
		}
	}
	require.Equal(t, 1, fetched)
	require.Equal(t, int32(2), src.calls.Load())
	require.Len(t, p.Items(), 10)
}

type fakeEpochs struct{ n atomic.Uint64 }

func (f *fakeEpochs) Epoch() uint64 { return f.n.Load() }

func TestPagerDiscardsStaleResultAfterSessionChange(t *testing.T) {
	epochs := &fakeEpochs{}
	src := &blockingSource{inner: seededSource(t, 12), release: make(chan struct{})}
	p := NewPager(src, epochs, 5)
	ctx := context.Background()

	done := make(chan struct{})
	var ok bool
	go func() {
		defer close(done)
		var err error
		ok, err = p.Load(ctx)
		require.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	// session changes while the fetch is in flight
	epochs.n.Add(1)
	src.release <- struct{}{}
	<-done

	require.False(t, ok, "stale result must be discarded")
	require.Empty(t, p.Items())
	require.Equal(t, StateIdle, p.State())
}

func TestPagerSequentialFetches(t *testing.T) {
	// items appended across Load + LoadMore chain stay in descending order
	p := NewPager(seededSource(t, 7), nil, 3)
	ctx := context.Background()

	_, err := p.Load(ctx)
	require.NoError(t, err)
	for {
		ok, err := p.LoadMore(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	items := p.Items()
	require.Len(t, items, 7)
	for i := 1; i < len(items); i++ {
		require.False(t, items[i-1].CreatedAt.Before(items[i].CreatedAt))
	}
	var empty blog.Post
	require.NotEqual(t, empty, items[0])
}
