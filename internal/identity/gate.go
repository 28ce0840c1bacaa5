package identity

import (
	"context"
	"sync"

	"github.com/inkfeed/inkfeed/internal/blog"
)

// Gate owns the current session and is the single entry point every
// user-scoped call must pass through. It is observable: subscribers receive
// the current state immediately on subscribe and again on every sign-in,
// sign-out and token refresh. Three states are possible: no session,
// session with unverified email, session with verified email.
type Gate struct {
	provider Provider

	mu      sync.RWMutex
	session *Session
	epoch   uint64
	nextSub int
	subs    map[int]func(*Session)
}

func NewGate(p Provider) *Gate {
	return &Gate{provider: p, subs: make(map[int]func(*Session))}
}

// Subscribe registers fn and invokes it immediately with the current state
// (nil when signed out). The returned cancel removes the subscription.
func (g *Gate) Subscribe(fn func(*Session)) (cancel func()) {
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	current := g.snapshotLocked()
	g.mu.Unlock()

	fn(current)
	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

// Current returns a copy of the active session, or nil when signed out.
func (g *Gate) Current() *Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

// Epoch moves on every session change. Consumers tag in-flight work with the
// epoch at dispatch and drop results that resolve under a different one.
func (g *Gate) Epoch() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch
}

// RequireVerified returns the session when it exists and the email is
// verified; otherwise ErrUnauthenticated or ErrEmailUnverified.
func (g *Gate) RequireVerified() (*Session, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return nil, blog.ErrUnauthenticated
	}
	if !g.session.EmailVerified {
		return nil, blog.ErrEmailUnverified
	}
	return g.snapshotLocked(), nil
}

func (g *Gate) SignIn(ctx context.Context, email, password string) (*Session, error) {
	s, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	g.set(s)
	return s, nil
}

func (g *Gate) SignUp(ctx context.Context, email, password string) (*Session, error) {
	s, err := g.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	g.set(s)
	return s, nil
}

func (g *Gate) SignOut(ctx context.Context) error {
	g.mu.RLock()
	s := g.session
	g.mu.RUnlock()
	if s == nil {
		return nil
	}
	if err := g.provider.SignOut(ctx, s); err != nil {
		return err
	}
	g.set(nil)
	return nil
}

// Refresh exchanges the session's refresh token and publishes the renewed
// session (emailVerified may have flipped since the last round-trip).
func (g *Gate) Refresh(ctx context.Context) error {
	g.mu.RLock()
	s := g.session
	g.mu.RUnlock()
	if s == nil {
		return blog.ErrUnauthenticated
	}
	renewed, err := g.provider.Refresh(ctx, s.RefreshToken)
	if err != nil {
		return err
	}
	g.set(renewed)
	return nil
}

func (g *Gate) SendVerificationEmail(ctx context.Context) error {
	g.mu.RLock()
	s := g.session
	g.mu.RUnlock()
	if s == nil {
		return blog.ErrUnauthenticated
	}
	return g.provider.SendVerificationEmail(ctx, s)
}

// set swaps the session, bumps the epoch and notifies subscribers outside
// the lock.
func (g *Gate) set(s *Session) {
	g.mu.Lock()
	g.session = s
	g.epoch++
	snapshot := g.snapshotLocked()
	fns := make([]func(*Session), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (g *Gate) snapshotLocked() *Session {
	if g.session == nil {
		return nil
	}
	cp := *g.session
	return &cp
}
