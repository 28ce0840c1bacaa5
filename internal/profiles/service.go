package profiles

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/inkfeed/inkfeed/internal/blog"
	"github.com/inkfeed/inkfeed/pkg/logger"
	"github.com/inkfeed/inkfeed/pkg/metrics"
)

// fanoutWorkers caps how many author-name updates are in flight at once. All
// updates are dispatched and settled before SetName reports its outcome.
const fanoutWorkers = 8

// AuthorPosts is the slice of the post repository the rename fan-out needs.
type AuthorPosts interface {
	ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error)
	SetAuthorName(ctx context.Context, id, name string) error
}

// NameChange reports the outcome of SetName. Changed is false when the new
// name equals the stored one and nothing was written.
type NameChange struct {
	Changed      bool `json:"changed"`
	PostsUpdated int  `json:"postsUpdated"`
}

// Service encapsulates profile business logic, including propagation of a
// display-name change into the denormalized authorName field on the user's
// posts.
type Service struct {
	repo  Repository
	posts AuthorPosts
}

func NewService(r Repository, posts AuthorPosts) *Service {
	return &Service{repo: r, posts: posts}
}

// DefaultAvatarURL returns the deterministic placeholder avatar seeded by the
// account email.
func DefaultAvatarURL(email string) string {
	if email == "" {
		return ""
	}
	return "https://api.dicebear.com/7.x/bottts/png?seed=" + url.QueryEscape(email)
}

// DefaultName derives a display name when none is stored: the provider's
// display name if set, otherwise the local part of the email.
func DefaultName(displayName, email string) string {
	if displayName != "" {
		return displayName
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// Get loads the profile for uid. When no document exists yet, a profile is
// synthesized from the identity provider's email/display name and the
// placeholder avatar; the synthesized profile is not persisted.
func (s *Service) Get(ctx context.Context, uid, email, displayName string) (*blog.Profile, error) {
	p, err := s.repo.Get(ctx, uid)
	if errors.Is(err, blog.ErrNotFound) {
		return &blog.Profile{
			UID:       uid,
			Name:      DefaultName(displayName, email),
			Email:     email,
			AvatarURL: DefaultAvatarURL(email),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = DefaultName(displayName, email)
	}
	if p.AvatarURL == "" {
		p.AvatarURL = DefaultAvatarURL(email)
	}
	if p.Email == "" {
		p.Email = email
	}
	return p, nil
}

// CreateInitial persists the profile document right after registration, with
// the deterministic placeholder avatar.
func (s *Service) CreateInitial(ctx context.Context, uid, name, email string) (*blog.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName("", email)
	}
	return s.repo.Create(ctx, &blog.Profile{
		UID:       uid,
		Name:      name,
		Email:     email,
		AvatarURL: DefaultAvatarURL(email),
	})
}

// SetName writes the new display name and fans the change out to every post
// owned by uid. The fan-out is not transactional: when some post updates fail
// the profile keeps the new name and the error is a *blog.PartialFailure, so
// the caller knows a retry is safe. Re-running the fan-out is idempotent and
// converges regardless of how many posts were already updated.
func (s *Service) SetName(ctx context.Context, uid, newName string) (*NameChange, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, blog.Validationf("name must not be empty")
	}

	current, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if current.Name == newName {
		// Nothing to write on the profile, but an earlier fan-out may have
		// been interrupted mid-way; re-running it is idempotent and converges
		// any posts still carrying the old name.
		updated, err := s.fanOutAuthorName(ctx, uid, newName)
		if err != nil {
			return nil, err
		}
		return &NameChange{Changed: false, PostsUpdated: updated}, nil
	}

	write := func() error {
		err := s.repo.SetName(ctx, uid, newName)
		if errors.Is(err, blog.ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(write, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2)); err != nil {
		return nil, err
	}

	updated, err := s.fanOutAuthorName(ctx, uid, newName)
	if err != nil {
		return nil, err
	}
	return &NameChange{Changed: true, PostsUpdated: updated}, nil
}

// SetAvatar writes avatarUrl only. The avatar is not denormalized into posts,
// so no fan-out is needed.
func (s *Service) SetAvatar(ctx context.Context, uid, newURL string) error {
	if strings.TrimSpace(newURL) == "" {
		return blog.Validationf("avatar url must not be empty")
	}
	return s.repo.SetAvatar(ctx, uid, newURL)
}

// fanOutAuthorName updates authorName on every post owned by uid. Updates are
// dispatched concurrently and all settle before the outcome is reported;
// failures surface as a *blog.PartialFailure.
func (s *Service) fanOutAuthorName(ctx context.Context, uid, name string) (int, error) {
	ids, err := s.posts.ListIDsByAuthor(ctx, uid)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		errs   []error
		failed int
	)
	sem := make(chan struct{}, fanoutWorkers)
	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(postID string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.posts.SetAuthorName(ctx, postID, name); err != nil {
				logger.Errorf("author name fan-out failed for post %s: %v", postID, err)
				metrics.FanoutUpdates.WithLabelValues("failed").Inc()
				mu.Lock()
				failed++
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			metrics.FanoutUpdates.WithLabelValues("ok").Inc()
		}(id)
	}
	wg.Wait()

	updated := len(ids) - failed
	if failed > 0 {
		return updated, &blog.PartialFailure{Updated: updated, Failed: failed, Errs: errs}
	}
	return updated, nil
}
