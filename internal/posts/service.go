package posts

import (
	"context"
	"strings"
	"time"

	"github.com/inkfeed/inkfeed/internal/blog"
)

// DefaultPageSize matches the feed page length the UI renders.
const DefaultPageSize = 5

// PageResult is one page of the feed. HasMore is an approximation: a page
// that happens to end exactly at the last post still reports true until the
// next fetch comes back empty.
type PageResult struct {
	Items      []blog.Post `json:"items"`
	NextCursor string      `json:"nextCursor,omitempty"`
	HasMore    bool        `json:"hasMore"`
}

// Service encapsulates post business rules: validation, slug assignment and
// ownership checks. Persistence is delegated to a Repository.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Create validates and stores a new post. The slug is derived from the title
// once, at creation time, and never changes afterwards.
func (s *Service) Create(ctx context.Context, authorID, authorName, title, content, imageURL string) (*blog.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, blog.Validationf("title is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, blog.Validationf("content is required")
	}
	if authorName == "" {
		authorName = "Unknown"
	}
	p := &blog.Post{
		Title:      title,
		Slug:       NewSlug(title),
		Content:    content,
		ImageURL:   imageURL,
		AuthorID:   authorID,
		AuthorName: authorName,
	}
	return s.repo.Insert(ctx, p)
}

// Update applies a partial edit. Only the post's owner may edit it; fields
// left nil in the patch keep their stored value.
func (s *Service) Update(ctx context.Context, postID, editorID string, patch Patch) error {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return err
	}
	if p.AuthorID != editorID {
		return blog.ErrForbidden
	}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if t == "" {
			return blog.Validationf("title is required")
		}
		patch.Title = &t
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return blog.Validationf("content is required")
	}
	return s.repo.Update(ctx, postID, patch)
}

// Delete removes a post. Only the owner may delete it.
func (s *Service) Delete(ctx context.Context, postID, requesterID string) error {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return err
	}
	if p.AuthorID != requesterID {
		return blog.ErrForbidden
	}
	return s.repo.Delete(ctx, postID)
}

func (s *Service) Get(ctx context.Context, id string) (*blog.Post, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	return s.repo.FindBySlug(ctx, slug)
}

// Page returns one feed page ordered by createdAt descending. An empty cursor
// starts at the newest post; otherwise the page resumes strictly after the
// cursor's position.
func (s *Service) Page(ctx context.Context, cursor string, pageSize int) (*PageResult, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var before time.Time
	if cursor != "" {
		var err error
		before, err = DecodeCursor(cursor)
		if err != nil {
			return nil, blog.Validationf("invalid cursor")
		}
	}
	items, err := s.repo.Page(ctx, before, pageSize)
	if err != nil {
		return nil, err
	}
	res := &PageResult{
		Items:   items,
		HasMore: len(items) == pageSize,
	}
	if len(items) > 0 {
		res.NextCursor = EncodeCursor(items[len(items)-1].CreatedAt)
	}
	return res, nil
}
