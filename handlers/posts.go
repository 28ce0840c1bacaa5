package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/inkfeed/inkfeed/internal/feed"
	"github.com/inkfeed/inkfeed/internal/posts"
	"github.com/inkfeed/inkfeed/internal/profiles"
	"github.com/inkfeed/inkfeed/pkg/metrics"
	"github.com/inkfeed/inkfeed/pkg/middleware"
)

type CreatePostRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	ImageURL string `json:"imageUrl"`
}

type UpdatePostRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	ImageURL *string `json:"imageUrl"`
}

// PostsHandler serves post CRUD plus the paginated feed. Each authenticated
// reader gets their own pager so cursors never bleed between users.
type PostsHandler struct {
	postsSvc    *posts.Service
	profilesSvc *profiles.Service
	pageSize    int

	mu     sync.Mutex
	pagers map[string]*feed.Pager
}

func NewPostsHandler(p *posts.Service, prof *profiles.Service, pageSize int) *PostsHandler {
	if pageSize <= 0 {
		pageSize = posts.DefaultPageSize
	}
	return &PostsHandler{
		postsSvc:    p,
		profilesSvc: prof,
		pageSize:    pageSize,
		pagers:      make(map[string]*feed.Pager),
	}
}

// Register wires routes under the authenticated group. Writes additionally
// require a verified email.
func (h *PostsHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/posts/:id", h.Get)
	rg.GET("/posts/slug/:slug", h.GetBySlug)
	rg.GET("/feed", h.Feed)
	rg.POST("/feed/more", h.FeedMore)

	verified := rg.Group("", middleware.RequireVerified())
	verified.POST("/posts", h.Create)
	verified.PATCH("/posts/:id", h.Update)
	verified.DELETE("/posts/:id", h.Delete)
}

func (h *PostsHandler) Create(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims := middleware.Claims(c)
	uid := middleware.Subject(c)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	profile, err := h.profilesSvc.Get(c.Request.Context(), uid, email, name)
	if err != nil {
		respondError(c, err)
		return
	}
	post, err := h.postsSvc.Create(c.Request.Context(), uid, profile.Name, req.Title, req.Content, req.ImageURL)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.PostsCreated.Inc()
	c.JSON(http.StatusCreated, post)
}

func (h *PostsHandler) Get(c *gin.Context) {
	post, err := h.postsSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostsHandler) GetBySlug(c *gin.Context) {
	post, err := h.postsSvc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostsHandler) Update(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch := posts.Patch{Title: req.Title, Content: req.Content, ImageURL: req.ImageURL}
	if err := h.postsSvc.Update(c.Request.Context(), c.Param("id"), middleware.Subject(c), patch); err != nil {
		respondError(c, err)
		return
	}
	post, err := h.postsSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostsHandler) Delete(c *gin.Context) {
	if err := h.postsSvc.Delete(c.Request.Context(), c.Param("id"), middleware.Subject(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// Feed loads the first page, resetting any accumulated items for this reader.
func (h *PostsHandler) Feed(c *gin.Context) {
	p := h.pagerFor(middleware.Subject(c))
	if _, err := p.Load(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	metrics.FeedPages.WithLabelValues("first").Inc()
	c.JSON(http.StatusOK, gin.H{"items": p.Items(), "hasMore": p.HasMore()})
}

// FeedMore appends the next page. A request while a load is in flight, or
// when the feed is exhausted, returns the current items unchanged.
func (h *PostsHandler) FeedMore(c *gin.Context) {
	p := h.pagerFor(middleware.Subject(c))
	loaded, err := p.LoadMore(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.FeedPages.WithLabelValues("more").Inc()
	c.JSON(http.StatusOK, gin.H{"items": p.Items(), "hasMore": p.HasMore(), "loaded": loaded})
}

func (h *PostsHandler) pagerFor(uid string) *feed.Pager {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pagers[uid]
	if !ok {
		p = feed.NewPager(h.postsSvc, feed.FixedEpoch{}, h.pageSize)
		h.pagers[uid] = p
	}
	return p
}
