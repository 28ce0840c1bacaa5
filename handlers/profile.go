package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkfeed/inkfeed/internal/blog"
	"github.com/inkfeed/inkfeed/internal/images"
	"github.com/inkfeed/inkfeed/internal/profiles"
	"github.com/inkfeed/inkfeed/pkg/middleware"
)

type UpdateNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// ProfileHandler serves the signed-in user's profile.
type ProfileHandler struct {
	profilesSvc *profiles.Service
	uploads     *images.Client
}

func NewProfileHandler(p *profiles.Service, uploads *images.Client) *ProfileHandler {
	return &ProfileHandler{profilesSvc: p, uploads: uploads}
}

func (h *ProfileHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/profile", h.Get)

	verified := rg.Group("", middleware.RequireVerified())
	verified.PUT("/profile/name", h.UpdateName)
	verified.POST("/profile/avatar", h.UploadAvatar)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	claims := middleware.Claims(c)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	profile, err := h.profilesSvc.Get(c.Request.Context(), middleware.Subject(c), email, name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateName renames the profile and fans the new name out to the user's
// posts. A partial fan-out still succeeds; the response flags it so the
// client can retry.
func (h *ProfileHandler) UpdateName(c *gin.Context) {
	var req UpdateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	change, err := h.profilesSvc.SetName(c.Request.Context(), middleware.Subject(c), req.Name)
	if err != nil {
		var pf *blog.PartialFailure
		if errors.As(err, &pf) {
			// the profile rename itself succeeded; only some posts lag behind
			c.JSON(http.StatusOK, gin.H{
				"postsUpdated": pf.Updated,
				"postsFailed":  pf.Failed,
				"partial":      true,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"changed":      change.Changed,
		"postsUpdated": change.PostsUpdated,
		"partial":      false,
	})
}

// UploadAvatar validates and stores the image, then points the profile at it.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, images.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	url, err := h.uploads.Upload(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.profilesSvc.SetAvatar(c.Request.Context(), middleware.Subject(c), url); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatarUrl": url})
}
