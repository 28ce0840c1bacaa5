package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkfeed/inkfeed/internal/images"
	"github.com/inkfeed/inkfeed/pkg/middleware"
)

// UploadsHandler stores post images ahead of post creation, so the client
// can preview the hosted URL before submitting.
type UploadsHandler struct {
	uploads *images.Client
}

func NewUploadsHandler(uploads *images.Client) *UploadsHandler {
	return &UploadsHandler{uploads: uploads}
}

func (h *UploadsHandler) Register(rg *gin.RouterGroup) {
	verified := rg.Group("", middleware.RequireVerified())
	verified.POST("/uploads/image", h.UploadImage)
}

func (h *UploadsHandler) UploadImage(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"url": url})
}
