package images

import (
	"context"

	"github.com/inkfeed/inkfeed/pkg/metrics"
)

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// Client runs the size and type preflight before delegating to the backend.
// Rejected uploads never reach the network.
type Client struct {
	backend Uploader
}

func NewClient(backend Uploader) *Client {
	return &Client{backend: backend}
}

func (c *Client) Upload(ctx context.Context, data []byte) (string, error) {
	contentType, err := ValidateImage(data)
	if err != nil {
		reason := "not_image"
		if len(data) > MaxUploadBytes {
			reason = "too_large"
		} else if len(data) == 0 {
			reason = "empty"
		}
		metrics.UploadsRejected.WithLabelValues(reason).Inc()
		return "", err
	}
	return c.backend.Upload(ctx, data, contentType)
}
