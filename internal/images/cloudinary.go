package images

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/inkfeed/inkfeed/internal/blog"
	"github.com/inkfeed/inkfeed/internal/config"
	"github.com/inkfeed/inkfeed/pkg/logger"
)

// CloudinaryUploader posts images to Cloudinary's unsigned upload endpoint
// using an upload preset.
type CloudinaryUploader struct {
	baseURL string
	cloud   string
	preset  string
	client  *http.Client
}

func NewCloudinaryUploader(cfg config.UploadsConfig) *CloudinaryUploader {
	return &CloudinaryUploader{
		baseURL: strings.TrimRight(cfg.CloudinaryBaseURL, "/"),
		cloud:   cfg.CloudinaryCloud,
		preset:  cfg.CloudinaryPreset,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "upload")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.WriteField("upload_preset", u.preset); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	endpoint := u.baseURL + "/" + u.cloud + "/image/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		logger.Errorf("cloudinary upload failed: %v", err)
		return "", blog.Upstreamf("image upload failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logger.Errorf("cloudinary upload returned %d: %s", resp.StatusCode, raw)
		return "", blog.Upstreamf("image upload returned %d", resp.StatusCode)
	}

	var out struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", blog.Upstreamf("image upload response malformed")
	}
	return out.SecureURL, nil
}
