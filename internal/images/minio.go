package images

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/inkfeed/inkfeed/internal/blog"
	"github.com/inkfeed/inkfeed/internal/config"
	"github.com/inkfeed/inkfeed/pkg/logger"
)

// MinIOUploader stores images in a MinIO bucket and serves them from a
// public base URL.
type MinIOUploader struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinIOUploader creates the client and ensures the bucket exists.
func NewMinIOUploader(cfg config.UploadsConfig) (*MinIOUploader, error) {
	if cfg.MinIOEndpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	u := &MinIOUploader{
		client:    mc,
		bucket:    cfg.MinIOBucket,
		publicURL: strings.TrimRight(cfg.MinIOPublicURL, "/"),
	}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, u.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return u, nil
}

func (u *MinIOUploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	key := "posts/" + uuid.NewString() + extensionFor(contentType)
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		logger.Errorf("minio upload failed: %v", err)
		return "", blog.Upstreamf("image upload failed")
	}
	return u.publicURL + "/" + u.bucket + "/" + key, nil
}

func extensionFor(contentType string) string {
	// prefer the common extensions over mime's alphabetical pick
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
