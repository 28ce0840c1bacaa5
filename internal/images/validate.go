package images

import (
	"net/http"
	"strings"

	"github.com/inkfeed/inkfeed/internal/blog"
)

// MaxUploadBytes is the hard cap on a single image upload.
const MaxUploadBytes = 5 << 20

// ValidateImage rejects oversized or non-image payloads before any network
// call. Returns the sniffed content type on success.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", blog.Validationf("empty upload")
	}
	if len(data) > MaxUploadBytes {
		return "", blog.Validationf("image exceeds 5 MiB limit")
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", blog.Validationf("not an image (detected %s)", contentType)
	}
	return contentType, nil
}
