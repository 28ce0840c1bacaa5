package posts

import (
	"encoding/base64"
	"strconv"
	"time"
)

// Cursors are opaque to callers: base64 over the creation timestamp of the
// last item returned. Pagination resumes strictly after that position; ties
// on identical timestamps fall back to store-internal document order, which
// is not guaranteed stable across pages.

// EncodeCursor returns an opaque pagination marker for the given sort key.
func EncodeCursor(createdAt time.Time) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(createdAt.UnixNano(), 10)))
}

// DecodeCursor parses a marker produced by EncodeCursor.
func DecodeCursor(cursor string) (time.Time, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, err
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}
