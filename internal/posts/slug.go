package posts

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

const slugSuffixLen = 5

const slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases and trims the title, collapses every run of characters
// outside [a-z0-9] into a single hyphen, and strips leading/trailing hyphens.
// Returns "" only when the title contains no alphanumeric characters.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonSlugRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NewSlug derives a post slug from the title plus a short random suffix.
// Uniqueness is probabilistic, not enforced by the store; lookups tolerate
// duplicates and pick the first match in store order.
func NewSlug(title string) string {
	b := make([]byte, slugSuffixLen)
	for i := range b {
		b[i] = slugAlphabet[rand.IntN(len(slugAlphabet))]
	}
	return Slugify(title) + "-" + string(b)
}
