package utils

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile("[^a-z0-9 ]+")

// GenerateSlug creates a URL-friendly slug from a string
func GenerateSlug(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = strings.Join(strings.Fields(slug), "-")
	return slug
}
