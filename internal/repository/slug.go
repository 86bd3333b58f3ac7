package repository

import (
	"fmt"
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a name into a URL-safe slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "item"
	}
	return slug
}

// uniqueSlug resolves slug collisions by appending an incrementing
// numeric suffix until exists reports a free slug.
func uniqueSlug(base string, exists func(slug string) (bool, error)) (string, error) {
	slug := base
	for counter := 1; ; counter++ {
		taken, err := exists(slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}
