package blog

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	slugStrip     = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugSeparator = regexp.MustCompile(`[\s-]+`)
)

// Slugify turns a title into a URL path segment. It never returns an empty string.
func Slugify(title string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(title), "")
	slug = strings.Trim(slugSeparator.ReplaceAllString(slug, "-"), "-")
	if slug == "" {
		return "post"
	}
	return slug
}

// GenerateSlug returns a slug for title that no other post uses. excludeID is the
// post being edited, so it can keep its own slug. Collisions get -1, -2, ... appended.
func (s *Service) GenerateSlug(ctx context.Context, title string, excludeID uint) (string, error) {
	base := Slugify(title)
	slug := base
	for n := 1; ; n++ {
		exists, err := s.db.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}
