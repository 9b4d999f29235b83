package pages

import (
	"strings"

	goslug "github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

// RootPath is the materialized path of a locale's homepage.
const RootPath = "/"

// NormalizeSlug lowercases and validates a single path segment. Segments never
// contain slashes; the separator belongs to the path, not the slug.
func NormalizeSlug(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrSlugRequired
	}
	if strings.Contains(trimmed, "/") {
		return "", ErrSlugInvalid
	}
	normalized, err := goslug.Normalize(trimmed)
	if err != nil || normalized == "" || !goslug.IsValid(normalized) {
		return "", ErrSlugInvalid
	}
	return normalized, nil
}

// NormalizePath canonicalizes a lookup path: leading slash, collapsed
// separators, no trailing slash except for the root itself.
func NormalizePath(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == RootPath {
		return RootPath
	}

	segments := make([]string, 0, strings.Count(trimmed, "/")+1)
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == "" {
			continue
		}
		segments = append(segments, segment)
	}
	if len(segments) == 0 {
		return RootPath
	}
	return "/" + strings.Join(segments, "/")
}

// ComputePath joins a parent path with a child slug. Root-level pages pass an
// empty parent path.
func ComputePath(parentPath, slug string) (string, error) {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return "", err
	}

	base := NormalizePath(parentPath)
	if base == RootPath {
		return "/" + normalized, nil
	}
	return base + "/" + normalized, nil
}

// parentKey buckets sibling groups. Root pages share the synthetic "root" key.
func parentKey(id *uuid.UUID) string {
	if id == nil {
		return "root"
	}
	return id.String()
}
