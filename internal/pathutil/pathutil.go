// Package pathutil normalizes filesystem paths to the forward-slash form
// used everywhere else in this module for display and pattern matching.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToSlash normalizes p to a cleaned, forward-slash path. It does not make p
// absolute; callers that need an anchor should join against a root first.
func ToSlash(p string) string {
	if p == "" {
		return p
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// Rel returns the slash-normalized path of target relative to base. If
// target cannot be expressed relative to base, target is returned
// slash-normalized unchanged.
func Rel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return ToSlash(target)
	}
	return ToSlash(rel)
}

// IsWithin reports whether target is base itself or lexically nested under
// it. Both paths are expected to already be absolute and clean.
func IsWithin(base, target string) bool {
	if base == target {
		return true
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}

// Join joins elem onto base and normalizes the result to forward slashes.
func Join(base string, elem ...string) string {
	parts := append([]string{base}, elem...)
	return ToSlash(filepath.Join(parts...))
}

// TrimDotSlash removes a leading "./" from a manifest-style relative path,
// e.g. the "main"/"module" fields of package.json.
func TrimDotSlash(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "./")
	return p
}

// HasAnyExt reports whether p's extension (case-insensitive) is one of exts.
func HasAnyExt(p string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, candidate := range exts {
		if ext == candidate {
			return true
		}
	}
	return false
}
