// Package textutil derives human-readable labels from release paths for
// status output and notifications.
package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayTitle turns a release directory or archive path into a short title:
// the base name with any plain file extension dropped, scene separators
// collapsed to spaces, and words title-cased. Empty input yields
// "Unknown Release".
func DisplayTitle(path string) string {
	if strings.TrimSpace(path) == "" {
		return "Unknown Release"
	}
	base := filepath.Base(path)
	if ext := filepath.Ext(base); isFileExtension(ext) {
		base = strings.TrimSuffix(base, ext)
	}

	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Unknown Release"
	}
	return cases.Title(language.Und).String(title)
}

// isFileExtension reports whether ext is a short all-letter suffix such as
// ".rar" or ".mkv". Dotted release-name tokens like ".2021" or ".BluRay-GRP"
// are part of the title and must not be treated as extensions.
func isFileExtension(ext string) bool {
	if len(ext) < 3 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Truncate shortens s to max runes, appending an ellipsis when it cut
// anything. Values of max below 1 return the empty string.
func Truncate(s string, max int) string {
	if max < 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
