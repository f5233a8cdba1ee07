// Package documents holds client-side views over the user's policy list.
package documents

import (
	"fmt"
	"strings"

	"policymitr-client/internal/models"
)

type Bookmarks string

const (
	All           Bookmarks = "all"
	Bookmarked    Bookmarks = "bookmarked"
	NotBookmarked Bookmarks = "not_bookmarked"
)

// ParseBookmarks accepts the filter values of the list view. Empty means All.
func ParseBookmarks(s string) (Bookmarks, error) {
	switch b := Bookmarks(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return All, nil
	case All, Bookmarked, NotBookmarked:
		return b, nil
	default:
		return "", fmt.Errorf("unknown filter %q", s)
	}
}

// Filter keeps the documents matching the bookmark filter whose title or
// category contains query, case-insensitively. Order is preserved.
func Filter(docs []models.Document, bookmarks Bookmarks, query string) []models.Document {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		switch bookmarks {
		case Bookmarked:
			if !d.IsBookmarked {
				continue
			}
		case NotBookmarked:
			if d.IsBookmarked {
				continue
			}
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(d.Title), q) &&
			!strings.Contains(strings.ToLower(d.Category), q) {
			continue
		}
		out = append(out, d)
	}
	return out
}
