package documents

import (
	"testing"

	"policymitr-client/internal/models"
)

func TestFilter(t *testing.T) {
	docs := []models.Document{
		{ID: "1", Title: "PM Awas Yojana", Category: "Housing", IsBookmarked: true},
		{ID: "2", Title: "MGNREGA", Category: "Employment"},
		{ID: "3", Title: "Income Tax Rules", Category: "Tax", IsBookmarked: true},
	}

	tests := []struct {
		name      string
		bookmarks Bookmarks
		query     string
		want      []string
	}{
		{"all", All, "", []string{"1", "2", "3"}},
		{"bookmarked", Bookmarked, "", []string{"1", "3"}},
		{"not bookmarked", NotBookmarked, "", []string{"2"}},
		{"title search", All, "awas", []string{"1"}},
		{"category search", All, "  EMPLOY ", []string{"2"}},
		{"combined", Bookmarked, "tax", []string{"3"}},
		{"no match", All, "pension", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(docs, tc.bookmarks, tc.query)
			if len(got) != len(tc.want) {
				t.Fatalf("Expected %v, got %d documents", tc.want, len(got))
			}
			for i, d := range got {
				if d.ID != tc.want[i] {
					t.Errorf("Expected %q at %d, got %q", tc.want[i], i, d.ID)
				}
			}
		})
	}
}

func TestParseBookmarks(t *testing.T) {
	if b, err := ParseBookmarks(""); err != nil || b != All {
		t.Errorf("Expected All for empty, got %q, %v", b, err)
	}
	if b, err := ParseBookmarks("Bookmarked"); err != nil || b != Bookmarked {
		t.Errorf("Expected Bookmarked, got %q, %v", b, err)
	}
	if _, err := ParseBookmarks("starred"); err == nil {
		t.Error("Expected error for unknown filter")
	}
}
