package models

import "time"

// Document is a policy as returned by the list endpoint. The optional
// analysis fields are only present once processing finished.
type Document struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	CreatedAt       time.Time `json:"created_at"`
	Summary         *string   `json:"summary,omitempty"`
	DifficultyScore *float64  `json:"difficulty_score,omitempty"`
	ProcessingTime  *float64  `json:"processing_time,omitempty"`
	AIConfidence    *float64  `json:"ai_confidence,omitempty"`
	IsBookmarked    bool      `json:"is_bookmarked"`
}

type Clause struct {
	ClauseNumber int    `json:"clause_number"`
	ClauseText   string `json:"clause_text"`
	Explanation  string `json:"explanation"`
}

// DocumentDetail is the full view of one policy.
type DocumentDetail struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Simplified      string   `json:"simplified"`
	DifficultyScore float64  `json:"difficulty_score"`
	AIConfidence    float64  `json:"ai_confidence"`
	ProcessingTime  float64  `json:"processing_time"`
	Category        string   `json:"category"`
	Language        string   `json:"language,omitempty"`
	Clauses         []Clause `json:"clauses"`
}

// ConfidencePercent mirrors how the viewer shows confidence; unknown
// confidence is displayed as 50%.
func (d *DocumentDetail) ConfidencePercent() int {
	c := d.AIConfidence
	if c == 0 {
		c = 0.5
	}
	return int(c*100 + 0.5)
}

// DifficultyLevel buckets the 0-100 difficulty score.
func (d *DocumentDetail) DifficultyLevel() string {
	switch {
	case d.DifficultyScore > 70:
		return "hard"
	case d.DifficultyScore > 40:
		return "moderate"
	default:
		return "easy"
	}
}

type UploadRequest struct {
	FilePath    string
	Title       string
	Language    string
	PrivacyMode bool
}

type BookmarkResponse struct {
	IsBookmarked bool   `json:"is_bookmarked"`
	PolicyID     string `json:"policy_id"`
}

type CompareRequest struct {
	PolicyIDA string `json:"policy_id_a"`
	PolicyIDB string `json:"policy_id_b"`
}

type Comparison struct {
	Comparison     string   `json:"comparison"`
	Similarities   []string `json:"similarities"`
	Differences    []string `json:"differences"`
	Recommendation string   `json:"recommendation,omitempty"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// Analytics is the admin overview of platform usage.
type Analytics struct {
	TotalUsers    int             `json:"total_users"`
	TotalPolicies int             `json:"total_policies"`
	TotalActions  int             `json:"total_actions"`
	Categories    map[string]int  `json:"categories"`
	Languages     []LanguageCount `json:"languages"`
}
