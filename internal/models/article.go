package models

import "time"

// Verdict is the outcome of a classification or a human review
type Verdict string

const (
	VerdictNone Verdict = ""
	VerdictReal Verdict = "Real"
	VerdictFake Verdict = "Fake"
)

// Valid reports whether v is Real or Fake
func (v Verdict) Valid() bool {
	return v == VerdictReal || v == VerdictFake
}

// Status is the review stage of an article
type Status string

const (
	StatusPending       Status = "pending"
	StatusReviewed      Status = "reviewed"
	StatusAdminReviewed Status = "admin_reviewed"
)

// Rank orders statuses along the workflow; -1 for unknown values.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusReviewed:
		return 1
	case StatusAdminReviewed:
		return 2
	}
	return -1
}

// Source is a suggested reference link
type Source struct {
	Label string `json:"title"`
	URI   string `json:"uri"`
}

// Article represents a submitted piece of news and its verification trail
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	SubmittedBy string    `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`

	MLPrediction Verdict  `json:"ml_prediction"`
	MLConfidence float64  `json:"ml_confidence"`
	Sources      []Source `json:"reliable_sources"`

	Status           Status     `json:"status"`
	FinalVerdict     Verdict    `json:"final_verdict,omitempty"`
	ReviewedBy       string     `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`
	NeedsAdminReview bool       `json:"needs_admin_review"`

	AdminVerified   bool       `json:"admin_verified"`
	AdminVerifiedBy string     `json:"admin_verified_by,omitempty"`
	AdminVerifiedAt *time.Time `json:"admin_verified_at,omitempty"`
}

// AwaitingAdmin reports whether the article sits in the escalation queue.
func (a *Article) AwaitingAdmin() bool {
	return a.NeedsAdminReview && !a.AdminVerified
}

// AIAgreed reports whether the classifier matched the human verdict.
// Pending articles never agree.
func (a *Article) AIAgreed() bool {
	return a.Status != StatusPending && a.FinalVerdict != VerdictNone && a.MLPrediction == a.FinalVerdict
}

// Clone returns a deep copy so stores never hand out shared pointers
func (a *Article) Clone() *Article {
	if a == nil {
		return nil
	}
	c := *a
	if a.Sources != nil {
		c.Sources = append([]Source(nil), a.Sources...)
	}
	if a.ReviewedAt != nil {
		t := *a.ReviewedAt
		c.ReviewedAt = &t
	}
	if a.AdminVerifiedAt != nil {
		t := *a.AdminVerifiedAt
		c.AdminVerifiedAt = &t
	}
	return &c
}
