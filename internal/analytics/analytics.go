// Package analytics derives dashboard figures from article and user records.
// Every function is a pure aggregation; nothing here mutates state.
package analytics

import (
	"sort"

	"github.com/bilgisen/factcheck/internal/classifier"
	"github.com/bilgisen/factcheck/internal/models"
)

// VerdictCounts tallies Real and Fake
type VerdictCounts struct {
	Real int `json:"Real"`
	Fake int `json:"Fake"`
}

func (c *VerdictCounts) add(v models.Verdict) {
	switch v {
	case models.VerdictReal:
		c.Real++
	case models.VerdictFake:
		c.Fake++
	}
}

// UserStats summarizes one submitter's articles
type UserStats struct {
	Total    int     `json:"total"`
	Reviewed int     `json:"reviewed"`
	Pending  int     `json:"pending"`
	Real     int     `json:"real"`
	Fake     int     `json:"fake"`
	Accuracy float64 `json:"accuracy"`
}

// ForUser expects the submitter's own articles
func ForUser(articles []*models.Article) UserStats {
	var s UserStats
	agreed := 0
	for _, a := range articles {
		s.Total++
		if a.Status == models.StatusPending {
			continue
		}
		s.Reviewed++
		switch a.FinalVerdict {
		case models.VerdictReal:
			s.Real++
		case models.VerdictFake:
			s.Fake++
		}
		if a.AIAgreed() {
			agreed++
		}
	}
	s.Pending = s.Total - s.Reviewed
	s.Accuracy = percent(agreed, s.Reviewed)
	return s
}

// ReviewerStats summarizes a reviewer's queue and history
type ReviewerStats struct {
	TotalPending     int           `json:"total_pending"`
	ReviewedByMe     int           `json:"total_reviewed_by_reviewer"`
	MarkedForAdmin   int           `json:"marked_for_admin_review"`
	Accuracy         float64       `json:"reviewer_accuracy"`
	VerdictCounts    VerdictCounts `json:"verdict_counts"`
	PredictionCounts VerdictCounts `json:"prediction_counts"`
}

// ForReviewer takes the global pending queue and the articles this
// reviewer has reviewed.
func ForReviewer(pending, reviewedByMe []*models.Article) ReviewerStats {
	s := ReviewerStats{
		TotalPending: len(pending),
		ReviewedByMe: len(reviewedByMe),
	}
	agreed := 0
	for _, a := range reviewedByMe {
		if a.AwaitingAdmin() {
			s.MarkedForAdmin++
		}
		if a.AIAgreed() {
			agreed++
		}
		s.VerdictCounts.add(a.FinalVerdict)
		s.PredictionCounts.add(a.MLPrediction)
	}
	for _, a := range pending {
		s.PredictionCounts.add(a.MLPrediction)
	}
	s.Accuracy = percent(agreed, s.ReviewedByMe)
	return s
}

// ReviewerActivity is the number of reviews one reviewer has completed
type ReviewerActivity struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Reviewed int    `json:"reviewed"`
}

// UserSubmissions is the per-user submission total
type UserSubmissions struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Submitted int    `json:"submitted"`
	Reviewed  int    `json:"reviewed"`
}

// AdminStats is the system-wide view
type AdminStats struct {
	TotalUsers       int                `json:"total_users"`
	TotalReviewers   int                `json:"total_reviewers"`
	TotalArticles    int                `json:"total_articles"`
	Pending          int                `json:"pending_review"`
	Reviewed         int                `json:"reviewed"`
	AdminReviewed    int                `json:"admin_reviewed"`
	NeedsAdminReview int                `json:"needs_admin_review"`
	ReviewedTotal    int                `json:"reviewed_total"`
	MLAccuracy       float64            `json:"ml_accuracy"`
	PredictionCounts VerdictCounts      `json:"ml_prediction_counts"`
	VerdictCounts    VerdictCounts      `json:"final_verdict_counts"`
	ReviewerActivity []ReviewerActivity `json:"reviewer_activity"`
	Submissions      []UserSubmissions  `json:"submissions_by_user"`
	Topics           map[string]int     `json:"topics"`
}

// ForAdmin aggregates every article and user
func ForAdmin(articles []*models.Article, users []*models.User) AdminStats {
	s := AdminStats{
		TotalUsers:    len(users),
		TotalArticles: len(articles),
		Topics:        make(map[string]int),
	}

	names := make(map[string]string, len(users))
	reviewed := make(map[string]int)
	submitted := make(map[string]*UserSubmissions)
	for _, u := range users {
		names[u.ID] = u.Name
		if u.Role == models.RoleReviewer {
			s.TotalReviewers++
			reviewed[u.ID] = 0
		}
	}

	agreed := 0
	for _, a := range articles {
		switch a.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusReviewed:
			s.Reviewed++
		case models.StatusAdminReviewed:
			s.AdminReviewed++
		}
		if a.AwaitingAdmin() {
			s.NeedsAdminReview++
		}
		s.PredictionCounts.add(a.MLPrediction)
		s.Topics[string(classifier.TopicFor(a.Title))]++

		sub, ok := submitted[a.SubmittedBy]
		if !ok {
			sub = &UserSubmissions{UserID: a.SubmittedBy, Name: names[a.SubmittedBy]}
			submitted[a.SubmittedBy] = sub
		}
		sub.Submitted++

		if a.Status == models.StatusPending {
			continue
		}
		sub.Reviewed++
		s.ReviewedTotal++
		s.VerdictCounts.add(a.FinalVerdict)
		if a.AIAgreed() {
			agreed++
		}
		if _, isReviewer := reviewed[a.ReviewedBy]; isReviewer {
			reviewed[a.ReviewedBy]++
		}
	}
	s.MLAccuracy = percent(agreed, s.ReviewedTotal)

	s.ReviewerActivity = make([]ReviewerActivity, 0, len(reviewed))
	for id, n := range reviewed {
		s.ReviewerActivity = append(s.ReviewerActivity, ReviewerActivity{UserID: id, Name: names[id], Reviewed: n})
	}
	sort.Slice(s.ReviewerActivity, func(i, j int) bool {
		a, b := s.ReviewerActivity[i], s.ReviewerActivity[j]
		if a.Reviewed != b.Reviewed {
			return a.Reviewed > b.Reviewed
		}
		return a.Name < b.Name
	})

	s.Submissions = make([]UserSubmissions, 0, len(submitted))
	for _, sub := range submitted {
		s.Submissions = append(s.Submissions, *sub)
	}
	sort.Slice(s.Submissions, func(i, j int) bool {
		a, b := s.Submissions[i], s.Submissions[j]
		if a.Submitted != b.Submitted {
			return a.Submitted > b.Submitted
		}
		return a.UserID < b.UserID
	})

	return s
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
