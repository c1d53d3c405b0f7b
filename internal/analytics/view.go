package analytics

import (
	"math"

	"github.com/bilgisen/factcheck/internal/models"
)

// ArticleView is an article ready for display, with user ids resolved to names
type ArticleView struct {
	*models.Article
	SubmittedByName     string  `json:"submitted_by_name"`
	ReviewedByName      string  `json:"reviewed_by_name,omitempty"`
	AdminVerifiedByName string  `json:"admin_verified_by_name,omitempty"`
	ConfidencePercent   float64 `json:"confidence_percent"`
	Agreed              bool    `json:"ai_agreed"`
}

// Names maps user ids to display names
func Names(users []*models.User) map[string]string {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}

func NewArticleView(a *models.Article, names map[string]string) ArticleView {
	return ArticleView{
		Article:             a,
		SubmittedByName:     names[a.SubmittedBy],
		ReviewedByName:      names[a.ReviewedBy],
		AdminVerifiedByName: names[a.AdminVerifiedBy],
		ConfidencePercent:   math.Round(a.MLConfidence*1000) / 10,
		Agreed:              a.AIAgreed(),
	}
}

func ArticleViews(articles []*models.Article, names map[string]string) []ArticleView {
	out := make([]ArticleView, 0, len(articles))
	for _, a := range articles {
		out = append(out, NewArticleView(a, names))
	}
	return out
}
