package classifier

import (
	"strings"

	"github.com/bilgisen/factcheck/internal/models"
)

// Topic is the subject area used to pick reference links
type Topic string

const (
	TopicClimate Topic = "Climate Science"
	TopicHealth  Topic = "Health"
	TopicFinance Topic = "Finance"
	TopicGeneral Topic = "General News"
)

var topicSources = map[Topic][]models.Source{
	TopicClimate: {
		{Label: "NASA Climate Change", URI: "https://climate.nasa.gov/"},
		{Label: "NOAA Climate.gov", URI: "https://www.climate.gov/"},
	},
	TopicHealth: {
		{Label: "CDC - Centers for Disease Control", URI: "https://www.cdc.gov/"},
		{Label: "WHO - World Health Organization", URI: "https://www.who.int/"},
	},
	TopicFinance: {
		{Label: "Wall Street Journal", URI: "https://www.wsj.com/"},
		{Label: "Bloomberg", URI: "https://www.bloomberg.com/"},
	},
	TopicGeneral: {
		{Label: "Associated Press News", URI: "https://apnews.com/"},
		{Label: "Reuters Fact-Check", URI: "https://www.reuters.com/fact-check/"},
	},
}

// TopicFor routes a title to a topic. The first matching rule wins:
// climate, then health, then finance, else general.
func TopicFor(title string) Topic {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "climate"):
		return TopicClimate
	case strings.Contains(t, "vaccine"), strings.Contains(t, "health"):
		return TopicHealth
	case strings.Contains(t, "earnings"), strings.Contains(t, "stock"):
		return TopicFinance
	default:
		return TopicGeneral
	}
}

// SuggestSources returns the reference links for the title's topic.
// The returned slice is a copy.
func SuggestSources(title string) []models.Source {
	return append([]models.Source(nil), topicSources[TopicFor(title)]...)
}
