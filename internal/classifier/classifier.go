package classifier

import (
	"math"
	"math/rand"
	"strings"
	"unicode"

	"github.com/bilgisen/factcheck/internal/models"
)

const (
	baseConfidence    = 0.60
	maxMarginBonus    = 0.35
	neutralConfidence = 0.55
	maxConfidence     = 0.95

	sourcingBonus  = 2
	dateBonus      = 1
	shortTextScore = 2
	shortTextWords = 50
	datePrefixLen  = 100
)

// Rand picks the verdict when both scores tie. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.Intn(n) }

// Result is the classifier output frozen onto an article at submission
type Result struct {
	Verdict    models.Verdict
	Confidence float64
	Sources    []models.Source
	FakeScore  int
	RealScore  int
}

// Classifier scores text against weighted keyword tables
type Classifier struct {
	keywords Keywords
	rnd      Rand
}

type Option func(*Classifier)

// WithKeywords replaces the built-in tables
func WithKeywords(k Keywords) Option {
	return func(c *Classifier) { c.keywords = k }
}

// WithRand pins the tie-break source
func WithRand(r Rand) Option {
	return func(c *Classifier) { c.rnd = r }
}

func New(opts ...Option) *Classifier {
	c := &Classifier{
		keywords: DefaultKeywords(),
		rnd:      globalRand{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.keywords = lowerKeywords(c.keywords)
	return c
}

// Classify never fails. Ties are broken at random with confidence 0.55.
func (c *Classifier) Classify(text, title string) Result {
	lower := strings.ToLower(text)

	fakeScore := sumMatches(lower, c.keywords.Fake)
	realScore := sumMatches(lower, c.keywords.Real)

	if containsAny(lower, c.keywords.SourcingMarkers) {
		realScore += sourcingBonus
	}
	if hasDigit(text, datePrefixLen) {
		realScore += dateBonus
	}
	if len(strings.Fields(text)) < shortTextWords {
		fakeScore += shortTextScore
	}

	confidence := neutralConfidence
	if total := fakeScore + realScore; total > 0 {
		margin := math.Abs(float64(fakeScore-realScore)) / float64(total)
		confidence = baseConfidence + math.Min(margin, maxMarginBonus)
	}

	var verdict models.Verdict
	switch {
	case fakeScore > realScore:
		verdict = models.VerdictFake
	case realScore > fakeScore:
		verdict = models.VerdictReal
	default:
		verdict = models.VerdictReal
		if c.rnd.IntN(2) == 1 {
			verdict = models.VerdictFake
		}
		confidence = neutralConfidence
	}

	return Result{
		Verdict:    verdict,
		Confidence: math.Min(confidence, maxConfidence),
		Sources:    SuggestSources(title),
		FakeScore:  fakeScore,
		RealScore:  realScore,
	}
}

func sumMatches(text string, table []Keyword) int {
	score := 0
	for _, kw := range table {
		if strings.Contains(text, kw.Phrase) {
			score += kw.Weight
		}
	}
	return score
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// hasDigit looks at the first n runes only
func hasDigit(text string, n int) bool {
	i := 0
	for _, r := range text {
		if i >= n {
			break
		}
		if unicode.IsDigit(r) {
			return true
		}
		i++
	}
	return false
}

func lowerKeywords(k Keywords) Keywords {
	out := Keywords{
		Fake:            make([]Keyword, len(k.Fake)),
		Real:            make([]Keyword, len(k.Real)),
		SourcingMarkers: make([]string, len(k.SourcingMarkers)),
	}
	for i, kw := range k.Fake {
		out.Fake[i] = Keyword{Phrase: strings.ToLower(kw.Phrase), Weight: kw.Weight}
	}
	for i, kw := range k.Real {
		out.Real[i] = Keyword{Phrase: strings.ToLower(kw.Phrase), Weight: kw.Weight}
	}
	for i, m := range k.SourcingMarkers {
		out.SourcingMarkers[i] = strings.ToLower(m)
	}
	return out
}
