package ingest

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	MaxTitleLength = 300
	MaxTextLength  = 100_000
)

var (
	ErrMissingTitle = errors.New("missing required field: title")
	ErrMissingText  = errors.New("missing required field: text")
)

// Submission is the raw title and body a user sends in
type Submission struct {
	Title string
	Text  string
}

// Parser cleans and validates submissions before they reach the classifier
type Parser struct {
	maxTitle int
	maxText  int
}

func NewParser() *Parser {
	return &Parser{
		maxTitle: MaxTitleLength,
		maxText:  MaxTextLength,
	}
}

// CleanHTML drops markup, scripts and styles and keeps the visible text.
// Input is only treated as HTML when every tag in it is a known HTML
// element; anything else, such as "x<y" or "<unverified>", is returned
// trimmed but otherwise byte for byte.
func (p *Parser) CleanHTML(input string) string {
	if !strings.Contains(input, "<") {
		return strings.TrimSpace(input)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil || !isMarkup(doc) {
		return strings.TrimSpace(input)
	}
	doc.Find("script, style, iframe, object, embed").Remove()

	var b strings.Builder
	collectText(doc.Selection, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

// isMarkup reports whether the parsed document holds at least one element
// beyond the implied html, head and body, and no element the HTML
// vocabulary does not know.
func isMarkup(doc *goquery.Document) bool {
	known := 0
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		switch goquery.NodeName(s) {
		case "html", "head", "body":
			return true
		}
		if s.Nodes[0].DataAtom == 0 {
			known = -1
			return false
		}
		known++
		return true
	})
	return known > 0
}

func collectText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			b.WriteString(s.Text())
			b.WriteByte(' ')
			return
		}
		collectText(s, b)
	})
}

// Normalize strips markup from both fields and collapses whitespace in the title
func (p *Parser) Normalize(s Submission) Submission {
	return Submission{
		Title: strings.Join(strings.Fields(p.CleanHTML(s.Title)), " "),
		Text:  p.CleanHTML(s.Text),
	}
}

// Validate checks a normalized submission
func (p *Parser) Validate(s Submission) error {
	if s.Title == "" {
		return ErrMissingTitle
	}
	if s.Text == "" {
		return ErrMissingText
	}
	if n := utf8.RuneCountInString(s.Title); n > p.maxTitle {
		return fmt.Errorf("title too long: %d characters, maximum %d", n, p.maxTitle)
	}
	if n := utf8.RuneCountInString(s.Text); n > p.maxText {
		return fmt.Errorf("text too long: %d characters, maximum %d", n, p.maxText)
	}
	return nil
}

// Prepare normalizes then validates
func (p *Parser) Prepare(s Submission) (Submission, error) {
	n := p.Normalize(s)
	if err := p.Validate(n); err != nil {
		return Submission{}, err
	}
	return n, nil
}
