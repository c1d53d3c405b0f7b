package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestCleanHTML(t *testing.T) {
	t.Parallel()

	p := NewParser()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "  Line one\nline two  ", "Line one\nline two"},
		{"tags stripped", "<p>According to <b>experts</b></p><p>Source: AP</p>", "According to experts Source: AP"},
		{"script removed", "<div>ok<script>alert('x')</script></div>", "ok"},
		{"entities decoded", "<p>Q&amp;A session</p>", "Q&A session"},
		{"ampersand in plain text", "Q&A session\nday two", "Q&A session\nday two"},
		{"less-than in prose", "Markets fell when demand<supply. Research shows prices drop.", "Markets fell when demand<supply. Research shows prices drop."},
		{"comparison", "Scientists say x<y in most cases", "Scientists say x<y in most cases"},
		{"unknown tag kept", "<unverified> claim", "<unverified> claim"},
		{"mixed known and unknown tags", "<p>fine</p><rumour>text</rumour>", "<p>fine</p><rumour>text</rumour>"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := p.CleanHTML(tt.in); got != tt.want {
				t.Fatalf("CleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrepareRejectsMissingFields(t *testing.T) {
	t.Parallel()

	p := NewParser()
	if _, err := p.Prepare(Submission{Title: "  ", Text: "body"}); !errors.Is(err, ErrMissingTitle) {
		t.Fatalf("expected ErrMissingTitle, got %v", err)
	}
	if _, err := p.Prepare(Submission{Title: "Title", Text: "<p> </p>"}); !errors.Is(err, ErrMissingText) {
		t.Fatalf("expected ErrMissingText, got %v", err)
	}
}

func TestPrepareLimits(t *testing.T) {
	t.Parallel()

	p := NewParser()
	if _, err := p.Prepare(Submission{Title: strings.Repeat("t", MaxTitleLength+1), Text: "x"}); err == nil {
		t.Fatalf("expected error for oversized title")
	}

	got, err := p.Prepare(Submission{Title: " Breaking\n  news ", Text: "body"})
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if got.Title != "Breaking news" {
		t.Fatalf("expected collapsed title, got %q", got.Title)
	}
}

func TestPrepareKeepsPlainTextWhole(t *testing.T) {
	t.Parallel()

	p := NewParser()
	in := Submission{
		Title: "Stock slump",
		Text:  "Markets fell when demand<supply. Research shows prices drop. Source: official statement. Experts confirmed the study.",
	}
	got, err := p.Prepare(in)
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if got.Text != in.Text {
		t.Fatalf("text changed: got %q, want %q", got.Text, in.Text)
	}

	got, err = p.Prepare(Submission{Title: "<unverified> claim", Text: "body"})
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if got.Title != "<unverified> claim" {
		t.Fatalf("title changed: got %q", got.Title)
	}
}
