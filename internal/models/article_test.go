package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestArticleSourcesWireFormat(t *testing.T) {
	// Sources keep the {"title","uri"} shape the dashboards consume
	article := Article{
		ID:           "test-id",
		Title:        "Test Title",
		Status:       StatusPending,
		MLPrediction: VerdictReal,
		Sources: []Source{
			{Label: "NASA Climate Change", URI: "https://climate.nasa.gov/"},
		},
		SubmittedAt: time.Now(),
	}

	data, err := json.Marshal(article)
	if err != nil {
		t.Fatalf("Failed to marshal Article: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	sources, ok := result["reliable_sources"].([]interface{})
	if !ok || len(sources) != 1 {
		t.Fatalf("Expected one reliable source, got %v", result["reliable_sources"])
	}
	first := sources[0].(map[string]interface{})
	if first["title"] != "NASA Climate Change" || first["uri"] != "https://climate.nasa.gov/" {
		t.Errorf("Unexpected source encoding: %v", first)
	}

	if _, present := result["final_verdict"]; present {
		t.Errorf("Expected final_verdict to be omitted while pending, got %v", result["final_verdict"])
	}
}

func TestStatusRankIsMonotonic(t *testing.T) {
	if !(StatusPending.Rank() < StatusReviewed.Rank() && StatusReviewed.Rank() < StatusAdminReviewed.Rank()) {
		t.Fatalf("Expected pending < reviewed < admin_reviewed")
	}
	if Status("deleted").Rank() != -1 {
		t.Errorf("Expected unknown status to rank -1")
	}
}

func TestArticleClone(t *testing.T) {
	now := time.Now()
	a := &Article{ID: "a", Sources: []Source{{Label: "x", URI: "y"}}, ReviewedAt: &now}
	c := a.Clone()

	c.Sources[0].Label = "changed"
	*c.ReviewedAt = now.Add(time.Hour)

	if a.Sources[0].Label != "x" {
		t.Errorf("Clone shares the sources slice")
	}
	if !a.ReviewedAt.Equal(now) {
		t.Errorf("Clone shares the reviewed_at pointer")
	}
}

func TestAIAgreed(t *testing.T) {
	a := &Article{Status: StatusPending, MLPrediction: VerdictFake}
	if a.AIAgreed() {
		t.Errorf("Pending article must not count as agreement")
	}
	a.Status = StatusReviewed
	a.FinalVerdict = VerdictFake
	if !a.AIAgreed() {
		t.Errorf("Expected agreement when prediction matches verdict")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Admin@System.COM "); got != "admin@system.com" {
		t.Errorf("Expected admin@system.com, got %q", got)
	}
}
