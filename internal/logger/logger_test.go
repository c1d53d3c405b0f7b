package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	if err := Init(Config{Level: "debug", Output: path}); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	l := Component("workflow")
	l.Info().Str("article_id", "a1").Msg("article submitted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	line := string(data)
	for _, want := range []string{`"component":"workflow"`, `"article_id":"a1"`, `"message":"article submitted"`} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected log line to contain %s, got %s", want, line)
		}
	}
}
