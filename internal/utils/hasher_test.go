package utils

import "testing"

func TestHashSeparatesParts(t *testing.T) {
	if Hash("ab", "c") == Hash("a", "bc") {
		t.Fatalf("expected different hashes for different part boundaries")
	}
	if Hash("token") != Hash("token") {
		t.Fatalf("expected Hash to be deterministic")
	}
	if len(Hash("x")) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(Hash("x")))
	}
}
