package cache

import (
	"strings"
	"testing"
)

func TestTopicKeyNormalization(t *testing.T) {
	// Varianti dello stesso topic devono produrre la stessa chiave
	base := TopicKey("Go Generics")
	variants := []string{
		"go generics",
		"  Go Generics  ",
		"GO GENERICS",
	}

	for _, v := range variants {
		if got := TopicKey(v); got != base {
			t.Errorf("TopicKey(%q) = %q, want %q", v, got, base)
		}
	}
}

func TestTopicKeyDistinct(t *testing.T) {
	if TopicKey("go generics") == TopicKey("go channels") {
		t.Error("Different topics produced the same cache key")
	}
}

func TestTopicKeyPrefix(t *testing.T) {
	key := TopicKey("anything")
	if !strings.HasPrefix(key, "contentforge:generation:") {
		t.Errorf("Unexpected key format: %q", key)
	}
}
