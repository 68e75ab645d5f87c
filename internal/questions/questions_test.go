package questions

import (
	"math/rand"
	"testing"
)

func TestForTypeKnown(t *testing.T) {
	qs := ForType("backend-engineering")
	if len(qs) == 0 {
		t.Fatal("backend-engineering set is empty")
	}
	if qs[0].ID != "1" {
		t.Errorf("first question id = %q, want 1", qs[0].ID)
	}
}

func TestForTypeUnknownFallsBack(t *testing.T) {
	fallback := ForType("")
	if len(fallback) == 0 {
		t.Fatal("fallback set is empty")
	}
	got := ForType("underwater-basket-weaving")
	if len(got) != len(fallback) {
		t.Fatalf("unknown type: got %d questions, want fallback set of %d", len(got), len(fallback))
	}
	for i := range got {
		if got[i] != fallback[i] {
			t.Errorf("question %d differs from fallback", i)
		}
	}
}

func TestQuestionIDsUnique(t *testing.T) {
	for typ := range sets {
		seen := make(map[string]bool)
		for _, q := range sets[typ] {
			if seen[q.ID] {
				t.Errorf("%s: duplicate question id %q", typ, q.ID)
			}
			seen[q.ID] = true
			if q.Text == "" {
				t.Errorf("%s: question %s has no text", typ, q.ID)
			}
		}
	}
}

func TestRandomTransitionFromPool(t *testing.T) {
	pool := make(map[string]bool)
	for _, s := range Transitions() {
		pool[s] = true
	}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		if line := RandomTransition(rng); !pool[line] {
			t.Fatalf("transition %q not in the configured pool", line)
		}
	}
}

func TestTextFor(t *testing.T) {
	tests := []struct {
		interviewType string
		questionID    string
		want          string
	}{
		{"behavioral-general", "1", "Tell me a little about yourself."},
		{"behavioral-general", IntroID, "Are you ready to start your interview?"},
		{"behavioral-general", "99", "Unknown question"},
	}
	for _, tt := range tests {
		if got := TextFor(tt.interviewType, tt.questionID); got != tt.want {
			t.Errorf("TextFor(%s, %s) = %q, want %q", tt.interviewType, tt.questionID, got, tt.want)
		}
	}
}
