package core

import "testing"

func TestDetectIntentPriorityOrder(t *testing.T) {
	// summarize outranks quiz even when both keywords are present
	if got := DetectIntent("Give me a summary then quiz me on it"); got != IntentSummarize {
		t.Fatalf("expected summarize, got %s", got)
	}
	if got := DetectIntent("make flashcards and a quiz"); got != IntentFlashcards {
		t.Fatalf("expected flashcards, got %s", got)
	}
}

func TestDetectIntentKeywords(t *testing.T) {
	cases := []struct {
		message string
		want    Intent
	}{
		{"Summarize this chapter", IntentSummarize},
		{"I need a SUMMARY of thermodynamics", IntentSummarize},
		{"generate anki cards for me", IntentFlashcards},
		{"make study cards from this", IntentFlashcards},
		{"test me on entropy", IntentQuiz},
		{"give me some MCQs", IntentQuiz},
		{"what is the second law of thermodynamics", IntentAnswer},
		{"", IntentAnswer},
	}
	for _, tc := range cases {
		if got := DetectIntent(tc.message); got != tc.want {
			t.Errorf("DetectIntent(%q) = %s, want %s", tc.message, got, tc.want)
		}
	}
}
