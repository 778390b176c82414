package core

import "strings"

// intentRules is checked in order; the first matching rule wins.
var intentRules = []struct {
	intent   Intent
	keywords []string
}{
	{IntentSummarize, []string{"summary", "summarize"}},
	{IntentFlashcards, []string{"flashcard", "anki", "study cards"}},
	{IntentQuiz, []string{"quiz", "test me", "mcqs"}},
}

// DetectIntent maps a user message to a response mode by case-insensitive
// substring match. It always returns a value, defaulting to answer.
func DetectIntent(message string) Intent {
	msg := strings.ToLower(message)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(msg, kw) {
				return rule.intent
			}
		}
	}
	return IntentAnswer
}
