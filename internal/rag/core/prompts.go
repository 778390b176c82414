package core

import "fmt"

// FallbackAnswer is returned whenever no context text exists after all
// retrieval attempts. The LLM is never invoked on empty context.
const FallbackAnswer = "I could not find relevant information. Consider uploading a PDF, link, or checking online."

// BuildPrompt assembles the intent-specific prompt for the LLM backend.
func BuildPrompt(intent Intent, query, contextText string) string {
	switch intent {
	case IntentSummarize:
		return fmt.Sprintf("Summarize the following information clearly:\n\n%s", contextText)
	case IntentFlashcards:
		return fmt.Sprintf("Generate 10 study flashcards in Q&A format:\n\n%s", contextText)
	case IntentQuiz:
		return fmt.Sprintf("Generate a 10-question multiple-choice quiz (4 options each) from this content:\n\n%s", contextText)
	default:
		return fmt.Sprintf(
			"You are an expert assistant. Use the context below to answer the question.\n\nContext:\n%s\n\nQuestion: %s\nAnswer clearly:",
			contextText, query)
	}
}
