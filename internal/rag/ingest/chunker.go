package ingest

import "strings"

// DefaultChunkSize is the character budget per stored chunk.
const DefaultChunkSize = 800

// SplitChunks splits text into character-budgeted chunks: lines accumulate
// until adding the next one would exceed the budget, then the chunk is
// flushed. A single line longer than the budget becomes its own chunk.
func SplitChunks(text string, budget int) []string {
	if budget <= 0 {
		budget = DefaultChunkSize
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if current.Len() > 0 && current.Len()+1+len(line) > budget {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if strings.TrimSpace(current.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}
	return chunks
}
