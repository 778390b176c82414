package core

// DefaultLowContextThreshold is the mean-relevance floor below which
// retrieved context is judged too weak to answer from. Tunable via
// rag.low_context_threshold.
const DefaultLowContextThreshold = 0.35

// IsLowContext reports whether the retrieved chunks are insufficient:
// either nothing came back, or the mean relevance score is below the
// threshold. A chunk without a score counts as zero, penalizing the mean
// rather than being excluded from it.
func IsLowContext(chunks []RetrievedChunk, threshold float64) bool {
	if len(chunks) == 0 {
		return true
	}
	var sum float64
	for _, c := range chunks {
		sum += c.Score
	}
	return sum/float64(len(chunks)) < threshold
}
