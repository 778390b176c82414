package core

import (
	"context"
)

// Intent is the user's requested response mode.
type Intent string

const (
	IntentAnswer     Intent = "answer"
	IntentSummarize  Intent = "summarize"
	IntentFlashcards Intent = "flashcards"
	IntentQuiz       Intent = "quiz"
)

// Source types recorded in provenance memory and chunk metadata.
const (
	SourceTypePDF     = "pdf"
	SourceTypeYouTube = "youtube"
	SourceTypeWeb     = "web"
	SourceTypeNone    = "none"
	SourceTypeManual  = "manual"
)

// RetrievedChunk is one unit of retrieval from the vector store. Chunks
// arrive in retrieval-rank order and are never re-sorted downstream.
type RetrievedChunk struct {
	Text       string                 `json:"text"`
	SourceType string                 `json:"source_type"`
	Score      float64                `json:"score"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// IngestResult describes one newly acquired source. A nil *IngestResult
// from the ingest orchestrator means "nothing to do" (already seen); a
// result with Type "none" means discovery found nothing usable.
type IngestResult struct {
	URL   string `json:"url"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// State is the record threaded through one pipeline run. Each invocation
// owns its state exclusively; stages receive and return it by pointer but
// never share it across requests.
type State struct {
	Query            string
	Intent           Intent
	RetrievedChunks  []RetrievedChunk
	FinalAnswer      string
	NewIngestionDone bool
	ExtraIngestInfo  *IngestResult
}

// Result is the public output contract of one run. Every field is always
// populated.
type Result struct {
	Answer          string           `json:"answer"`
	Intent          Intent           `json:"intent"`
	NewIngestion    bool             `json:"new_ingestion"`
	Meta            *IngestResult    `json:"meta"`
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks"`
}

// VectorStore is the semantic store consumed by retrieval and ingestion.
type VectorStore interface {
	Insert(ctx context.Context, texts []string, ids []string, metadata []map[string]interface{}) error
	Query(ctx context.Context, text string, k int) ([]RetrievedChunk, error)
	DeleteBySourceType(ctx context.Context, sourceType string) error
}

// Ingestor decides what new content to acquire for a query and pulls it
// into the vector store. It returns nil when there was nothing new to do.
type Ingestor interface {
	AutoIngest(ctx context.Context, query string) (*IngestResult, error)
}

// TopicMemory is the slice of provenance memory the pipeline itself
// touches: associating a normalized topic key with a newly ingested URL,
// and caching per-source summaries.
type TopicMemory interface {
	AddTopicSource(ctx context.Context, topic, url string) error
	SaveSummary(ctx context.Context, url, summary string) error
}

// CompletionProvider generates the final answer text.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}
