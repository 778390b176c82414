// Package memory holds the provenance record of ingested sources. It
// tracks which URLs have been pulled into the semantic store, plus a
// topic-to-source index reused by later discovery.
package memory

import "context"

// SourceInfo describes one registered source.
type SourceInfo struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

// Memory is the durable provenance store shared by every orchestration run
// in a deployment. Writes are synchronous: a nil return means the mutation
// is persisted. Sources and topics are append-only; summaries overwrite.
type Memory interface {
	HasSource(ctx context.Context, url string) (bool, error)
	RegisterSource(ctx context.Context, url, sourceType, title string) error
	Sources(ctx context.Context) (map[string]SourceInfo, error)

	AddTopicSource(ctx context.Context, topic, url string) error
	TopicSources(ctx context.Context, topic string) ([]string, error)

	SaveSummary(ctx context.Context, url, summary string) error
	Summary(ctx context.Context, url string) (string, bool, error)
}
