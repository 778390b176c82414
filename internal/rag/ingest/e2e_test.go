package ingest

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/arash-fz/docent/internal/memory/inmemory"
	"github.com/arash-fz/docent/internal/rag/core"
)

// recallStore is a vector store fake that returns whatever has been
// inserted, ranked with a fixed high score.
type recallStore struct {
	texts []string
	types []string
}

func (s *recallStore) Insert(_ context.Context, texts []string, _ []string, metadata []map[string]interface{}) error {
	for i, text := range texts {
		s.texts = append(s.texts, text)
		sourceType := core.SourceTypeManual
		if st, ok := metadata[i]["source_type"].(string); ok {
			sourceType = st
		}
		s.types = append(s.types, sourceType)
	}
	return nil
}

func (s *recallStore) Query(_ context.Context, _ string, k int) ([]core.RetrievedChunk, error) {
	var out []core.RetrievedChunk
	for i, text := range s.texts {
		if len(out) == k {
			break
		}
		out = append(out, core.RetrievedChunk{Text: text, SourceType: s.types[i], Score: 0.9})
	}
	return out, nil
}

func (s *recallStore) DeleteBySourceType(context.Context, string) error { return nil }

type echoLLM struct{}

func (echoLLM) Complete(_ context.Context, prompt string, _ float64) (string, error) {
	return "synthesized from: " + prompt[:20], nil
}

func TestPipelineIngestsVideoLinkEndToEnd(t *testing.T) {
	store := &recallStore{}
	mem := inmemory.New()
	orch := NewOrchestrator(Config{
		Store:      store,
		Memory:     mem,
		Web:        &fakeWeb{text: "unused"},
		PDF:        &fakeText{text: "unused"},
		Transcript: &fakeText{text: "the video explains entropy in detail"},
		Logger:     log.New(io.Discard, "", 0),
	})
	p, err := core.NewPipeline(store, orch, mem, echoLLM{}, log.New(io.Discard, "", 0), core.Options{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	result := p.Answer(context.Background(), "Explain this video: https://youtu.be/abc123")

	if !result.NewIngestion {
		t.Fatal("expected a new ingestion for an unseen video link")
	}
	if result.Meta.Type != core.SourceTypeYouTube {
		t.Fatalf("expected youtube meta, got %q", result.Meta.Type)
	}
	if result.Answer == core.FallbackAnswer {
		t.Fatal("expected a synthesized answer, not the fallback")
	}
	if len(result.RetrievedChunks) == 0 {
		t.Fatal("re-retrieval must surface the freshly ingested chunks")
	}

	seen, _ := mem.HasSource(context.Background(), "https://youtu.be/abc123")
	if !seen {
		t.Fatal("source must be registered in provenance memory")
	}
	topics, _ := mem.TopicSources(context.Background(), strings.ToLower("Explain this video: https://youtu.be/abc123"))
	if len(topics) != 1 || topics[0] != "https://youtu.be/abc123" {
		t.Fatalf("topic memory must record the ingested url, got %v", topics)
	}
}

func TestPipelineSecondRunReusesIngestedContent(t *testing.T) {
	store := &recallStore{}
	mem := inmemory.New()
	transcript := &fakeText{text: "the video explains entropy"}
	orch := NewOrchestrator(Config{
		Store:      store,
		Memory:     mem,
		Web:        &fakeWeb{},
		PDF:        &fakeText{},
		Transcript: transcript,
		Logger:     log.New(io.Discard, "", 0),
	})
	p, err := core.NewPipeline(store, orch, mem, echoLLM{}, log.New(io.Discard, "", 0), core.Options{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	first := p.Answer(context.Background(), "Explain this video: https://youtu.be/abc123")
	if !first.NewIngestion {
		t.Fatal("first run must ingest")
	}
	second := p.Answer(context.Background(), "Explain this video: https://youtu.be/abc123")
	if second.NewIngestion {
		t.Fatal("second run must not re-ingest a seen source")
	}
	if transcript.calls != 1 {
		t.Fatalf("transcript must be fetched exactly once, got %d", transcript.calls)
	}
	if second.Answer == core.FallbackAnswer {
		t.Fatal("second run still answers from the stored chunks")
	}
}
