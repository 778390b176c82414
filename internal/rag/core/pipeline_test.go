package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeStore struct {
	responses [][]RetrievedChunk
	queries   int
	inserted  [][]string
}

func (f *fakeStore) Query(_ context.Context, _ string, _ int) ([]RetrievedChunk, error) {
	f.queries++
	if len(f.responses) == 0 {
		return nil, nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeStore) Insert(_ context.Context, texts []string, _ []string, _ []map[string]interface{}) error {
	f.inserted = append(f.inserted, texts)
	return nil
}

func (f *fakeStore) DeleteBySourceType(context.Context, string) error { return nil }

type fakeIngestor struct {
	result *IngestResult
	err    error
	calls  int
}

func (f *fakeIngestor) AutoIngest(context.Context, string) (*IngestResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeTopics struct {
	topics    map[string]string
	summaries map[string]string
}

func (f *fakeTopics) AddTopicSource(_ context.Context, topic, url string) error {
	if f.topics == nil {
		f.topics = map[string]string{}
	}
	f.topics[topic] = url
	return nil
}

func (f *fakeTopics) SaveSummary(_ context.Context, url, summary string) error {
	if f.summaries == nil {
		f.summaries = map[string]string{}
	}
	f.summaries[url] = summary
	return nil
}

type fakeLLM struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string, _ float64) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newTestPipeline(t *testing.T, store *fakeStore, ing *fakeIngestor, llm *fakeLLM) (*Pipeline, *fakeTopics) {
	t.Helper()
	topics := &fakeTopics{}
	p, err := NewPipeline(store, ing, topics, llm, nil, Options{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p, topics
}

func strongChunks() []RetrievedChunk {
	return []RetrievedChunk{
		{Text: "The second law states entropy never decreases.", Score: 0.8},
		{Text: "Entropy measures disorder.", Score: 0.7},
	}
}

func TestAnswerSufficientContextSkipsIngestion(t *testing.T) {
	store := &fakeStore{responses: [][]RetrievedChunk{strongChunks()}}
	ing := &fakeIngestor{}
	llm := &fakeLLM{answer: "Entropy never decreases."}
	p, _ := newTestPipeline(t, store, ing, llm)

	result := p.Answer(context.Background(), "what is the second law of thermodynamics")

	if ing.calls != 0 {
		t.Fatalf("ingestor must not be consulted with sufficient context, got %d calls", ing.calls)
	}
	if result.NewIngestion {
		t.Fatal("new_ingestion must be false")
	}
	if store.queries != 1 {
		t.Fatalf("expected exactly 1 retrieval, got %d", store.queries)
	}
	if result.Answer != "Entropy never decreases." {
		t.Fatalf("unexpected answer %q", result.Answer)
	}
}

func TestAnswerReretrievesAtMostOnce(t *testing.T) {
	store := &fakeStore{responses: [][]RetrievedChunk{
		nil,            // first pass: nothing stored yet
		strongChunks(), // after ingestion
	}}
	ing := &fakeIngestor{result: &IngestResult{URL: "https://example.com/a", Type: SourceTypeWeb, Text: "content"}}
	llm := &fakeLLM{answer: "done"}
	p, _ := newTestPipeline(t, store, ing, llm)

	result := p.Answer(context.Background(), "explain entropy")

	if store.queries != 2 {
		t.Fatalf("store must be queried exactly twice, got %d", store.queries)
	}
	if !result.NewIngestion {
		t.Fatal("expected new_ingestion=true")
	}
	if result.Meta.URL != "https://example.com/a" {
		t.Fatalf("meta should carry the ingested url, got %q", result.Meta.URL)
	}
}

func TestAnswerIngestionNotFoundNoSecondRetrieval(t *testing.T) {
	store := &fakeStore{}
	ing := &fakeIngestor{result: &IngestResult{Type: SourceTypeNone, Text: FallbackAnswer}}
	llm := &fakeLLM{answer: "unused"}
	p, _ := newTestPipeline(t, store, ing, llm)

	result := p.Answer(context.Background(), "something truly obscure")

	if store.queries != 1 {
		t.Fatalf("a not-found discovery must not trigger re-retrieval, got %d queries", store.queries)
	}
	if result.NewIngestion {
		t.Fatal("not-found discovery is not a new ingestion")
	}
	if result.Answer != FallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", result.Answer)
	}
	if len(llm.prompts) != 0 {
		t.Fatal("LLM must not be invoked on empty context")
	}
}

func TestAnswerIngestionErrorIsSwallowed(t *testing.T) {
	store := &fakeStore{}
	ing := &fakeIngestor{err: errors.New("network down")}
	llm := &fakeLLM{answer: "unused"}
	p, _ := newTestPipeline(t, store, ing, llm)

	result := p.Answer(context.Background(), "anything")

	if result.Answer != FallbackAnswer {
		t.Fatalf("expected fallback answer, got %q", result.Answer)
	}
}

func TestAnswerLLMFailureSurfacesInAnswerText(t *testing.T) {
	store := &fakeStore{responses: [][]RetrievedChunk{strongChunks()}}
	ing := &fakeIngestor{}
	llm := &fakeLLM{err: errors.New("credentials missing")}
	p, _ := newTestPipeline(t, store, ing, llm)

	result := p.Answer(context.Background(), "explain entropy")

	if !strings.Contains(result.Answer, "LLM generation failed") {
		t.Fatalf("backend failure must surface as answer text, got %q", result.Answer)
	}
}

func TestAnswerQuizPrompt(t *testing.T) {
	store := &fakeStore{responses: [][]RetrievedChunk{strongChunks()}}
	ing := &fakeIngestor{}
	llm := &fakeLLM{answer: "Q1..."}
	p, _ := newTestPipeline(t, store, ing, llm)

	result := p.Answer(context.Background(), "quiz: Thermodynamics")

	if result.Intent != IntentQuiz {
		t.Fatalf("expected quiz intent, got %s", result.Intent)
	}
	if result.NewIngestion {
		t.Fatal("high-score context must not trigger ingestion")
	}
	if len(llm.prompts) != 1 || !strings.Contains(llm.prompts[0], "multiple-choice quiz") {
		t.Fatalf("quiz prompt must request a multiple-choice quiz, got %v", llm.prompts)
	}
}

func TestAnswerFiltersEmptyChunks(t *testing.T) {
	store := &fakeStore{responses: [][]RetrievedChunk{{
		{Text: "   ", Score: 0.9},
		{Text: "real content", Score: 0.9},
		{Text: "", Score: 0.9},
	}}}
	ing := &fakeIngestor{}
	llm := &fakeLLM{answer: "ok"}
	p, _ := newTestPipeline(t, store, ing, llm)

	result := p.Answer(context.Background(), "explain")

	if len(result.RetrievedChunks) != 1 {
		t.Fatalf("empty chunks must be discarded, got %d", len(result.RetrievedChunks))
	}
	if result.RetrievedChunks[0].Text != "real content" {
		t.Fatalf("unexpected surviving chunk %q", result.RetrievedChunks[0].Text)
	}
}

func TestAnswerRecordsTopicOnIngestion(t *testing.T) {
	store := &fakeStore{responses: [][]RetrievedChunk{
		nil,
		strongChunks(),
	}}
	ing := &fakeIngestor{result: &IngestResult{URL: "https://example.com/entropy", Type: SourceTypeWeb, Text: "x"}}
	llm := &fakeLLM{answer: "ok"}
	p, topics := newTestPipeline(t, store, ing, llm)

	long := strings.Repeat("Entropy ", 20) // > 60 chars once lowered
	p.Answer(context.Background(), long)

	if len(topics.topics) != 1 {
		t.Fatalf("expected one topic association, got %d", len(topics.topics))
	}
	for topic := range topics.topics {
		if len(topic) > 60 {
			t.Fatalf("topic key must be truncated to 60 bytes, got %d", len(topic))
		}
		if topic != strings.ToLower(topic) {
			t.Fatalf("topic key must be lowercased, got %q", topic)
		}
	}
}

func TestAnswerSavesSummaryForSummarizedIngestion(t *testing.T) {
	store := &fakeStore{responses: [][]RetrievedChunk{
		nil,
		strongChunks(),
	}}
	ing := &fakeIngestor{result: &IngestResult{URL: "https://example.com/a", Type: SourceTypeWeb, Text: "x"}}
	llm := &fakeLLM{answer: "a tidy summary"}
	p, topics := newTestPipeline(t, store, ing, llm)

	p.Answer(context.Background(), "summarize this for me")

	if got := topics.summaries["https://example.com/a"]; got != "a tidy summary" {
		t.Fatalf("summary must be cached against the ingested url, got %q", got)
	}
}

func TestAnswerNoSummarySaveForPlainAnswers(t *testing.T) {
	store := &fakeStore{responses: [][]RetrievedChunk{
		nil,
		strongChunks(),
	}}
	ing := &fakeIngestor{result: &IngestResult{URL: "https://example.com/a", Type: SourceTypeWeb, Text: "x"}}
	llm := &fakeLLM{answer: "plain answer"}
	p, topics := newTestPipeline(t, store, ing, llm)

	p.Answer(context.Background(), "what is entropy")

	if len(topics.summaries) != 0 {
		t.Fatalf("non-summarize intents must not cache summaries, got %v", topics.summaries)
	}
}

func TestAnswerResultAlwaysPopulated(t *testing.T) {
	store := &fakeStore{}
	ing := &fakeIngestor{}
	llm := &fakeLLM{answer: "unused"}
	p, _ := newTestPipeline(t, store, ing, llm)

	result := p.Answer(context.Background(), "anything at all")

	if result.Answer == "" {
		t.Fatal("answer must never be empty")
	}
	if result.Intent == "" {
		t.Fatal("intent must always be set")
	}
	if result.Meta == nil {
		t.Fatal("meta must always be populated")
	}
	if result.RetrievedChunks == nil {
		t.Fatal("retrieved_chunks must be non-nil")
	}
}

func TestNewPipelineRequiresCollaborators(t *testing.T) {
	if _, err := NewPipeline(nil, &fakeIngestor{}, &fakeTopics{}, &fakeLLM{}, nil, Options{}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewPipeline(&fakeStore{}, nil, &fakeTopics{}, &fakeLLM{}, nil, Options{}); err == nil {
		t.Fatal("expected error for nil ingestor")
	}
	if _, err := NewPipeline(&fakeStore{}, &fakeIngestor{}, &fakeTopics{}, nil, nil, Options{}); err == nil {
		t.Fatal("expected error for nil provider")
	}
}
