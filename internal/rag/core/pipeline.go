package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/arash-fz/docent/utils"
)

var pipelineTracer trace.Tracer = otel.Tracer("docent/internal/rag/core")

// Options carries the pipeline tunables.
type Options struct {
	TopK                int
	LowContextThreshold float64
	Temperature         float64
}

// Pipeline sequences one query through intent detection, retrieval,
// conditional ingestion, answer synthesis and memory update. It holds no
// per-request state; a single instance serves concurrent callers.
type Pipeline struct {
	store    VectorStore
	ingestor Ingestor
	topics   TopicMemory
	llm      CompletionProvider
	logger   *log.Logger
	opts     Options
}

// NewPipeline wires the pipeline's collaborators. Missing collaborators are
// configuration errors and fail construction.
func NewPipeline(store VectorStore, ingestor Ingestor, topics TopicMemory, llm CompletionProvider, logger *log.Logger, opts Options) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("pipeline requires a vector store")
	}
	if ingestor == nil {
		return nil, errors.New("pipeline requires an ingest orchestrator")
	}
	if topics == nil {
		return nil, errors.New("pipeline requires a topic memory")
	}
	if llm == nil {
		return nil, errors.New("pipeline requires a completion provider")
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[RAG] ", log.LstdFlags)
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.LowContextThreshold <= 0 {
		opts.LowContextThreshold = DefaultLowContextThreshold
	}
	return &Pipeline{store: store, ingestor: ingestor, topics: topics, llm: llm, logger: logger, opts: opts}, nil
}

// Answer runs the full pipeline for one query. It always terminates with
// answer text: backend and fetch failures surface in the answer, never as a
// returned error.
func (p *Pipeline) Answer(ctx context.Context, query string) Result {
	ctx, span := pipelineTracer.Start(ctx, "rag.answer")
	defer span.End()

	state := &State{Query: query}

	state = p.stepDetectIntent(state)
	span.SetAttributes(attribute.String("rag.intent", string(state.Intent)))

	state = p.stepRetrieve(ctx, state)
	state = p.stepCheckAndIngest(ctx, state)
	state = p.stepReretrieveIfNeeded(ctx, state)
	state = p.stepGenerateAnswer(ctx, state)
	state = p.stepUpdateMemory(ctx, state)

	span.SetAttributes(
		attribute.Bool("rag.new_ingestion", state.NewIngestionDone),
		attribute.Int("rag.chunks", len(state.RetrievedChunks)),
	)

	chunks := state.RetrievedChunks
	if chunks == nil {
		chunks = []RetrievedChunk{}
	}
	meta := IngestResult{}
	if state.ExtraIngestInfo != nil {
		meta = *state.ExtraIngestInfo
	}
	return Result{
		Answer:          state.FinalAnswer,
		Intent:          state.Intent,
		NewIngestion:    state.NewIngestionDone,
		Meta:            &meta,
		RetrievedChunks: chunks,
	}
}

func (p *Pipeline) stepDetectIntent(state *State) *State {
	state.Intent = DetectIntent(state.Query)
	return state
}

func (p *Pipeline) stepRetrieve(ctx context.Context, state *State) *State {
	ctx, span := pipelineTracer.Start(ctx, "rag.retrieve")
	defer span.End()

	chunks, err := p.store.Query(ctx, state.Query, p.opts.TopK)
	if err != nil {
		// Retrieval failure is treated as empty context, not a dead run.
		p.logger.Printf("retrieve failed: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		state.RetrievedChunks = nil
		return state
	}
	filtered := make([]RetrievedChunk, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) != "" {
			filtered = append(filtered, c)
		}
	}
	state.RetrievedChunks = filtered
	span.SetAttributes(attribute.Int("rag.retrieved", len(filtered)))
	return state
}

func (p *Pipeline) stepCheckAndIngest(ctx context.Context, state *State) *State {
	if !IsLowContext(state.RetrievedChunks, p.opts.LowContextThreshold) {
		return state
	}

	ctx, span := pipelineTracer.Start(ctx, "rag.ingest")
	defer span.End()

	result, err := p.ingestor.AutoIngest(ctx, state.Query)
	if err != nil {
		// Ingestion failure never aborts the run.
		p.logger.Printf("ingestion failed: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return state
	}
	if result != nil {
		state.ExtraIngestInfo = result
		if result.URL != "" && result.Type != SourceTypeNone {
			state.NewIngestionDone = true
		}
	}
	return state
}

func (p *Pipeline) stepReretrieveIfNeeded(ctx context.Context, state *State) *State {
	// Runs at most once per query, even if the fresh content still scores low.
	if !state.NewIngestionDone {
		return state
	}
	return p.stepRetrieve(ctx, state)
}

func (p *Pipeline) stepGenerateAnswer(ctx context.Context, state *State) *State {
	texts := make([]string, 0, len(state.RetrievedChunks))
	for _, c := range state.RetrievedChunks {
		texts = append(texts, c.Text)
	}
	contextText := strings.TrimSpace(strings.Join(texts, "\n\n"))
	if contextText == "" {
		state.FinalAnswer = FallbackAnswer
		return state
	}

	ctx, span := pipelineTracer.Start(ctx, "rag.generate")
	defer span.End()

	prompt := BuildPrompt(state.Intent, state.Query, contextText)
	answer, err := p.llm.Complete(ctx, prompt, p.opts.Temperature)
	if err != nil {
		p.logger.Printf("llm generation failed: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		state.FinalAnswer = fmt.Sprintf("LLM generation failed: %v", err)
		return state
	}
	state.FinalAnswer = answer
	return state
}

func (p *Pipeline) stepUpdateMemory(ctx context.Context, state *State) *State {
	if !state.NewIngestionDone || state.ExtraIngestInfo == nil || state.ExtraIngestInfo.URL == "" {
		return state
	}
	topic := utils.TopicKey(state.Query)
	if err := p.topics.AddTopicSource(ctx, topic, state.ExtraIngestInfo.URL); err != nil {
		p.logger.Printf("topic memory update failed: %v", err)
	}
	if state.Intent == IntentSummarize && state.FinalAnswer != FallbackAnswer {
		if err := p.topics.SaveSummary(ctx, state.ExtraIngestInfo.URL, state.FinalAnswer); err != nil {
			p.logger.Printf("summary save failed: %v", err)
		}
	}
	return state
}
