package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/arash-fz/docent/internal/memory"
	"github.com/arash-fz/docent/internal/rag/core"
	searchmodels "github.com/arash-fz/docent/tools/web_search/models"
	webmodels "github.com/arash-fz/docent/tools/web_fetch/models"
)

var urlRe = regexp.MustCompile(`https?://[^\s]+`)

// searchPortals are domains that host search result pages rather than
// content; choose-best skips them unless nothing else is offered.
var searchPortals = []string{
	"google.com",
	"duckduckgo.com",
	"bing.com",
	"serper.dev",
	"search.brave.com",
}

// Searcher returns ranked candidates for a query.
type Searcher interface {
	Discover(ctx context.Context, q string, k int) ([]searchmodels.Result, error)
}

// WebFetcher extracts article text from a web page.
type WebFetcher interface {
	Exec(ctx context.Context, url string) (webmodels.Result, error)
}

// TextFetcher extracts plain text from a URL or video reference.
type TextFetcher interface {
	Exec(ctx context.Context, ref string) (string, error)
}

// Orchestrator decides what new content to acquire for a query and how:
// an embedded URL is ingested directly, otherwise a source is discovered
// via web search and the choose-best heuristic. Provenance memory is
// consulted before any network fetch and updated after every successful
// ingestion.
type Orchestrator struct {
	store      core.VectorStore
	memory     memory.Memory
	primary    Searcher // may be nil when unconfigured
	fallback   Searcher // may be nil when unconfigured
	web        WebFetcher
	pdf        TextFetcher
	transcript TextFetcher
	logger     *log.Logger
	chunkSize  int
	maxResults int
}

// Config wires an Orchestrator.
type Config struct {
	Store      core.VectorStore
	Memory     memory.Memory
	Primary    Searcher
	Fallback   Searcher
	Web        WebFetcher
	PDF        TextFetcher
	Transcript TextFetcher
	Logger     *log.Logger
	ChunkSize  int
	MaxResults int
}

func NewOrchestrator(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Orchestrator{
		store:      cfg.Store,
		memory:     cfg.Memory,
		primary:    cfg.Primary,
		fallback:   cfg.Fallback,
		web:        cfg.Web,
		pdf:        cfg.PDF,
		transcript: cfg.Transcript,
		logger:     logger,
		chunkSize:  chunkSize,
		maxResults: maxResults,
	}
}

// FindURL returns the first URL embedded in the message, if any. At most
// one URL is acted on per call.
func FindURL(message string) string {
	return urlRe.FindString(message)
}

// AutoIngest acquires new content for the query. It returns nil when there
// was nothing new to do (source already registered), a result with type
// "none" when discovery found nothing usable, and a populated result after
// a successful ingestion. Fetch failures are absorbed, never returned.
func (o *Orchestrator) AutoIngest(ctx context.Context, query string) (*core.IngestResult, error) {
	if u := FindURL(query); u != "" {
		return o.handleURL(ctx, u, "")
	}
	return o.discoverAndIngest(ctx, query)
}

// IngestURL ingests one explicit URL, with the same provenance check and
// type dispatch as the embedded-URL path.
func (o *Orchestrator) IngestURL(ctx context.Context, u, title string) (*core.IngestResult, error) {
	return o.handleURL(ctx, u, title)
}

// IngestText chunks and stores caller-supplied text (uploads, pasted
// notes). No provenance entry is written because there is no URL identity.
// Returns the number of chunks stored.
func (o *Orchestrator) IngestText(ctx context.Context, text, sourceType, title string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, errors.New("text must not be empty")
	}
	if sourceType == "" {
		sourceType = core.SourceTypeManual
	}
	chunks := SplitChunks(text, o.chunkSize)
	ids := make([]string, len(chunks))
	metadata := make([]map[string]interface{}, len(chunks))
	for i := range chunks {
		ids[i] = uuid.New().String()
		metadata[i] = map[string]interface{}{
			"source_type": sourceType,
			"title":       title,
		}
	}
	if err := o.store.Insert(ctx, chunks, ids, metadata); err != nil {
		return 0, err
	}
	ingestsTotal.WithLabelValues(sourceType).Inc()
	return len(chunks), nil
}

// Reingest fetches an already-registered source again and re-inserts its
// chunks, used when rebuilding the vector store from provenance memory.
func (o *Orchestrator) Reingest(ctx context.Context, u, sourceType, title string) error {
	text := o.fetchText(ctx, sourceType, u)
	if text == "" {
		return fmt.Errorf("no text produced for %s", u)
	}
	return o.insertAndRegister(ctx, u, sourceType, title, text)
}

// handleURL ingests a user-supplied URL. An already-registered source is a
// deliberate no-op, distinct from a failed fetch.
func (o *Orchestrator) handleURL(ctx context.Context, u, title string) (*core.IngestResult, error) {
	seen, err := o.memory.HasSource(ctx, u)
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, nil
	}

	sourceType := ClassifyURL(u)
	if title == "" {
		title = defaultTitle(sourceType)
	}

	text := o.fetchText(ctx, sourceType, u)
	if text == "" {
		return nil, nil
	}
	if err := o.insertAndRegister(ctx, u, sourceType, title, text); err != nil {
		// Left unregistered so a later attempt can retry.
		o.logger.Printf("ingest of %s failed: %v", u, err)
		return nil, nil
	}
	return &core.IngestResult{URL: u, Type: sourceType, Title: title, Text: text}, nil
}

// discoverAndIngest searches the web for the query, picks the best
// candidate, and ingests it. The fallback provider is consulted once when
// the primary yields nothing usable.
func (o *Orchestrator) discoverAndIngest(ctx context.Context, query string) (*core.IngestResult, error) {
	best := ChooseBest(o.search(ctx, o.primary, query))

	usable := best != nil
	if usable {
		seen, err := o.memory.HasSource(ctx, best.URL)
		if err != nil {
			return nil, err
		}
		usable = !seen
	}
	if !usable {
		fallbackSearches.Inc()
		best = ChooseBest(o.search(ctx, o.fallback, query))
		if best == nil {
			return &core.IngestResult{Type: core.SourceTypeNone, Text: core.FallbackAnswer}, nil
		}
	}

	result, err := o.handleURL(ctx, best.URL, best.Title)
	if err != nil || result != nil {
		return result, err
	}
	// Candidate was already seen (nothing to do) or produced no text.
	seen, serr := o.memory.HasSource(ctx, best.URL)
	if serr == nil && seen {
		return nil, nil
	}
	return &core.IngestResult{URL: best.URL, Type: core.SourceTypeNone, Text: core.FallbackAnswer}, nil
}

func (o *Orchestrator) search(ctx context.Context, s Searcher, query string) []searchmodels.Result {
	if s == nil {
		return nil
	}
	results, err := s.Discover(ctx, query, o.maxResults)
	if err != nil {
		o.logger.Printf("search failed: %v", err)
		return nil
	}
	return results
}

// fetchText dispatches to exactly one fetch path by source type. Any
// fetcher failure yields an empty string.
func (o *Orchestrator) fetchText(ctx context.Context, sourceType, u string) string {
	switch sourceType {
	case core.SourceTypePDF:
		text, err := o.pdf.Exec(ctx, u)
		if err != nil {
			o.logger.Printf("pdf fetch %s: %v", u, err)
			return ""
		}
		return text
	case core.SourceTypeYouTube:
		text, err := o.transcript.Exec(ctx, u)
		if err != nil {
			o.logger.Printf("transcript fetch %s: %v", u, err)
			return ""
		}
		return text
	default:
		res, err := o.web.Exec(ctx, u)
		if err != nil {
			o.logger.Printf("web fetch %s: %v", u, err)
			return ""
		}
		return res.Text
	}
}

// insertAndRegister chunks the text into the vector store, then records the
// source in provenance memory. Registration happens only after insertion
// succeeds: a source is never marked seen without its content.
func (o *Orchestrator) insertAndRegister(ctx context.Context, u, sourceType, title, text string) error {
	chunks := SplitChunks(text, o.chunkSize)
	ids := make([]string, len(chunks))
	metadata := make([]map[string]interface{}, len(chunks))
	for i := range chunks {
		ids[i] = uuid.New().String()
		metadata[i] = map[string]interface{}{
			"source_type": sourceType,
			"title":       title,
			"url":         u,
		}
	}
	if err := o.store.Insert(ctx, chunks, ids, metadata); err != nil {
		return err
	}
	if err := o.memory.RegisterSource(ctx, u, sourceType, title); err != nil {
		// Content is in the store; an unregistered source just means a
		// duplicate fetch is possible later.
		o.logger.Printf("register %s failed: %v", u, err)
	}
	ingestsTotal.WithLabelValues(sourceType).Inc()
	return nil
}

// ClassifyURL maps a URL onto a fetch path by its shape.
func ClassifyURL(u string) string {
	lower := strings.ToLower(u)
	if strings.HasSuffix(lower, ".pdf") {
		return core.SourceTypePDF
	}
	if strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be") {
		return core.SourceTypeYouTube
	}
	return core.SourceTypeWeb
}

func defaultTitle(sourceType string) string {
	switch sourceType {
	case core.SourceTypePDF:
		return "PDF Document"
	case core.SourceTypeYouTube:
		return "YouTube Video"
	default:
		return "Web Page"
	}
}

// ChooseBest picks a candidate in a single order-preserving pass: the first
// video-platform URL wins, else the first URL not hosted on a search
// portal, else the first candidate, else nil.
func ChooseBest(candidates []searchmodels.Result) *searchmodels.Result {
	for i, c := range candidates {
		u := strings.ToLower(c.URL)
		if strings.Contains(u, "youtube.com") || strings.Contains(u, "youtu.be") {
			return &candidates[i]
		}
	}
	for i, c := range candidates {
		parsed, err := url.Parse(c.URL)
		if err != nil || parsed.Host == "" {
			continue
		}
		if !isSearchPortal(parsed.Host) {
			return &candidates[i]
		}
	}
	if len(candidates) > 0 {
		return &candidates[0]
	}
	return nil
}

func isSearchPortal(host string) bool {
	host = strings.ToLower(host)
	for _, portal := range searchPortals {
		if host == portal || strings.HasSuffix(host, "."+portal) {
			return true
		}
	}
	return false
}
