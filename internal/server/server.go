package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arash-fz/docent/config"
	"github.com/arash-fz/docent/internal/memory"
	"github.com/arash-fz/docent/internal/memory/redismem"
	"github.com/arash-fz/docent/internal/rag/core"
	"github.com/arash-fz/docent/internal/rag/ingest"
	"github.com/arash-fz/docent/internal/store"
	"github.com/arash-fz/docent/provider"
	"github.com/arash-fz/docent/tools/pdf_fetch"
	"github.com/arash-fz/docent/tools/transcript"
	"github.com/arash-fz/docent/tools/web_fetch"
	"github.com/arash-fz/docent/tools/web_search"
)

// Run wires every collaborator from config and serves the HTTP API until
// the listener fails. Construction errors here are the only errors that
// escape the core; per-request failures surface as answer text.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()
	deps, err := BuildDeps(ctx, cfg)
	if err != nil {
		return err
	}

	h := &RAGHandler{
		Pipeline: deps.Pipeline,
		Ingestor: deps.Ingestor,
		Store:    deps.Store,
		Timeout:  cfg.General.RequestTimeout,
		Logger:   baseLogger,
	}
	h.Register(e.Group("/api"))

	return e.Start(cfg.Server.Address)
}

// Deps bundles the shared singletons built from config.
type Deps struct {
	Pipeline *core.Pipeline
	Ingestor *ingest.Orchestrator
	Store    *store.Store
	Memory   memory.Memory
}

// BuildDeps constructs provider, stores and orchestration from config. The
// serve, ask and sync commands all go through here.
func BuildDeps(ctx context.Context, cfg *config.Config) (*Deps, error) {
	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return nil, err
	}
	st, err := store.NewWithDSN(ctx, dsn, llm, cfg.Storage.Postgres.EmbeddingDimensions, nil)
	if err != nil {
		return nil, err
	}

	mem, err := redismem.Connect(ctx, cfg.Storage.Redis)
	if err != nil {
		return nil, err
	}

	webFetcher, err := web_fetch.NewWebFetcher(web_fetch.FetcherType(cfg.Fetch.Fetcher), cfg.Fetch.Timeout, cfg.Fetch.MaxChars)
	if err != nil {
		return nil, err
	}

	// Unconfigured search providers stay nil; discovery degrades to an
	// empty candidate list instead of failing construction.
	searchLogger := log.New(log.Writer(), "[SEARCH] ", log.LstdFlags)
	primary, err := web_search.NewWebSearcher(web_search.SerperProvider, cfg.Search.SerperAPIKey)
	if err != nil {
		searchLogger.Printf("primary search disabled: %v", err)
	}
	fallback, err := web_search.NewWebSearcher(web_search.BraveProvider, cfg.Search.BraveAPIKey)
	if err != nil {
		searchLogger.Printf("fallback search disabled: %v", err)
	}

	ingestor := ingest.NewOrchestrator(ingest.Config{
		Store:      st,
		Memory:     mem,
		Primary:    primary,
		Fallback:   fallback,
		Web:        webFetcher,
		PDF:        pdf_fetch.Fetch{Timeout: cfg.Fetch.Timeout},
		Transcript: transcript.Fetch{Timeout: cfg.Fetch.Timeout},
		ChunkSize:  cfg.RAG.ChunkSize,
		MaxResults: cfg.Search.MaxResults,
	})

	pipeline, err := core.NewPipeline(st, ingestor, mem, llm, nil, core.Options{
		TopK:                cfg.RAG.TopK,
		LowContextThreshold: cfg.RAG.LowContextThreshold,
		Temperature:         cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return &Deps{Pipeline: pipeline, Ingestor: ingestor, Store: st, Memory: mem}, nil
}
