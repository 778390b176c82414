package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arash-fz/docent/internal/rag/core"
	"github.com/arash-fz/docent/internal/rag/ingest"
	"github.com/arash-fz/docent/tools/pdf_fetch"
)

const maxUploadBytes = 32 << 20

// RAGHandler exposes the query and ingestion endpoints.
type RAGHandler struct {
	Pipeline *core.Pipeline
	Ingestor *ingest.Orchestrator
	Store    core.VectorStore
	Timeout  time.Duration
	Logger   *log.Logger
}

func (h *RAGHandler) Register(g *echo.Group) {
	if h.Logger == nil {
		h.Logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	g.POST("/query", h.query)
	g.POST("/ingest/text", h.ingestText)
	g.POST("/ingest/web", h.ingestURL)
	g.POST("/ingest/youtube", h.ingestURL)
	g.POST("/ingest/pdf", h.ingestPDF)
	g.DELETE("/clear/:source_type", h.clear)
}

func (h *RAGHandler) requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	ctx := c.Request().Context()
	if h.Timeout > 0 {
		return context.WithTimeout(ctx, h.Timeout)
	}
	return ctx, func() {}
}

func (h *RAGHandler) query(c echo.Context) error {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.Bind(&req); err != nil || req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result := h.Pipeline.Answer(ctx, req.Query)
	queriesTotal.WithLabelValues(string(result.Intent)).Inc()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"query":              req.Query,
		"answer":             result.Answer,
		"intent":             result.Intent,
		"new_ingestion_done": result.NewIngestion,
		"meta":               result.Meta,
		"retrieved_chunks":   result.RetrievedChunks,
	})
}

func (h *RAGHandler) ingestText(c echo.Context) error {
	var req struct {
		Text  string `json:"text"`
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text required")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	count, err := h.Ingestor.IngestText(ctx, req.Text, core.SourceTypeManual, req.Title)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	preview := req.Text
	if len(preview) > 80 {
		preview = preview[:80] + "..."
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "success", "chunks": count, "ingested": preview})
}

// ingestURL serves both /ingest/web and /ingest/youtube: the orchestrator
// classifies the URL and picks the fetch path itself.
func (h *RAGHandler) ingestURL(c echo.Context) error {
	var req struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url required")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.Ingestor.IngestURL(ctx, req.URL, req.Title)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if result == nil {
		h.Logger.Printf("ingest skipped, %s already registered", req.URL)
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "skipped", "source": req.URL})
	}
	h.Logger.Printf("ingested %s as %s", result.URL, result.Type)
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "success", "source": result.URL, "type": result.Type})
}

func (h *RAGHandler) ingestPDF(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()
	content, err := io.ReadAll(io.LimitReader(src, maxUploadBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	text, err := pdf_fetch.ExtractText(content)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	count, err := h.Ingestor.IngestText(ctx, text, core.SourceTypePDF, file.Filename)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "success", "chunks": count, "filename": file.Filename})
}

func (h *RAGHandler) clear(c echo.Context) error {
	sourceType := c.Param("source_type")

	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.Store.DeleteBySourceType(ctx, sourceType); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "cleared", "source_type": sourceType})
}
