package web_search

import (
	"context"
	"errors"

	"github.com/arash-fz/docent/tools/web_search/brave"
	"github.com/arash-fz/docent/tools/web_search/models"
	"github.com/arash-fz/docent/tools/web_search/serper"
)

// WebSearcher returns ranked candidate sources for a query.
type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported search provider")
	// ErrUnconfigured is returned by NewWebSearcher when the provider has no
	// API key; callers treat it as "provider unavailable" and move on to the
	// fallback.
	ErrUnconfigured = errors.New("search provider not configured")
)

func NewWebSearcher(provider Provider, apiKey string) (WebSearcher, error) {
	if apiKey == "" {
		return nil, ErrUnconfigured
	}
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: apiKey}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
