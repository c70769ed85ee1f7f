package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekouibeam/investment-agent/internal/config"
	"github.com/nekouibeam/investment-agent/internal/search"
	"github.com/nekouibeam/investment-agent/internal/search/finnhubnews"
	"github.com/nekouibeam/investment-agent/internal/search/searxng"
	"github.com/nekouibeam/investment-agent/internal/search/tavily"
)

func TestNewSearcher(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.Search.Provider = "tavily"
	cfg.Search.Tavily.APIKey = "tvly-test"
	s, err := NewSearcher(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &tavily.Client{}, s)

	cfg.Search.Provider = "searxng"
	cfg.Search.SearXNG.BaseURL = "http://localhost:8080"
	s, err = NewSearcher(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &searxng.Client{}, s)

	cfg.Search.Provider = "finnhub"
	cfg.Search.EnrichThreshold = 200
	s, err = NewSearcher(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &search.Enricher{}, s)

	cfg.Search.EnrichThreshold = 0
	s, err = NewSearcher(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &finnhubnews.Client{}, s)
}

func TestNewSearcherErrors(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.Search.Provider = "tavily"
	_, err := NewSearcher(ctx, cfg)
	assert.EqualError(t, err, "tavily api key is missing")

	cfg.Search.Provider = "bing"
	_, err = NewSearcher(ctx, cfg)
	assert.EqualError(t, err, "unknown search provider: bing")
}
