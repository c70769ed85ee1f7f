package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/nekouibeam/investment-agent/internal/models"
	"github.com/nekouibeam/investment-agent/internal/search"
)

type fakeMarket struct {
	snap *models.StockSnapshot
	err  error
	got  []models.Ticker
}

func (f *fakeMarket) Snapshot(ctx context.Context, t models.Ticker) (*models.StockSnapshot, error) {
	f.got = append(f.got, t)
	return f.snap, f.err
}

type fakeSearcher struct {
	resp *search.Response
	err  error
	req  *search.Request
}

func (f *fakeSearcher) Search(ctx context.Context, req *search.Request) (*search.Response, error) {
	f.req = req
	return f.resp, f.err
}

func newRegistry(t *testing.T, m *fakeMarket, s *fakeSearcher) *Registry {
	t.Helper()
	r, err := NewRegistry(m, s, 5)
	require.NoError(t, err)
	return r
}

func TestRegistryDeclarations(t *testing.T) {
	r := newRegistry(t, &fakeMarket{}, &fakeSearcher{})
	assert.Equal(t, []string{SearchNewsToolName, StockDataToolName}, r.Names())

	tl, ok := r.Get(StockDataToolName)
	require.True(t, ok)
	declarer, ok := tl.(interface {
		Declaration() *genai.FunctionDeclaration
	})
	require.True(t, ok)
	decl := declarer.Declaration()
	assert.Equal(t, StockDataToolName, decl.Name)

	raw, err := json.Marshal(decl.ParametersJsonSchema)
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema["type"])
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "ticker")
	assert.Equal(t, []any{"ticker"}, schema["required"])

	_, err = r.GetTools(StockDataToolName, "place_order")
	assert.Error(t, err)
}

func TestStockDataToolFormatsSnapshot(t *testing.T) {
	m := &fakeMarket{snap: &models.StockSnapshot{Symbol: "NVDA", Quote: &models.Quote{Price: 100}}}
	r := newRegistry(t, m, &fakeSearcher{})

	out, err := r.stockData(context.Background(), GetStockDataInput{Ticker: "nvda"})
	require.NoError(t, err)
	assert.Contains(t, out, "=== NVDA ===")
	assert.Contains(t, out, "--- VALUATION ---")
	assert.Equal(t, []models.Ticker{"NVDA"}, m.got)
}

func TestStockDataToolAbsorbsErrors(t *testing.T) {
	m := &fakeMarket{err: errors.New("rate limited")}
	r := newRegistry(t, m, &fakeSearcher{})
	ctx := context.Background()

	out, err := r.stockData(ctx, GetStockDataInput{Ticker: "MU"})
	assert.Error(t, err)
	assert.Equal(t, "Error fetching data for MU: rate limited", out)

	out, err = r.stockData(ctx, GetStockDataInput{Ticker: "???"})
	assert.Error(t, err)
	assert.Contains(t, out, "invalid ticker")
}

func TestSearchNewsTool(t *testing.T) {
	s := &fakeSearcher{resp: &search.Response{Results: []search.Result{
		{Title: "Nvidia <b>beats</b>", URL: "https://www.reuters.com/a", Content: "<p>Record data center revenue</p>", PublishedDate: "2026-10-10"},
	}}}
	r := newRegistry(t, &fakeMarket{}, s)

	out, err := r.searchNews(context.Background(), SearchNewsInput{Query: "NVDA earnings"})
	require.NoError(t, err)
	assert.Contains(t, out, "1. Nvidia beats")
	assert.Contains(t, out, "Source: reuters.com | 2026-10-10")
	assert.Contains(t, out, "Record data center revenue")
	assert.Equal(t, "news", s.req.Topic)
	assert.Equal(t, 5, s.req.MaxResults)

	_, err = r.searchNews(context.Background(), SearchNewsInput{Query: "NVDA", MaxResults: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, s.req.MaxResults)
}

func TestSearchNewsToolErrorsAsText(t *testing.T) {
	s := &fakeSearcher{err: errors.New("quota exceeded")}
	r := newRegistry(t, &fakeMarket{}, s)
	ctx := context.Background()

	out, err := r.searchNews(ctx, SearchNewsInput{Query: "MU"})
	assert.Error(t, err)
	assert.Equal(t, `Error searching news for "MU": quota exceeded`, out)

	out, _ = r.searchNews(ctx, SearchNewsInput{Query: " "})
	assert.Contains(t, out, "provide a search query")

	s.err, s.resp = nil, &search.Response{}
	out, err = r.searchNews(ctx, SearchNewsInput{Query: "MU"})
	require.NoError(t, err)
	assert.Equal(t, `No news found for "MU".`, out)
}
