package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekouibeam/investment-agent/internal/search"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tv-key", r.Header.Get("Authorization"))

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "NVDA news", req.Query)
		assert.Equal(t, "news", req.Topic)
		assert.Equal(t, 3, req.MaxResults)

		_ = json.NewEncoder(w).Encode(SearchResponse{Results: []SearchResult{
			{Title: "Nvidia rallies", URL: "https://www.cnbc.com/a", Content: "shares up", Score: 0.9, PublishedDate: "2026-10-01"},
		}})
	}))
	defer srv.Close()

	c := NewClient("tv-key", srv.URL)
	resp, err := c.Search(context.Background(), &search.Request{Query: "NVDA news", MaxResults: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "cnbc.com", resp.Results[0].Source)
	assert.Equal(t, "2026-10-01", resp.Results[0].PublishedDate)
}

func TestSearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient("x", srv.URL).Search(context.Background(), &search.Request{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
