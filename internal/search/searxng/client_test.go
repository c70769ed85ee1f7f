package searxng

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekouibeam/investment-agent/internal/search"
)

func TestSearchLimitsAndMapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "news", r.URL.Query().Get("categories"))
		_ = json.NewEncoder(w).Encode(SearchResponse{Results: []SearchResult{
			{Title: "a", URL: "https://www.ft.com/1", Engine: "bing news"},
			{Title: "b", URL: "", Engine: "google news"},
			{Title: "c", URL: "https://c.com"},
		}})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, time.Second).Search(context.Background(), &search.Request{Query: "micron", Topic: "news", MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "ft.com", resp.Results[0].Source)
	assert.Equal(t, "google news", resp.Results[1].Source)
}
