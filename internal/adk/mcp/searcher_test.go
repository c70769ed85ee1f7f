package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekouibeam/investment-agent/internal/search"
)

type newsArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

func inMemorySearcher(t *testing.T, reply string) *Searcher {
	t.Helper()
	server := mcp.NewServer(&mcp.Implementation{Name: "news", Version: "1.0.0"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "search_news", Description: "news"},
		func(ctx context.Context, req *mcp.CallToolRequest, in newsArgs) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: reply}}}, nil, nil
		})

	s := NewSearcher(ServerConfig{Name: "test"}, "search_news", "query")
	s.client.transport = func() mcp.Transport {
		clientT, serverT := mcp.NewInMemoryTransports()
		_, err := server.Connect(context.Background(), serverT, nil)
		require.NoError(t, err)
		return clientT
	}
	return s
}

func TestSearcherParsesJSONResults(t *testing.T) {
	s := inMemorySearcher(t, `[{"title":"NVDA beats","url":"https://www.reuters.com/x","snippet":"record revenue"},{"title":"Second","url":"https://a.com"}]`)

	resp, err := s.Search(context.Background(), &search.Request{Query: "NVDA earnings", MaxResults: 1})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "NVDA beats", resp.Results[0].Title)
	assert.Equal(t, "reuters.com", resp.Results[0].Source)
	assert.Equal(t, "record revenue", resp.Results[0].Content)
}

func TestSearcherFallsBackToPlainText(t *testing.T) {
	s := inMemorySearcher(t, "Micron guides higher on HBM demand")

	resp, err := s.Search(context.Background(), &search.Request{Query: "MU"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Micron guides higher on HBM demand", resp.Results[0].Content)
}

func TestParseResultsWrapped(t *testing.T) {
	got := parseResults(`{"results":[{"title":"A","url":"http://b.org/p","content":"c","source":"B"}]}`)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Source)
	assert.Nil(t, parseResults("  "))
}

func TestSearcherCheck(t *testing.T) {
	s := inMemorySearcher(t, "[]")
	require.NoError(t, s.Check(context.Background()))

	s.toolName = "web_search"
	err := s.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no tool "web_search"`)
	assert.Contains(t, err.Error(), "search_news")
}
