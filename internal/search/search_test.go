package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	resp *Response
	err  error
}

func (s *stubSearcher) Search(ctx context.Context, req *Request) (*Response, error) {
	return s.resp, s.err
}

func TestCleanSnippet(t *testing.T) {
	assert.Equal(t, "Nvidia beats estimates", CleanSnippet("<p>Nvidia <b>beats</b>\n estimates</p>", 0))
	assert.Equal(t, "AT&T", CleanSnippet("AT&amp;T", 0))
	assert.Equal(t, "abc...", CleanSnippet("abcdef", 3))
	assert.Equal(t, "plain text", CleanSnippet("  plain   text ", 0))
}

func TestSourceFromURL(t *testing.T) {
	assert.Equal(t, "reuters.com", SourceFromURL("https://www.reuters.com/markets/us/x?y=1"))
	assert.Equal(t, "example.org", SourceFromURL("example.org/path"))
}

func TestEnricherFetchesShortSnippetsOnly(t *testing.T) {
	next := &stubSearcher{resp: &Response{Results: []Result{
		{Title: "short", URL: "https://a.com/1", Content: "tiny"},
		{Title: "long", URL: "https://a.com/2", Content: "this snippet is long enough already"},
		{Title: "nourl", Content: "x"},
	}}}
	var calls int32
	e := NewEnricher(next, 10, time.Second).(*Enricher)
	e.fetch = func(url string, timeout time.Duration) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "full article body for " + url, nil
	}

	resp, err := e.Search(context.Background(), &Request{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "full article body for https://a.com/1", resp.Results[0].RawContent)
	assert.Empty(t, resp.Results[1].RawContent)
}

func TestEnricherKeepsSnippetWhenFetchFails(t *testing.T) {
	next := &stubSearcher{resp: &Response{Results: []Result{{URL: "https://a.com", Content: "tiny"}}}}
	e := NewEnricher(next, 100, time.Second).(*Enricher)
	e.fetch = func(string, time.Duration) (string, error) { return "", errors.New("403") }

	resp, err := e.Search(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, "tiny", resp.Results[0].Content)
	assert.Empty(t, resp.Results[0].RawContent)
}

func TestNewEnricherDisabled(t *testing.T) {
	next := &stubSearcher{}
	assert.Same(t, Searcher(next), NewEnricher(next, 0, time.Second))
}
