package search

import (
	"context"
	"sync"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/nekouibeam/investment-agent/internal/logger"
)

var log = logger.New("Search")

// FetchFunc 抓取正文
type FetchFunc func(url string, timeout time.Duration) (string, error)

func fetchReadable(url string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// Enricher 包装 Searcher：摘要过短时抓取原文正文补全
type Enricher struct {
	next      Searcher
	threshold int
	timeout   time.Duration
	fetch     FetchFunc
}

// NewEnricher 创建正文补全包装；threshold<=0 时直接返回原 Searcher
func NewEnricher(next Searcher, threshold int, timeout time.Duration) Searcher {
	if threshold <= 0 {
		return next
	}
	return &Enricher{next: next, threshold: threshold, timeout: timeout, fetch: fetchReadable}
}

var _ Searcher = (*Enricher)(nil)

// Search 执行搜索并并发补全短摘要，抓取失败保留原摘要
func (e *Enricher) Search(ctx context.Context, req *Request) (*Response, error) {
	resp, err := e.next.Search(ctx, req)
	if err != nil || resp == nil {
		return resp, err
	}

	var wg sync.WaitGroup
	for i := range resp.Results {
		r := &resp.Results[i]
		if len(r.Content) >= e.threshold || r.URL == "" {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			text, err := e.fetch(r.URL, e.timeout)
			if err != nil {
				log.Debug("fetch %s failed: %v", r.URL, err)
				return
			}
			if len(text) > len(r.Content) {
				r.RawContent = text
			}
		}()
	}
	wg.Wait()
	return resp, nil
}
