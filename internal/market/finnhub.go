package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/models"
)

var log = logger.New("Market")

// 快照中的各部分
const (
	SectionProfile         = "profile"
	SectionMetrics         = "metrics"
	SectionTarget          = "price_target"
	SectionRecommendations = "recommendations"
	SectionCandles         = "candles"
)

// Finnhub 基于 Finnhub REST 接口的 Provider
type Finnhub struct {
	client     *finnhub.DefaultApiService
	candleDays int
	now        func() time.Time
}

// NewFinnhub 创建 Finnhub 行情客户端；baseURL 为空时使用官方地址
func NewFinnhub(apiKey, baseURL string, candleDays int) *Finnhub {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	if baseURL != "" {
		cfg.Servers = finnhub.ServerConfigurations{{URL: baseURL}}
	}
	if candleDays <= 0 {
		candleDays = 14
	}
	return &Finnhub{
		client:     finnhub.NewAPIClient(cfg).DefaultApi,
		candleDays: candleDays,
		now:        time.Now,
	}
}

var _ Provider = (*Finnhub)(nil)

// Snapshot 先取报价，再并发获取其余部分
func (f *Finnhub) Snapshot(ctx context.Context, ticker models.Ticker) (*models.StockSnapshot, error) {
	symbol := string(ticker)
	q, _, err := f.client.Quote(ctx).Symbol(symbol).Execute()
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	if q.GetC() == 0 && q.GetPc() == 0 {
		return nil, ErrNoQuote
	}

	snap := &models.StockSnapshot{
		Symbol: ticker,
		Quote: &models.Quote{
			Symbol:        symbol,
			Price:         float64(q.GetC()),
			Change:        float64(q.GetD()),
			ChangePercent: float64(q.GetDp()),
			Open:          float64(q.GetO()),
			High:          float64(q.GetH()),
			Low:           float64(q.GetL()),
			PreClose:      float64(q.GetPc()),
		},
		Missing: make(map[string]string),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	sections := map[string]func(context.Context, *models.StockSnapshot) error{
		SectionProfile:         f.fillProfile,
		SectionMetrics:         f.fillMetrics,
		SectionTarget:          f.fillTarget,
		SectionRecommendations: f.fillRecommendations,
		SectionCandles:         f.fillCandles,
	}
	for name, fill := range sections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			part := &models.StockSnapshot{Symbol: ticker}
			if err := fill(ctx, part); err != nil {
				log.Debug("%s %s unavailable: %v", symbol, name, err)
				mu.Lock()
				snap.Missing[name] = err.Error()
				mu.Unlock()
				return
			}
			mu.Lock()
			merge(snap, part)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(snap.Missing) == 0 {
		snap.Missing = nil
	}
	return snap, nil
}

func merge(dst, src *models.StockSnapshot) {
	if src.Profile != nil {
		dst.Profile = src.Profile
	}
	if src.Metrics != nil {
		dst.Metrics = src.Metrics
	}
	if src.Target != nil {
		dst.Target = src.Target
	}
	if src.Recommendations != nil {
		dst.Recommendations = src.Recommendations
	}
	if src.Candles != nil {
		dst.Candles = src.Candles
	}
}

func (f *Finnhub) fillProfile(ctx context.Context, snap *models.StockSnapshot) error {
	p, _, err := f.client.CompanyProfile2(ctx).Symbol(string(snap.Symbol)).Execute()
	if err != nil {
		return err
	}
	if p.GetName() == "" {
		return fmt.Errorf("empty profile")
	}
	snap.Profile = &models.CompanyProfile{
		Name:      p.GetName(),
		Exchange:  p.GetExchange(),
		Industry:  p.GetFinnhubIndustry(),
		Currency:  p.GetCurrency(),
		Country:   p.GetCountry(),
		MarketCap: float64(p.GetMarketCapitalization()),
	}
	return nil
}

func (f *Finnhub) fillMetrics(ctx context.Context, snap *models.StockSnapshot) error {
	res, _, err := f.client.CompanyBasicFinancials(ctx).Symbol(string(snap.Symbol)).Metric("all").Execute()
	if err != nil {
		return err
	}
	metrics := make(map[string]float64)
	for k, v := range res.GetMetric() {
		if n, ok := v.(float64); ok {
			metrics[k] = n
		}
	}
	if len(metrics) == 0 {
		return fmt.Errorf("no metrics returned")
	}
	snap.Metrics = metrics
	return nil
}

func (f *Finnhub) fillTarget(ctx context.Context, snap *models.StockSnapshot) error {
	t, _, err := f.client.PriceTarget(ctx).Symbol(string(snap.Symbol)).Execute()
	if err != nil {
		return err
	}
	if t.GetTargetMean() == 0 {
		return fmt.Errorf("no price target coverage")
	}
	snap.Target = &models.PriceTarget{
		High:      float64(t.GetTargetHigh()),
		Low:       float64(t.GetTargetLow()),
		Mean:      float64(t.GetTargetMean()),
		Median:    float64(t.GetTargetMedian()),
		UpdatedAt: t.GetLastUpdated(),
	}
	return nil
}

func (f *Finnhub) fillRecommendations(ctx context.Context, snap *models.StockSnapshot) error {
	trends, _, err := f.client.RecommendationTrends(ctx).Symbol(string(snap.Symbol)).Execute()
	if err != nil {
		return err
	}
	if len(trends) == 0 {
		return fmt.Errorf("no analyst coverage")
	}
	for _, r := range trends {
		snap.Recommendations = append(snap.Recommendations, models.Recommendation{
			Period:     r.GetPeriod(),
			StrongBuy:  int64(r.GetStrongBuy()),
			Buy:        int64(r.GetBuy()),
			Hold:       int64(r.GetHold()),
			Sell:       int64(r.GetSell()),
			StrongSell: int64(r.GetStrongSell()),
		})
	}
	return nil
}

func (f *Finnhub) fillCandles(ctx context.Context, snap *models.StockSnapshot) error {
	to := f.now()
	from := to.AddDate(0, 0, -f.candleDays)
	c, _, err := f.client.StockCandles(ctx).
		Symbol(string(snap.Symbol)).
		Resolution("D").
		From(from.Unix()).
		To(to.Unix()).
		Execute()
	if err != nil {
		return err
	}
	if c.GetS() != "ok" {
		return fmt.Errorf("candle status %q", c.GetS())
	}
	closes, opens, highs, lows, vols, ts := c.GetC(), c.GetO(), c.GetH(), c.GetL(), c.GetV(), c.GetT()
	n := min(len(closes), len(opens), len(highs), len(lows), len(vols), len(ts))
	for i := 0; i < n; i++ {
		snap.Candles = append(snap.Candles, models.KLineData{
			Time:   time.Unix(ts[i], 0).UTC().Format("2006-01-02"),
			Open:   float64(opens[i]),
			High:   float64(highs[i]),
			Low:    float64(lows[i]),
			Close:  float64(closes[i]),
			Volume: int64(float64(vols[i])),
		})
	}
	if len(snap.Candles) == 0 {
		return fmt.Errorf("no candles in range")
	}
	return nil
}
