package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"

	"github.com/nekouibeam/investment-agent/internal/adk/adktest"
	"github.com/nekouibeam/investment-agent/internal/models"
)

func TestPatternResolve(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []models.Ticker
	}{
		{"bare tickers", "Analyze AAPL and MSFT", []models.Ticker{"AAPL", "MSFT"}},
		{"hypothesis with acronym", "Is HBM a bottleneck for NVDA?", []models.Ticker{"NVDA"}},
		{"cashtag", "what do you think of $tsla here", []models.Ticker{"TSLA"}},
		{"exchange prefix", "NASDAQ:NVDA vs NYSE:TSM", []models.Ticker{"NVDA", "TSM"}},
		{"company names", "compare nvidia and Micron margins", []models.Ticker{"NVDA", "MU"}},
		{"chinese alias", "美光的HBM产能会不会过剩", []models.Ticker{"MU"}},
		{"dedupe keeps first position", "NVDA, Nvidia and $NVDA again, then AMD", []models.Ticker{"NVDA", "AMD"}},
		{"class shares", "Is BRK.B a buy?", []models.Ticker{"BRK.B"}},
		{"full width", "ＮＶＤＡ 估值", []models.Ticker{"NVDA"}},
		{"stopwords only", "Should I BUY the AI ETF before the FOMC and CPI print?", []models.Ticker{}},
		{"nothing", "what is the weather today", []models.Ticker{}},
		{"alias wins over caps word", "Analyze TSMC margins", []models.Ticker{"TSM"}},
		{"shouted company name", "Is APPLE a buy?", []models.Ticker{"AAPL"}},
		{"shouted question", "WHAT ABOUT NVDA", []models.Ticker{}},
		{"shouted question keeps cashtags", "$NVDA AND $AMD NOW PLEASE", []models.Ticker{"NVDA", "AMD"}},
		{"shouted question keeps aliases", "WHAT ABOUT NVIDIA", []models.Ticker{"NVDA"}},
		{"caps ticker in prose", "Analyze NVDA investment potential", []models.Ticker{"NVDA"}},
	}
	p := NewPattern()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Resolve(context.Background(), models.Query(tt.query))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLLMResolve(t *testing.T) {
	llm := adktest.Script(adktest.Step{Response: adktest.Text("Sure:\n```json\n[\"nvda\", \"MU\", \"NVDA\", \"not a ticker!\"]\n```")})

	got, err := NewLLM(llm).Resolve(context.Background(), "Will Nvidia and Micron benefit from HBM demand?")
	require.NoError(t, err)
	assert.Equal(t, []models.Ticker{"NVDA", "MU"}, got)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, adktest.SystemText(reqs[0]), "JSON array")
	assert.Equal(t, "Will Nvidia and Micron benefit from HBM demand?", adktest.UserText(reqs[0]))
}

func TestLLMResolveErrors(t *testing.T) {
	_, err := NewLLM(adktest.Script(adktest.Step{Response: adktest.Text("I cannot tell")})).Resolve(context.Background(), "q")
	assert.ErrorContains(t, err, "no JSON array")

	boom := errors.New("quota exceeded")
	_, err = NewLLM(adktest.Script(adktest.Step{Err: boom})).Resolve(context.Background(), "q")
	assert.ErrorIs(t, err, boom)

	_, err = NewLLM(nil).Resolve(context.Background(), "q")
	assert.Error(t, err)
}

type stubResolver struct {
	tickers []models.Ticker
	err     error
	calls   int
}

func (s *stubResolver) Resolve(context.Context, models.Query) ([]models.Ticker, error) {
	s.calls++
	return s.tickers, s.err
}

func TestChain(t *testing.T) {
	failing := &stubResolver{err: errors.New("down")}
	empty := &stubResolver{}
	found := &stubResolver{tickers: []models.Ticker{"MU"}}
	never := &stubResolver{tickers: []models.Ticker{"AAPL"}}

	got, err := Chain{failing, empty, found, never}.Resolve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []models.Ticker{"MU"}, got)
	assert.Equal(t, 0, never.calls)

	got, err = Chain{empty}.Resolve(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Chain{empty, failing}.Resolve(context.Background(), "q")
	assert.ErrorContains(t, err, "down")
}

func TestChainFallsBackToModel(t *testing.T) {
	llm := adktest.New(func(context.Context, *model.LLMRequest) (*model.LLMResponse, error) {
		return adktest.Text(`["AAPL"]`), nil
	})
	r, err := New(StrategyChain, llm)
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), "how is the custom asic business doing at broadcom?")
	require.NoError(t, err)
	assert.Equal(t, []models.Ticker{"AVGO"}, got)
	assert.Empty(t, llm.Requests(), "pattern resolver should have answered first")

	got, err = r.Resolve(context.Background(), "how is the company behind the iphone doing?")
	require.NoError(t, err)
	assert.Equal(t, []models.Ticker{"AAPL"}, got)
	assert.Len(t, llm.Requests(), 1)

	got, err = r.Resolve(context.Background(), "WHAT ABOUT THE IPHONE MAKER")
	require.NoError(t, err)
	assert.Equal(t, []models.Ticker{"AAPL"}, got)
	assert.Len(t, llm.Requests(), 2)
}

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New("magic", nil)
	var cfgErr *models.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
