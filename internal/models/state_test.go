package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTicker(t *testing.T) {
	cases := []struct {
		in   string
		want Ticker
	}{
		{"nvda", "NVDA"},
		{" $tsla ", "TSLA"},
		{"ＮＶＤＡ", "NVDA"},
		{"NASDAQ:aapl", "AAPL"},
		{"brk.b", "BRK.B"},
	}
	for _, c := range cases {
		got, ok := NormalizeTicker(c.in)
		assert.True(t, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, bad := range []string{"", "$", "123", "TOO-LONG-SYMBOL", "a b"} {
		_, ok := NormalizeTicker(bad)
		assert.False(t, ok, bad)
	}
}

func TestNormalizeTickersDedupKeepsOrder(t *testing.T) {
	got := NormalizeTickers([]string{"mu", "NVDA", "$MU", "??", "nvda", "amd"})
	assert.Equal(t, []Ticker{"MU", "NVDA", "AMD"}, got)
}

func TestStateApplyNeverOverwrites(t *testing.T) {
	s := NewState("Is NVDA overvalued?")
	require.NoError(t, s.Apply(Success("data", FieldDataAnalysis, "first")))

	err := s.Apply(Success("data", FieldDataAnalysis, "second"))
	assert.ErrorIs(t, err, ErrFieldAlreadySet)

	n, ok := s.Narrative(FieldDataAnalysis)
	assert.True(t, ok)
	assert.Equal(t, Narrative("first"), n)
}

func TestStateApplyFailureWritesPlaceholder(t *testing.T) {
	s := NewState("q")
	require.NoError(t, s.Apply(Failure("news_analysis", FieldNewsAnalysis, errors.New("quota exceeded"))))

	n, ok := s.Narrative(FieldNewsAnalysis)
	require.True(t, ok)
	assert.Equal(t, Narrative("[news_analysis unavailable: quota exceeded]"), n)
	assert.True(t, s.Has(FieldNewsAnalysis))
	assert.Equal(t, map[Field]string{FieldNewsAnalysis: "quota exceeded"}, s.Degraded())
}

func TestStateApplyRejectsBaseFields(t *testing.T) {
	s := NewState("q")
	assert.ErrorIs(t, s.Apply(Success("x", FieldTickers, "NVDA")), ErrUnknownField)
	assert.ErrorIs(t, s.Apply(Success("x", Field("bogus"), "y")), ErrUnknownField)
}

func TestSetTickers(t *testing.T) {
	s := NewState("q")
	assert.False(t, s.Has(FieldTickers))
	assert.ErrorIs(t, s.SetTickers(nil), ErrNoTickers)

	require.NoError(t, s.SetTickers([]Ticker{"NVDA"}))
	assert.True(t, s.Has(FieldTickers))
	assert.ErrorIs(t, s.SetTickers([]Ticker{"AMD"}), ErrFieldAlreadySet)
	assert.Equal(t, []Ticker{"NVDA"}, s.Tickers())
}

func TestNewReport(t *testing.T) {
	s := NewState("Analyze NVDA investment potential")
	require.NoError(t, s.SetTickers([]Ticker{"NVDA"}))

	_, err := NewReport("run-1", s)
	assert.Error(t, err)

	require.NoError(t, s.Apply(Success("data", FieldDataAnalysis, "D")))
	require.NoError(t, s.Apply(Failure("news", FieldNewsAnalysis, errors.New("boom"))))
	require.NoError(t, s.Apply(Success("risk", FieldRiskAssessment, "R")))
	require.NoError(t, s.Apply(Success("editor", FieldFinalReport, "F")))

	r, err := NewReport("run-1", s)
	require.NoError(t, err)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, []string{"NVDA"}, r.Tickers)
	assert.Equal(t, "D", r.DataAnalysis)
	assert.Equal(t, "[news unavailable: boom]", r.NewsAnalysis)
	assert.Equal(t, "F", r.FinalReport)
	assert.Equal(t, []string{"news_analysis"}, r.DegradedFields())
}

func TestErrorsUnwrap(t *testing.T) {
	inner := errors.New("timeout")
	var mce *ModelCallError
	err := error(&ModelCallError{Stage: "report_compiler", Err: inner})
	assert.ErrorAs(t, err, &mce)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, (&ConfigurationError{Key: "LLM_PROVIDER", Reason: "unsupported"}).Error(), "LLM_PROVIDER")
}
