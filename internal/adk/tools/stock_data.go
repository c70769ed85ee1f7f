package tools

import (
	"context"
	"fmt"

	"google.golang.org/adk/tool"

	"github.com/nekouibeam/investment-agent/internal/market"
	"github.com/nekouibeam/investment-agent/internal/models"
)

// GetStockDataInput 行情工具输入参数
type GetStockDataInput struct {
	Ticker string `json:"ticker" jsonschema:"stock ticker symbol such as NVDA"`
}

// createStockDataTool 创建行情与基本面工具
func (r *Registry) createStockDataTool() (tool.Tool, error) {
	return TextTool(StockDataToolName,
		"Get a market data snapshot for one stock ticker: valuation, financial health, analyst estimates, price performance and the last 5 sessions of prices.",
		r.stockData)
}

// stockData 查询快照并格式化；失败时返回 "Error fetching data for <T>: <原因>"
func (r *Registry) stockData(ctx context.Context, input GetStockDataInput) (string, error) {
	log.Info("[%s] start, ticker=%s", StockDataToolName, input.Ticker)

	ticker, ok := models.NormalizeTicker(input.Ticker)
	if !ok {
		err := fmt.Errorf("invalid ticker symbol %q", input.Ticker)
		return fmt.Sprintf("Error fetching data for %s: %v", input.Ticker, err), err
	}

	snap, err := r.market.Snapshot(ctx, ticker)
	if err != nil {
		return fmt.Sprintf("Error fetching data for %s: %v", ticker, err), err
	}

	out := market.FormatSnapshot(snap)
	log.Info("[%s] done, ticker=%s, len=%d, missing=%d", StockDataToolName, ticker, len(out), len(snap.Missing))
	return out, nil
}
