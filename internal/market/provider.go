// Package market 提供个股行情与基本面快照
package market

import (
	"context"
	"errors"

	"github.com/nekouibeam/investment-agent/internal/models"
)

// ErrNoQuote 代码无报价数据，通常是代码不存在
var ErrNoQuote = errors.New("no quote data, symbol may be invalid")

// Provider 行情数据提供者
// 报价失败时返回错误；其余部分失败只记录在 StockSnapshot.Missing 中
type Provider interface {
	Snapshot(ctx context.Context, ticker models.Ticker) (*models.StockSnapshot, error)
}
