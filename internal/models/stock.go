package models

// Quote 实时报价
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	PreClose      float64 `json:"preClose"`
}

// CompanyProfile 公司概况
type CompanyProfile struct {
	Name      string  `json:"name"`
	Exchange  string  `json:"exchange"`
	Industry  string  `json:"industry"`
	Currency  string  `json:"currency"`
	Country   string  `json:"country"`
	MarketCap float64 `json:"marketCap"` // 百万
}

// KLineData 日K数据
type KLineData struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// PriceTarget 分析师目标价
type PriceTarget struct {
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	UpdatedAt string  `json:"updatedAt"`
}

// Recommendation 某一期的分析师评级分布
type Recommendation struct {
	Period     string `json:"period"`
	StrongBuy  int64  `json:"strongBuy"`
	Buy        int64  `json:"buy"`
	Hold       int64  `json:"hold"`
	Sell       int64  `json:"sell"`
	StrongSell int64  `json:"strongSell"`
}

// StockSnapshot 单只股票的市场数据快照
// 各部分独立获取，缺失部分在 Missing 中记录原因
type StockSnapshot struct {
	Symbol          Ticker             `json:"symbol"`
	Quote           *Quote             `json:"quote,omitempty"`
	Profile         *CompanyProfile    `json:"profile,omitempty"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
	Target          *PriceTarget       `json:"target,omitempty"`
	Recommendations []Recommendation   `json:"recommendations,omitempty"`
	Candles         []KLineData        `json:"candles,omitempty"`
	Missing         map[string]string  `json:"missing,omitempty"`
}
