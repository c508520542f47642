package models

// Trend is the directional read of a price series.
type Trend string

const (
	TrendBullish Trend = "Bullish"
	TrendBearish Trend = "Bearish"
	TrendNeutral Trend = "Neutral"
)

// Signal is the action label derived from the trend rule table.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// RiskLevel labels annualized volatility.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// IndicatorSnapshot holds the most recent value of each indicator.
// Values inside the warm-up prefix are undefined.
type IndicatorSnapshot struct {
	Close         float64 `json:"close"`
	RSI           Metric  `json:"rsi"`
	MACD          Metric  `json:"macd"`
	MACDSignal    Metric  `json:"macd_signal"`
	MACDHistogram Metric  `json:"macd_histogram"`
	ShortMA       Metric  `json:"short_ma"`
	LongMA        Metric  `json:"long_ma"`
}

// IndicatorSet is the derived, read-only indicator output for one series.
// Every series field has the same length as the source PriceSeries, with a
// NaN warm-up prefix where insufficient history exists. Never mutated after
// computation.
type IndicatorSet struct {
	RSI           Series `json:"rsi"`
	MACD          Series `json:"macd"`
	MACDSignal    Series `json:"macd_signal"`
	MACDHistogram Series `json:"macd_histogram"`
	ShortMA       Series `json:"short_ma"`
	LongMA        Series `json:"long_ma"`

	// Volatility is the sample standard deviation of percentage returns over
	// the trailing window, annualized by sqrt(252).
	Volatility Metric `json:"volatility"`

	Latest IndicatorSnapshot `json:"latest"`
}

// TrendClassification is the deterministic trend/signal read of an
// IndicatorSet.
type TrendClassification struct {
	Trend   Trend     `json:"trend"`
	Signal  Signal    `json:"signal"`
	Risk    RiskLevel `json:"risk"`
	Comment string    `json:"comment"`
}

// SeriesStats summarizes the raw price series for display and prompts.
type SeriesStats struct {
	Bars         int     `json:"bars"`
	CurrentPrice float64 `json:"current_price"`
	ChangePct    float64 `json:"change_pct"`
	AvgVolume    float64 `json:"avg_volume"`
	HighestClose float64 `json:"highest_close"`
	LowestClose  float64 `json:"lowest_close"`
}
