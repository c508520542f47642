package insights

import "strings"

// Intent represents the analytics topic a question falls under.
type Intent string

const (
	IntentTrading   Intent = "trading"
	IntentMarketing Intent = "marketing"
	IntentGeneral   Intent = "general"
	IntentOffTopic  Intent = "off_topic"
)

// Keyword tables for intent classification. Matching is case-insensitive
// substring containment after trimming.
var tradingKeywords = []string{
	"stock", "ticker", "price", "share", "trading", "trade",
	"rsi", "macd", "moving average", "volatility", "bullish", "bearish",
	"buy", "sell", "hold", "crypto", "bitcoin", "ethereum",
	"candle", "chart", "momentum", "overbought", "oversold",
}

var marketingKeywords = []string{
	"campaign", "marketing", "roi", "conversion", "click", "ctr",
	"cpa", "cpc", "budget", "ad ", "ads", "advertis", "impression",
	"revenue", "spend", "funnel", "audience", "profit",
}

var generalKeywords = []string{
	"analysis", "analytics", "kpi", "metric", "report", "indicator",
	"statistic", "data", "dashboard", "summary", "performance",
}

// ClassifyIntent buckets a question into trading, marketing, general
// analytics, or off-topic. Trading and marketing take precedence over
// general when both match.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return IntentOffTopic
	}

	trading := containsAny(lower, tradingKeywords)
	marketing := containsAny(lower, marketingKeywords)

	switch {
	case trading && marketing:
		return IntentGeneral
	case trading:
		return IntentTrading
	case marketing:
		return IntentMarketing
	case containsAny(lower, generalKeywords):
		return IntentGeneral
	default:
		return IntentOffTopic
	}
}

// IsOnTopic reports whether a question is within the analytics scope the
// assistant answers. Off-topic questions are refused without a model call.
func IsOnTopic(text string) bool {
	return ClassifyIntent(text) != IntentOffTopic
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
