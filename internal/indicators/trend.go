package indicators

import (
	"fmt"

	"github.com/ternarybob/insightx/internal/models"
)

// Volatility labels (annualized fractional volatility).
const (
	moderateVolatility = 0.20
	highVolatility     = 0.30
)

// classify applies the trend rule table to the latest indicator values:
//
//	short MA > long MA and MACD > signal  => Bullish / BUY
//	short MA < long MA and MACD < signal  => Bearish / SELL
//	otherwise                             => Neutral / HOLD
func classify(set *models.IndicatorSet) *models.TrendClassification {
	tc := &models.TrendClassification{
		Trend:  models.TrendNeutral,
		Signal: models.SignalHold,
		Risk:   riskLevel(set.Volatility),
	}

	shortMA := set.Latest.ShortMA
	longMA := set.Latest.LongMA
	macd := set.Latest.MACD
	signal := set.Latest.MACDSignal

	if shortMA.Defined && longMA.Defined && macd.Defined && signal.Defined {
		switch {
		case shortMA.Value > longMA.Value && macd.Value > signal.Value:
			tc.Trend = models.TrendBullish
			tc.Signal = models.SignalBuy
		case shortMA.Value < longMA.Value && macd.Value < signal.Value:
			tc.Trend = models.TrendBearish
			tc.Signal = models.SignalSell
		}
	}

	tc.Comment = trendComment(tc, set)
	return tc
}

// riskLevel maps annualized volatility onto a label. Undefined volatility
// reads as moderate.
func riskLevel(vol models.Metric) models.RiskLevel {
	if !vol.Defined {
		return models.RiskModerate
	}
	switch {
	case vol.Value > highVolatility:
		return models.RiskHigh
	case vol.Value > moderateVolatility:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

func trendComment(tc *models.TrendClassification, set *models.IndicatorSet) string {
	var direction string
	switch tc.Trend {
	case models.TrendBullish:
		direction = "short-term average above long-term with positive MACD momentum"
	case models.TrendBearish:
		direction = "short-term average below long-term with negative MACD momentum"
	default:
		direction = "moving averages and MACD momentum disagree"
	}

	comment := fmt.Sprintf("%s trend: %s.", tc.Trend, direction)
	if rsi := set.Latest.RSI; rsi.Defined {
		switch {
		case rsi.Value >= 70:
			comment += fmt.Sprintf(" RSI %.1f flags overbought conditions.", rsi.Value)
		case rsi.Value <= 30:
			comment += fmt.Sprintf(" RSI %.1f flags oversold conditions.", rsi.Value)
		}
	}
	if vol := set.Volatility; vol.Defined {
		comment += fmt.Sprintf(" Annualized volatility %.1f%% (%s risk).", vol.Value*100, tc.Risk)
	}
	return comment
}
