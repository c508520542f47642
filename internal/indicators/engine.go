package indicators

import (
	"math"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/models"
)

// Default indicator windows.
const (
	DefaultRSIPeriod        = 14
	DefaultMACDFast         = 12
	DefaultMACDSlow         = 26
	DefaultMACDSignalWindow = 9
	DefaultShortWindow      = 20
	DefaultLongWindow       = 50
	DefaultVolatilityWindow = 20

	// TradingDaysPerYear scales window volatility to an annualized figure.
	TradingDaysPerYear = 252
)

// Engine computes the indicator set for a price series. Pure computation;
// safe for concurrent use.
type Engine struct {
	rsiPeriod    int
	macdFast     int
	macdSlow     int
	macdSignal   int
	shortWindow  int
	longWindow   int
	volWindow    int
	logger       arbor.ILogger
}

// Option overrides an engine window.
type Option func(*Engine)

// WithRSIPeriod sets the RSI lookback.
func WithRSIPeriod(period int) Option {
	return func(e *Engine) {
		if period > 0 {
			e.rsiPeriod = period
		}
	}
}

// WithMACDWindows sets the fast, slow and signal EMA windows.
func WithMACDWindows(fast, slow, signal int) Option {
	return func(e *Engine) {
		if fast > 0 && slow > 0 && signal > 0 {
			e.macdFast, e.macdSlow, e.macdSignal = fast, slow, signal
		}
	}
}

// WithMovingAverages sets the short and long simple moving average windows.
func WithMovingAverages(short, long int) Option {
	return func(e *Engine) {
		if short > 0 && long > 0 {
			e.shortWindow, e.longWindow = short, long
		}
	}
}

// WithVolatilityWindow sets the rolling window for return volatility.
func WithVolatilityWindow(window int) Option {
	return func(e *Engine) {
		if window > 1 {
			e.volWindow = window
		}
	}
}

// NewEngine creates an engine with the default windows.
func NewEngine(logger arbor.ILogger, opts ...Option) *Engine {
	e := &Engine{
		rsiPeriod:   DefaultRSIPeriod,
		macdFast:    DefaultMACDFast,
		macdSlow:    DefaultMACDSlow,
		macdSignal:  DefaultMACDSignalWindow,
		shortWindow: DefaultShortWindow,
		longWindow:  DefaultLongWindow,
		volWindow:   DefaultVolatilityWindow,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MinBars returns the shortest series the engine accepts: the longest
// configured window.
func (e *Engine) MinBars() int {
	minBars := e.longWindow
	for _, w := range []int{e.rsiPeriod + 1, e.macdSlow, e.shortWindow, e.volWindow + 1} {
		if w > minBars {
			minBars = w
		}
	}
	return minBars
}

// Compute derives the full indicator set, trend classification and series
// statistics for a validated price series.
func (e *Engine) Compute(series *models.PriceSeries) (*models.IndicatorSet, *models.TrendClassification, *models.SeriesStats, error) {
	if err := series.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if series.Len() < e.MinBars() {
		return nil, nil, nil, &models.InsufficientHistoryError{Bars: series.Len(), Required: e.MinBars()}
	}

	closes := series.Closes()

	rsi := e.rsiSeries(closes)
	macd, signal, histogram := e.macdSeries(closes)
	shortMA := rollingMean(closes, e.shortWindow)
	longMA := rollingMean(closes, e.longWindow)
	volatility := e.annualizedVolatility(closes)

	set := &models.IndicatorSet{
		RSI:           rsi,
		MACD:          macd,
		MACDSignal:    signal,
		MACDHistogram: histogram,
		ShortMA:       shortMA,
		LongMA:        longMA,
		Volatility:    volatility,
	}
	set.Latest = models.IndicatorSnapshot{
		Close:         closes[len(closes)-1],
		RSI:           set.RSI.Last(),
		MACD:          set.MACD.Last(),
		MACDSignal:    set.MACDSignal.Last(),
		MACDHistogram: set.MACDHistogram.Last(),
		ShortMA:       set.ShortMA.Last(),
		LongMA:        set.LongMA.Last(),
	}

	trend := classify(set)
	stats := seriesStats(series)

	if e.logger != nil {
		e.logger.Debug().
			Str("symbol", series.Symbol).
			Int("bars", series.Len()).
			Str("trend", string(trend.Trend)).
			Str("signal", string(trend.Signal)).
			Msg("Indicator set computed")
	}

	return set, trend, stats, nil
}

// rsiSeries computes RSI using rolling simple averages of gains and losses.
// RSI = 100 - 100/(1 + avgGain/avgLoss); a zero average loss saturates at
// 100. NaN before rsiPeriod deltas exist.
func (e *Engine) rsiSeries(closes []float64) models.Series {
	out := nanSlice(len(closes))
	if len(closes) <= e.rsiPeriod {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > e.rsiPeriod {
			gainSum -= gains[i-e.rsiPeriod]
			lossSum -= losses[i-e.rsiPeriod]
		}
		if i < e.rsiPeriod {
			continue
		}
		avgGain := gainSum / float64(e.rsiPeriod)
		avgLoss := lossSum / float64(e.rsiPeriod)
		if avgLoss == 0 {
			out[i] = 100.0
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}

// macdSeries computes the MACD line, signal line and histogram from EMA
// recurrences seeded with the first value.
func (e *Engine) macdSeries(closes []float64) (models.Series, models.Series, models.Series) {
	fast := ema(closes, e.macdFast)
	slow := ema(closes, e.macdSlow)

	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	signal := ema(macd, e.macdSignal)
	histogram := make([]float64, len(closes))
	for i := range closes {
		histogram[i] = macd[i] - signal[i]
	}
	return macd, signal, histogram
}

// annualizedVolatility is the trailing-window sample standard deviation of
// fractional returns scaled by sqrt(252).
func (e *Engine) annualizedVolatility(closes []float64) models.Metric {
	returns := pctReturns(closes)
	if len(returns) < e.volWindow {
		return models.UndefinedMetric()
	}
	windowed := rollingStd(returns, e.volWindow)
	last := windowed[len(windowed)-1]
	if math.IsNaN(last) {
		return models.UndefinedMetric()
	}
	return models.DefinedMetric(last * math.Sqrt(TradingDaysPerYear))
}

// seriesStats summarizes the raw series.
func seriesStats(series *models.PriceSeries) *models.SeriesStats {
	closes := series.Closes()
	volumes := make([]float64, series.Len())
	for i, b := range series.Bars {
		volumes[i] = b.Volume
	}

	highest, lowest := closes[0], closes[0]
	for _, c := range closes {
		if c > highest {
			highest = c
		}
		if c < lowest {
			lowest = c
		}
	}

	first, last := closes[0], closes[len(closes)-1]
	return &models.SeriesStats{
		Bars:         series.Len(),
		CurrentPrice: last,
		ChangePct:    (last/first - 1.0) * 100.0,
		AvgVolume:    mean(volumes),
		HighestClose: highest,
		LowestClose:  lowest,
	}
}
