package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ternarybob/insightx/internal/models"
)

// seriesFromCloses builds a valid daily series around the given closes.
func seriesFromCloses(symbol string, closes []float64) *models.PriceSeries {
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000 + float64(i),
		}
	}
	return &models.PriceSeries{Symbol: symbol, Period: models.Period6Months, Bars: bars}
}

// trendingCloses produces n closes with a gentle rise and periodic dips so
// gains and losses both occur.
func trendingCloses(n int) []float64 {
	closes := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		if i%5 == 4 {
			price -= 0.8
		} else {
			price += 1.1
		}
		closes[i] = price
	}
	return closes
}

func TestComputeRejectsShortSeries(t *testing.T) {
	engine := NewEngine(nil)
	series := seriesFromCloses("AAPL", trendingCloses(30))

	_, _, _, err := engine.Compute(series)
	if err == nil {
		t.Fatal("expected insufficient history error")
	}
	var insufficient *models.InsufficientHistoryError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %T, want *InsufficientHistoryError", err)
	}
	if insufficient.Required != 50 {
		t.Errorf("required = %d, want 50", insufficient.Required)
	}
	if insufficient.Bars != 30 {
		t.Errorf("bars = %d, want 30", insufficient.Bars)
	}
}

func TestComputeRejectsInvalidSeries(t *testing.T) {
	engine := NewEngine(nil)
	series := seriesFromCloses("AAPL", trendingCloses(60))
	series.Bars[10].High = series.Bars[10].Low - 1

	_, _, _, err := engine.Compute(series)
	var invalid *models.InvalidSeriesError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want *InvalidSeriesError", err)
	}
}

func TestComputeAlignmentAndWarmup(t *testing.T) {
	engine := NewEngine(nil)
	series := seriesFromCloses("AAPL", trendingCloses(60))

	set, trend, stats, err := engine.Compute(series)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	n := series.Len()
	for name, s := range map[string]models.Series{
		"rsi":            set.RSI,
		"macd":           set.MACD,
		"macd_signal":    set.MACDSignal,
		"macd_histogram": set.MACDHistogram,
		"short_ma":       set.ShortMA,
		"long_ma":        set.LongMA,
	} {
		if len(s) != n {
			t.Errorf("%s: length %d, want %d", name, len(s), n)
		}
	}

	// Warm-up prefixes are NaN; everything after is defined.
	checks := []struct {
		name   string
		series models.Series
		warmup int
	}{
		{"rsi", set.RSI, DefaultRSIPeriod},
		{"short_ma", set.ShortMA, DefaultShortWindow - 1},
		{"long_ma", set.LongMA, DefaultLongWindow - 1},
		{"macd", set.MACD, 0},
	}
	for _, c := range checks {
		for i := 0; i < c.warmup; i++ {
			if !math.IsNaN(c.series[i]) {
				t.Errorf("%s[%d]: expected NaN inside warm-up, got %v", c.name, i, c.series[i])
			}
		}
		for i := c.warmup; i < n; i++ {
			if math.IsNaN(c.series[i]) {
				t.Errorf("%s[%d]: unexpected NaN after warm-up", c.name, i)
			}
		}
	}

	if !set.Volatility.Defined || set.Volatility.Value < 0 {
		t.Errorf("volatility = %+v, want defined and non-negative", set.Volatility)
	}
	if trend == nil || trend.Trend == "" || trend.Signal == "" {
		t.Fatalf("trend classification incomplete: %+v", trend)
	}
	if stats.Bars != n || stats.CurrentPrice != series.Bars[n-1].Close {
		t.Errorf("stats mismatch: %+v", stats)
	}
	if stats.AvgVolume <= 0 {
		t.Errorf("avg volume = %v, want positive", stats.AvgVolume)
	}
}

func TestRSIBounds(t *testing.T) {
	engine := NewEngine(nil)
	// Oscillating series exercises both gains and losses.
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/3.0) + float64(i)*0.05
	}

	set, _, _, err := engine.Compute(seriesFromCloses("TSLA", closes))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	for i, v := range set.RSI {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("rsi[%d] = %v, out of [0,100]", i, v)
		}
	}
}

func TestRSISaturatesWithoutLosses(t *testing.T) {
	engine := NewEngine(nil)
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := engine.rsiSeries(closes)
	for i := DefaultRSIPeriod; i < len(rsi); i++ {
		if rsi[i] != 100.0 {
			t.Errorf("rsi[%d] = %v, want saturation at 100", i, rsi[i])
		}
	}
}

func TestRSIRollingAverages(t *testing.T) {
	engine := NewEngine(nil)
	// Deltas alternate +2, -1: avgGain = 1.0, avgLoss = 0.5, RSI = 200/3.
	closes := []float64{100}
	for i := 0; i < 19; i++ {
		if i%2 == 0 {
			closes = append(closes, closes[len(closes)-1]+2)
		} else {
			closes = append(closes, closes[len(closes)-1]-1)
		}
	}

	rsi := engine.rsiSeries(closes)
	want := 200.0 / 3.0
	for _, idx := range []int{14, 15, 19} {
		if !approxEqual(rsi[idx], want, 1e-12) {
			t.Errorf("rsi[%d] = %v, want %v", idx, rsi[idx], want)
		}
	}
	for i := 0; i < 14; i++ {
		if !math.IsNaN(rsi[i]) {
			t.Errorf("rsi[%d] = %v, want NaN warm-up", i, rsi[i])
		}
	}
}

func TestMACDReferenceSeries(t *testing.T) {
	engine := NewEngine(nil)
	// 30 monotonically increasing closes; references computed by evaluating
	// the EMA recurrence (seed = first value, alpha = 2/(w+1)) by hand.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	macd, signal, histogram := engine.macdSeries(closes)

	refs := []struct {
		idx       int
		macd      float64
		signal    float64
		histogram float64
	}{
		{0, 0, 0, 0},
		{5, 0.8783744584380031, 0.35827175637581243, 0.5201027020621907},
		{11, 2.5145634477164407, 1.5720874671285388, 0.9424759805879019},
		{25, 5.2592254801732, 4.592308539666899, 0.6669169405063009},
		{29, 5.701696584370282, 5.1722066994224365, 0.5294898849478455},
	}

	const relTol = 1e-6
	for _, ref := range refs {
		if !approxEqual(macd[ref.idx], ref.macd, relTol) {
			t.Errorf("macd[%d] = %.12f, want %.12f", ref.idx, macd[ref.idx], ref.macd)
		}
		if !approxEqual(signal[ref.idx], ref.signal, relTol) {
			t.Errorf("signal[%d] = %.12f, want %.12f", ref.idx, signal[ref.idx], ref.signal)
		}
		if !approxEqual(histogram[ref.idx], ref.histogram, relTol) {
			t.Errorf("histogram[%d] = %.12f, want %.12f", ref.idx, histogram[ref.idx], ref.histogram)
		}
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	engine := NewEngine(nil)

	// Alternating +2% / -1% moves over exactly one volatility window.
	closes := []float64{100}
	for i := 0; i < 20; i++ {
		factor := 1.02
		if i%2 == 1 {
			factor = 0.99
		}
		closes = append(closes, closes[len(closes)-1]*factor)
	}
	vol := engine.annualizedVolatility(closes)
	if !vol.Defined {
		t.Fatal("expected defined volatility")
	}
	if !approxEqual(vol.Value, 0.24430352131378663, 1e-9) {
		t.Errorf("volatility = %.12f, want 0.244303521314", vol.Value)
	}

	// Too little history leaves it undefined.
	if v := engine.annualizedVolatility(closes[:10]); v.Defined {
		t.Errorf("short series: got %+v, want undefined", v)
	}

	// A geometric series has identical returns and near-zero volatility.
	geo := make([]float64, 30)
	geo[0] = 100
	for i := 1; i < len(geo); i++ {
		geo[i] = geo[i-1] * 1.01
	}
	v := engine.annualizedVolatility(geo)
	if !v.Defined || v.Value < 0 || v.Value > 1e-9 {
		t.Errorf("geometric series volatility = %+v, want ~0", v)
	}
}

func TestEngineOptions(t *testing.T) {
	engine := NewEngine(nil,
		WithRSIPeriod(7),
		WithMACDWindows(5, 10, 4),
		WithMovingAverages(5, 15),
		WithVolatilityWindow(10),
	)
	if engine.MinBars() != 15 {
		t.Errorf("MinBars = %d, want 15", engine.MinBars())
	}

	series := seriesFromCloses("MSFT", trendingCloses(20))
	set, _, _, err := engine.Compute(series)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !math.IsNaN(set.LongMA[13]) || math.IsNaN(set.LongMA[14]) {
		t.Error("long MA warm-up should end at index 14 for window 15")
	}
}
