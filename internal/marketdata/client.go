package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/models"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultTimeout   = 30 * time.Second
	defaultInterval  = "1d"
	defaultUserAgent = "Mozilla/5.0 (compatible; insightx/1.0)"
)

// Client fetches OHLCV history from the chart API.
type Client struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      arbor.ILogger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets the client-side request rate (requests per second).
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.rateLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent overrides the request user agent.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// NewClient creates a market data client with sane defaults: 30s timeout
// and 2 requests per second.
func NewClient(logger arbor.ILogger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		userAgent:   defaultUserAgent,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		rateLimiter: rate.NewLimiter(rate.Limit(2), 4),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPriceData fetches daily bars for a symbol over a period. The symbol is
// normalized first; missing or empty histories fail with NoDataFound.
func (c *Client) GetPriceData(ctx context.Context, symbol string, period models.Period) (*models.PriceSeries, error) {
	normalized := NormalizeSymbol(symbol)
	if normalized == "" {
		return nil, &models.NoDataFoundError{Symbol: symbol, Period: period}
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, normalized)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("interval", defaultInterval)
	q.Set("range", string(period))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", c.userAgent)

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", normalized).
			Str("period", string(period)).
			Msg("Fetching price history")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch price data: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &models.NoDataFoundError{Symbol: normalized, Period: period}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: req.URL.Path}
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}
	if parsed.Chart.Error != nil {
		return nil, &models.NoDataFoundError{Symbol: normalized, Period: period}
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, &models.NoDataFoundError{Symbol: normalized, Period: period}
	}

	series := buildSeries(normalized, period, parsed.Chart.Result[0])
	if series.Len() == 0 {
		return nil, &models.NoDataFoundError{Symbol: normalized, Period: period}
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", normalized).
			Int("bars", series.Len()).
			Msg("Price history fetched")
	}
	return series, nil
}

// buildSeries converts the parallel arrays into bars, skipping entries with
// null fields, and returns them sorted by time ascending.
func buildSeries(symbol string, period models.Period, result chartResult) *models.PriceSeries {
	series := &models.PriceSeries{Symbol: symbol, Period: period}
	if len(result.Indicators.Quote) == 0 {
		return series
	}
	quote := result.Indicators.Quote[0]

	for i, ts := range result.Timestamp {
		open := at(quote.Open, i)
		high := at(quote.High, i)
		low := at(quote.Low, i)
		closePrice := at(quote.Close, i)
		if open == nil || high == nil || low == nil || closePrice == nil {
			continue
		}
		bar := models.Bar{
			Time:  time.Unix(ts, 0).UTC(),
			Open:  *open,
			High:  *high,
			Low:   *low,
			Close: *closePrice,
		}
		if volume := at(quote.Volume, i); volume != nil {
			bar.Volume = *volume
		}
		series.Bars = append(series.Bars, bar)
	}

	sort.Slice(series.Bars, func(i, j int) bool {
		return series.Bars[i].Time.Before(series.Bars[j].Time)
	})
	return series
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func retryAfter(resp *http.Response) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}
