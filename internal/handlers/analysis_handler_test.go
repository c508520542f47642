package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/campaigns"
	"github.com/ternarybob/insightx/internal/indicators"
	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/models"
)

// mockMarketData implements interfaces.MarketDataService for testing
type mockMarketData struct {
	getPriceDataFunc func(ctx context.Context, symbol string, period models.Period) (*models.PriceSeries, error)
}

func (m *mockMarketData) GetPriceData(ctx context.Context, symbol string, period models.Period) (*models.PriceSeries, error) {
	if m.getPriceDataFunc != nil {
		return m.getPriceDataFunc(ctx, symbol, period)
	}
	return nil, &models.NoDataFoundError{Symbol: symbol, Period: period}
}

// mockInsightService implements interfaces.InsightService for testing
type mockInsightService struct {
	generateFunc  func(ctx context.Context, req *interfaces.InsightRequest) (*models.Insight, error)
	summarizeFunc func(ctx context.Context, bundle *models.AnalysisBundle, language models.Language) (*models.Insight, error)
}

func (m *mockInsightService) Generate(ctx context.Context, req *interfaces.InsightRequest) (*models.Insight, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return &models.Insight{Text: "generated", Provider: "mock", GeneratedAt: time.Now()}, nil
}

func (m *mockInsightService) Summarize(ctx context.Context, bundle *models.AnalysisBundle, language models.Language) (*models.Insight, error) {
	if m.summarizeFunc != nil {
		return m.summarizeFunc(ctx, bundle, language)
	}
	return &models.Insight{Text: "summary", Provider: "mock", GeneratedAt: time.Now()}, nil
}

// memBundleStore is an in-memory BundleStorage shared by the handler tests.
type memBundleStore struct {
	mu      sync.Mutex
	bundles map[string]*models.AnalysisBundle
}

func newMemBundleStore() *memBundleStore {
	return &memBundleStore{bundles: make(map[string]*models.AnalysisBundle)}
}

func (s *memBundleStore) StoreBundle(ctx context.Context, bundle *models.AnalysisBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[bundle.ID] = bundle
	return nil
}

func (s *memBundleStore) GetBundle(ctx context.Context, id string) (*models.AnalysisBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bundle, ok := s.bundles[id]
	if !ok {
		return nil, &models.NotFoundError{Kind: "bundle", ID: id}
	}
	return bundle, nil
}

func (s *memBundleStore) ListBundles(ctx context.Context, kind models.AnalysisKind, limit int) ([]*models.AnalysisBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.AnalysisBundle
	for _, b := range s.bundles {
		if kind != "" && b.Kind != kind {
			continue
		}
		result = append(result, b)
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *memBundleStore) DeleteBundle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bundles[id]; !ok {
		return &models.NotFoundError{Kind: "bundle", ID: id}
	}
	delete(s.bundles, id)
	return nil
}

func (s *memBundleStore) CountBundles(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bundles), nil
}

func (s *memBundleStore) DeleteExpired(ctx context.Context, maxAge int64) (int, error) {
	return 0, nil
}

// testSeries builds a valid daily series with a gentle rise and periodic
// dips so gains and losses both occur.
func testSeries(symbol string, n int) *models.PriceSeries {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	price := 100.0
	for i := 0; i < n; i++ {
		if i%5 == 4 {
			price -= 0.8
		} else {
			price += 1.1
		}
		bars[i] = models.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1_000_000,
		}
	}
	return &models.PriceSeries{Symbol: symbol, Period: models.Period6Months, Bars: bars}
}

func newTestAnalysisHandler(market interfaces.MarketDataService, insights interfaces.InsightService, store interfaces.BundleStorage) *AnalysisHandler {
	logger := arbor.NewLogger()
	return NewAnalysisHandler(market, indicators.NewEngine(logger), campaigns.NewEngine(logger), insights, store, nil, logger)
}

// executeJSONRequest posts a JSON body to the given handler func.
func executeJSONRequest(handler http.HandlerFunc, target string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestStockAnalysisHandler_Success(t *testing.T) {
	market := &mockMarketData{
		getPriceDataFunc: func(ctx context.Context, symbol string, period models.Period) (*models.PriceSeries, error) {
			return testSeries("AAPL", 60), nil
		},
	}
	insights := &mockInsightService{
		generateFunc: func(ctx context.Context, req *interfaces.InsightRequest) (*models.Insight, error) {
			if req.Kind != models.AnalysisTrading {
				t.Errorf("Expected trading insight request, got %s", req.Kind)
			}
			if req.Trading == nil || req.Trading.Symbol != "AAPL" {
				t.Error("Expected trading facts for AAPL")
			}
			return &models.Insight{Text: "Momentum looks healthy", Provider: "gemini", GeneratedAt: time.Now()}, nil
		},
	}
	store := newMemBundleStore()

	handler := newTestAnalysisHandler(market, insights, store)
	rec := executeJSONRequest(handler.StockAnalysisHandler, "/api/analysis/stock",
		map[string]interface{}{"ticker": "AAPL", "period": "6mo"})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["success"] != true {
		t.Error("Expected success true")
	}

	analysis, ok := response["analysis"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected analysis object in response")
	}
	if analysis["kind"] != "trading" {
		t.Errorf("Expected kind 'trading', got %v", analysis["kind"])
	}
	if analysis["symbol"] != "AAPL" {
		t.Errorf("Expected symbol 'AAPL', got %v", analysis["symbol"])
	}
	id, _ := analysis["id"].(string)
	if !strings.HasPrefix(id, "an_") {
		t.Errorf("Expected bundle id with an_ prefix, got %q", id)
	}
	if analysis["indicators"] == nil {
		t.Error("Expected indicators in analysis")
	}

	trend, ok := analysis["trend"].(map[string]interface{})
	if !ok || trend["trend"] == "" {
		t.Error("Expected trend classification in analysis")
	}

	insight, ok := analysis["insight"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected insight in analysis")
	}
	if insight["text"] != "Momentum looks healthy" {
		t.Errorf("Expected insight text, got %v", insight["text"])
	}

	// The bundle is persisted for later report assembly
	stored, err := store.GetBundle(context.Background(), id)
	if err != nil {
		t.Fatalf("Expected bundle %s stored, got %v", id, err)
	}
	if stored.Kind != models.AnalysisTrading {
		t.Errorf("Stored bundle kind = %s, want trading", stored.Kind)
	}
}

func TestStockAnalysisHandler_InsightDegrades(t *testing.T) {
	market := &mockMarketData{
		getPriceDataFunc: func(ctx context.Context, symbol string, period models.Period) (*models.PriceSeries, error) {
			return testSeries(symbol, 60), nil
		},
	}
	insights := &mockInsightService{
		generateFunc: func(ctx context.Context, req *interfaces.InsightRequest) (*models.Insight, error) {
			return nil, &models.InsightUnavailableError{Reason: "provider timeout"}
		},
	}

	handler := newTestAnalysisHandler(market, insights, newMemBundleStore())
	rec := executeJSONRequest(handler.StockAnalysisHandler, "/api/analysis/stock",
		map[string]interface{}{"ticker": "MSFT"})

	// Insight failure never fails the analysis
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	analysis := response["analysis"].(map[string]interface{})
	if analysis["insight"] != nil {
		t.Error("Expected no insight on degraded analysis")
	}
	failure, ok := analysis["insight_failure"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected insight_failure marker")
	}
	if failure["reason"] != "provider timeout" {
		t.Errorf("Expected reason 'provider timeout', got %v", failure["reason"])
	}
	if analysis["indicators"] == nil {
		t.Error("Expected indicators despite insight failure")
	}
}

func TestStockAnalysisHandler_InsightOptOut(t *testing.T) {
	var generateCalled bool
	market := &mockMarketData{
		getPriceDataFunc: func(ctx context.Context, symbol string, period models.Period) (*models.PriceSeries, error) {
			return testSeries(symbol, 60), nil
		},
	}
	insights := &mockInsightService{
		generateFunc: func(ctx context.Context, req *interfaces.InsightRequest) (*models.Insight, error) {
			generateCalled = true
			return &models.Insight{Text: "unwanted"}, nil
		},
	}

	handler := newTestAnalysisHandler(market, insights, newMemBundleStore())
	rec := executeJSONRequest(handler.StockAnalysisHandler, "/api/analysis/stock",
		map[string]interface{}{"ticker": "AAPL", "insight": false})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if generateCalled {
		t.Error("Expected insight generation to be skipped")
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	analysis := response["analysis"].(map[string]interface{})
	if analysis["insight"] != nil || analysis["insight_failure"] != nil {
		t.Error("Expected neither insight nor failure marker when opted out")
	}
}

func TestStockAnalysisHandler_NoData(t *testing.T) {
	market := &mockMarketData{
		getPriceDataFunc: func(ctx context.Context, symbol string, period models.Period) (*models.PriceSeries, error) {
			return nil, &models.NoDataFoundError{Symbol: symbol, Period: period}
		},
	}

	handler := newTestAnalysisHandler(market, nil, nil)
	rec := executeJSONRequest(handler.StockAnalysisHandler, "/api/analysis/stock",
		map[string]interface{}{"ticker": "NOSUCH"})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	if response["success"] != false {
		t.Error("Expected success false")
	}
	errMsg, _ := response["error"].(string)
	if !strings.Contains(errMsg, "no price data found") {
		t.Errorf("Expected no-data error message, got %q", errMsg)
	}
}

func TestStockAnalysisHandler_InsufficientHistory(t *testing.T) {
	market := &mockMarketData{
		getPriceDataFunc: func(ctx context.Context, symbol string, period models.Period) (*models.PriceSeries, error) {
			return testSeries(symbol, 30), nil
		},
	}

	handler := newTestAnalysisHandler(market, nil, nil)
	rec := executeJSONRequest(handler.StockAnalysisHandler, "/api/analysis/stock",
		map[string]interface{}{"ticker": "AAPL", "period": "1mo"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	errMsg, _ := response["error"].(string)
	if !strings.Contains(errMsg, "insufficient history") {
		t.Errorf("Expected insufficient history error, got %q", errMsg)
	}
}

func TestStockAnalysisHandler_Validation(t *testing.T) {
	handler := newTestAnalysisHandler(&mockMarketData{}, nil, nil)

	tests := []struct {
		name string
		body interface{}
	}{
		{"Missing ticker", map[string]interface{}{"period": "6mo"}},
		{"Blank ticker", map[string]interface{}{"ticker": "   "}},
		{"Unknown period", map[string]interface{}{"ticker": "AAPL", "period": "7y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := executeJSONRequest(handler.StockAnalysisHandler, "/api/analysis/stock", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rec.Code)
			}
		})
	}

	// Malformed JSON body
	req := httptest.NewRequest("POST", "/api/analysis/stock", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.StockAnalysisHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed body, got %d", rec.Code)
	}
}

func campaignRows() []map[string]interface{} {
	return []map[string]interface{}{
		{"name": "Search", "budget": 1000.0, "clicks": 500.0, "conversions": 50.0, "revenue": 3000.0},
		{"name": "Social", "budget": 500.0, "clicks": 100.0, "conversions": 5.0, "revenue": 250.0},
		{"name": "Display", "budget": 200.0, "clicks": 0.0, "conversions": 0.0, "revenue": 0.0},
	}
}

func TestCampaignAnalysisHandler_JSON(t *testing.T) {
	store := newMemBundleStore()
	handler := newTestAnalysisHandler(&mockMarketData{}, &mockInsightService{}, store)

	rec := executeJSONRequest(handler.CampaignAnalysisHandler, "/api/analysis/campaigns",
		map[string]interface{}{"records": campaignRows()})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	analysis := response["analysis"].(map[string]interface{})
	if analysis["kind"] != "marketing" {
		t.Errorf("Expected kind 'marketing', got %v", analysis["kind"])
	}

	kpis, ok := analysis["kpis"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected kpis in analysis")
	}
	records := kpis["records"].([]interface{})
	if len(records) != 3 {
		t.Fatalf("Expected 3 KPI records, got %d", len(records))
	}

	first := records[0].(map[string]interface{})
	if first["name"] != "Search" {
		t.Errorf("Expected first record 'Search', got %v", first["name"])
	}
	if roi := first["roi"].(float64); roi != 2.0 {
		t.Errorf("Expected Search ROI 2.0, got %v", roi)
	}

	// Zero clicks leaves the per-click ratios undefined for that record only
	third := records[2].(map[string]interface{})
	if third["conversion_rate"] != nil {
		t.Errorf("Expected undefined conversion rate, got %v", third["conversion_rate"])
	}
	if third["cost_per_click"] != nil {
		t.Errorf("Expected undefined cost per click, got %v", third["cost_per_click"])
	}

	ranking := analysis["ranking"].(map[string]interface{})
	best := ranking["best_roi"].(map[string]interface{})
	if best["name"] != "Search" {
		t.Errorf("Expected best ROI 'Search', got %v", best["name"])
	}

	if analysis["insight"] == nil {
		t.Error("Expected insight attached by default")
	}
}

func TestCampaignAnalysisHandler_CSVUpload(t *testing.T) {
	csv := "Campaign,Budget,Clicks,Conversions,Revenue\n" +
		"Search,1000,500,50,3000\n" +
		"Social,500,100,5,250\n"

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", "campaigns.csv")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write([]byte(csv))
	writer.WriteField("insight", "false")
	writer.Close()

	handler := newTestAnalysisHandler(&mockMarketData{}, &mockInsightService{}, newMemBundleStore())

	req := httptest.NewRequest("POST", "/api/analysis/campaigns", buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.CampaignAnalysisHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	analysis := response["analysis"].(map[string]interface{})
	kpis := analysis["kpis"].(map[string]interface{})
	records := kpis["records"].([]interface{})
	if len(records) != 2 {
		t.Fatalf("Expected 2 KPI records, got %d", len(records))
	}
	if records[0].(map[string]interface{})["name"] != "Search" {
		t.Error("Expected campaign name parsed from CSV")
	}
	if analysis["insight"] != nil {
		t.Error("Expected no insight when opted out via form field")
	}
}

func TestCampaignAnalysisHandler_MissingColumns(t *testing.T) {
	csv := "Campaign,Budget,Clicks\nSearch,1000,500\n"

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, _ := writer.CreateFormFile("file", "campaigns.csv")
	part.Write([]byte(csv))
	writer.Close()

	handler := newTestAnalysisHandler(&mockMarketData{}, nil, nil)

	req := httptest.NewRequest("POST", "/api/analysis/campaigns", buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.CampaignAnalysisHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	errMsg, _ := response["error"].(string)
	if !strings.Contains(errMsg, "missing required columns") {
		t.Errorf("Expected schema error, got %q", errMsg)
	}
	if !strings.Contains(errMsg, "Conversions") || !strings.Contains(errMsg, "Revenue") {
		t.Errorf("Expected absent columns named, got %q", errMsg)
	}
}

func TestCampaignAnalysisHandler_BadCell(t *testing.T) {
	csv := "Campaign,Budget,Clicks,Conversions,Revenue\nSearch,abc,500,50,3000\n"

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, _ := writer.CreateFormFile("file", "campaigns.csv")
	part.Write([]byte(csv))
	writer.Close()

	handler := newTestAnalysisHandler(&mockMarketData{}, nil, nil)

	req := httptest.NewRequest("POST", "/api/analysis/campaigns", buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.CampaignAnalysisHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	errMsg, _ := response["error"].(string)
	if !strings.Contains(errMsg, "not a number") {
		t.Errorf("Expected parse error, got %q", errMsg)
	}
}

func TestCampaignAnalysisHandler_NegativeValue(t *testing.T) {
	handler := newTestAnalysisHandler(&mockMarketData{}, nil, nil)

	rec := executeJSONRequest(handler.CampaignAnalysisHandler, "/api/analysis/campaigns",
		map[string]interface{}{"records": []map[string]interface{}{
			{"name": "Bad", "budget": -50.0, "clicks": 10.0, "conversions": 1.0, "revenue": 100.0},
		}})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	errMsg, _ := response["error"].(string)
	if !strings.Contains(errMsg, "negative") {
		t.Errorf("Expected negative value error, got %q", errMsg)
	}
}

func TestCampaignAnalysisHandler_EmptyRecords(t *testing.T) {
	handler := newTestAnalysisHandler(&mockMarketData{}, nil, nil)

	rec := executeJSONRequest(handler.CampaignAnalysisHandler, "/api/analysis/campaigns",
		map[string]interface{}{"records": []map[string]interface{}{}})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	errMsg, _ := response["error"].(string)
	if !strings.Contains(errMsg, "records field is required") {
		t.Errorf("Expected records-required error, got %q", errMsg)
	}
}
