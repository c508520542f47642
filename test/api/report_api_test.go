package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/insightx/internal/server"
)

// createStockBundle runs a stock analysis and returns the bundle id
func createStockBundle(t *testing.T, srv *server.Server) string {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/api/analysis/stock", map[string]interface{}{
		"ticker":  "AAPL",
		"insight": false,
	})
	require.Equal(t, http.StatusOK, w.Code, "Stock analysis should succeed")

	analysis, ok := parseJSON(t, w)["analysis"].(map[string]interface{})
	require.True(t, ok, "Response should contain an analysis object")
	id, _ := analysis["id"].(string)
	require.NotEmpty(t, id, "Analysis should carry a bundle id")
	return id
}

// createCampaignBundle runs a campaign analysis and returns the bundle id
func createCampaignBundle(t *testing.T, srv *server.Server) string {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/api/analysis/campaigns", map[string]interface{}{
		"insight": false,
		"records": []map[string]interface{}{
			{"name": "Search", "budget": 1000, "clicks": 500, "conversions": 50, "revenue": 3000},
			{"name": "Social", "budget": 500, "clicks": 100, "conversions": 5, "revenue": 250},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, "Campaign analysis should succeed")

	analysis, ok := parseJSON(t, w)["analysis"].(map[string]interface{})
	require.True(t, ok, "Response should contain an analysis object")
	id, _ := analysis["id"].(string)
	require.NotEmpty(t, id, "Analysis should carry a bundle id")
	return id
}

// assertPDFResponse checks the headers and magic bytes of a PDF download
func assertPDFResponse(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()

	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"), "Content type should be PDF")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf", "Disposition should name a PDF file")

	body := w.Body.Bytes()
	require.NotEmpty(t, body, "PDF body should not be empty")
	assert.True(t, strings.HasPrefix(string(body), "%PDF-"), "Body should start with the PDF magic bytes")
}

// TestReportFromCampaignBundle renders a marketing-only report
func TestReportFromCampaignBundle(t *testing.T) {
	t.Log("=== Testing Report From Campaign Bundle ===")

	srv, cleanup := setupTestApp(t)
	defer cleanup()

	marketingID := createCampaignBundle(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/report", map[string]interface{}{
		"marketing_id": marketingID,
	})

	assert.Equal(t, http.StatusOK, w.Code, "Status should be 200 OK")
	assertPDFResponse(t, w)

	t.Log("✅ SUCCESS: Marketing report rendered")
}

// TestReportCombined renders a report covering both analysis tracks
func TestReportCombined(t *testing.T) {
	t.Log("=== Testing Combined Report ===")

	srv, cleanup := setupTestApp(t)
	defer cleanup()

	tradingID := createStockBundle(t, srv)
	marketingID := createCampaignBundle(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/report", map[string]interface{}{
		"trading_id":   tradingID,
		"marketing_id": marketingID,
		"title":        "Quarterly Review",
	})

	assert.Equal(t, http.StatusOK, w.Code, "Status should be 200 OK")
	assertPDFResponse(t, w)

	t.Log("✅ SUCCESS: Combined report rendered")
}

// TestReportMissingBundle tests referencing a bundle that does not exist
func TestReportMissingBundle(t *testing.T) {
	t.Log("=== Testing Report Missing Bundle ===")

	srv, cleanup := setupTestApp(t)
	defer cleanup()

	w := doJSON(t, srv, http.MethodPost, "/api/report", map[string]interface{}{
		"trading_id": "an_does_not_exist",
	})

	assert.Equal(t, http.StatusNotFound, w.Code, "Status should be 404 Not Found")

	response := parseJSON(t, w)
	errMsg, _ := response["error"].(string)
	assert.Contains(t, errMsg, "not found", "Error should report the missing bundle")

	t.Log("✅ SUCCESS: Missing bundle reported as 404")
}

// TestReportKindMismatch tests passing a marketing bundle as the trading id
func TestReportKindMismatch(t *testing.T) {
	t.Log("=== Testing Report Kind Mismatch ===")

	srv, cleanup := setupTestApp(t)
	defer cleanup()

	marketingID := createCampaignBundle(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/report", map[string]interface{}{
		"trading_id": marketingID,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code, "Status should be 400 Bad Request")

	response := parseJSON(t, w)
	errMsg, _ := response["error"].(string)
	assert.Contains(t, errMsg, "marketing analysis", "Error should name the actual bundle kind")

	t.Log("✅ SUCCESS: Kind mismatch rejected")
}

// TestReportRequiresIDs tests that at least one bundle id must be given
func TestReportRequiresIDs(t *testing.T) {
	t.Log("=== Testing Report Requires Bundle IDs ===")

	srv, cleanup := setupTestApp(t)
	defer cleanup()

	w := doJSON(t, srv, http.MethodPost, "/api/report", map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, w.Code, "Status should be 400 Bad Request")

	response := parseJSON(t, w)
	errMsg, _ := response["error"].(string)
	assert.Contains(t, errMsg, "bundle id", "Error should ask for a bundle id")

	t.Log("✅ SUCCESS: Empty report request rejected")
}
