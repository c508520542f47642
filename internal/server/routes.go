// -----------------------------------------------------------------------
// Last Modified: Tuesday, 14th April 2026 11:05:41 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (live log stream)
	mux.HandleFunc("/ws/logs", s.app.WSHandler.HandleWebSocket)

	// API routes - Analysis
	mux.HandleFunc("/api/analysis/stock", s.app.AnalysisHandler.StockAnalysisHandler)
	mux.HandleFunc("/api/analysis/campaigns", s.app.AnalysisHandler.CampaignAnalysisHandler)

	// API routes - Chat
	mux.HandleFunc("/api/chat", s.app.ChatHandler.AskHandler)
	mux.HandleFunc("/api/chat/", s.app.ChatHandler.GetSessionHandler) // GET /api/chat/{id}

	// API routes - Reports
	mux.HandleFunc("/api/report", s.app.ReportHandler.ReportHandler)

	// API routes - Logs
	mux.HandleFunc("/api/logs/recent", s.app.WSHandler.GetRecentLogsHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
