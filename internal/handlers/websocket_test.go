package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/common"
	"github.com/ternarybob/insightx/internal/interfaces"
	"github.com/ternarybob/insightx/internal/services/events"
)

func TestHandleWebSocket_StreamsEvents(t *testing.T) {
	logger := arbor.NewLogger()
	eventService := events.NewService(logger)
	defer eventService.Close()

	handler := NewWebSocketHandler(eventService, logger, &common.WebSocketConfig{})

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	// Wait for the subscription to register before publishing
	deadline := time.Now().Add(2 * time.Second)
	for handler.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if handler.ClientCount() != 1 {
		t.Fatalf("Expected 1 connected client, got %d", handler.ClientCount())
	}

	eventService.Publish(interfaces.Event{
		Level:   interfaces.EventLevelInfo,
		Source:  "analysis",
		Message: "Stock analysis complete for AAPL",
	})

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}

	if msg.Type != "log_event" {
		t.Errorf("Expected message type 'log_event', got %q", msg.Type)
	}

	payload, ok := msg.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected event payload, got %T", msg.Payload)
	}
	if payload["message"] != "Stock analysis complete for AAPL" {
		t.Errorf("Unexpected event message: %v", payload["message"])
	}
	if payload["source"] != "analysis" {
		t.Errorf("Unexpected event source: %v", payload["source"])
	}
}

func TestHandleWebSocket_ClientDisconnect(t *testing.T) {
	logger := arbor.NewLogger()
	eventService := events.NewService(logger)
	defer eventService.Close()

	handler := NewWebSocketHandler(eventService, logger, nil)

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for handler.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for handler.ClientCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if handler.ClientCount() != 0 {
		t.Errorf("Expected 0 clients after disconnect, got %d", handler.ClientCount())
	}

	// Publishing after disconnect must not panic
	eventService.Publish(interfaces.Event{Level: interfaces.EventLevelInfo, Message: "after disconnect"})
}

func TestShouldSend_LevelFloor(t *testing.T) {
	handler := NewWebSocketHandler(nil, arbor.NewLogger(), &common.WebSocketConfig{MinLevel: "warn"})

	if handler.shouldSend(interfaces.Event{Level: interfaces.EventLevelInfo, Message: "info"}) {
		t.Error("Expected info event filtered below warn floor")
	}
	if !handler.shouldSend(interfaces.Event{Level: interfaces.EventLevelWarn, Message: "warn"}) {
		t.Error("Expected warn event to pass")
	}
	if !handler.shouldSend(interfaces.Event{Level: interfaces.EventLevelError, Message: "error"}) {
		t.Error("Expected error event to pass")
	}
}

func TestShouldSend_ExcludePatterns(t *testing.T) {
	handler := NewWebSocketHandler(nil, arbor.NewLogger(), &common.WebSocketConfig{
		MinLevel:        "info",
		ExcludePatterns: []string{"WebSocket client connected"},
	})

	excluded := interfaces.Event{Level: interfaces.EventLevelInfo, Message: "WebSocket client connected (total: 3)"}
	if handler.shouldSend(excluded) {
		t.Error("Expected excluded pattern to be filtered")
	}

	kept := interfaces.Event{Level: interfaces.EventLevelInfo, Message: "Campaign analysis complete (5 records)"}
	if !handler.shouldSend(kept) {
		t.Error("Expected unrelated message to pass")
	}
}

func TestGetRecentLogsHandler(t *testing.T) {
	handler := NewWebSocketHandler(nil, arbor.NewLogger(), nil)

	req := httptest.NewRequest("GET", "/api/logs/recent", nil)
	rec := httptest.NewRecorder()
	handler.GetRecentLogsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	// Logs may be empty without a registered memory writer, but the shape
	// is always present.
	if _, ok := response["logs"].([]interface{}); !ok {
		t.Error("Expected logs array in response")
	}
	if _, ok := response["count"].(float64); !ok {
		t.Error("Expected count in response")
	}
}

func TestParseLogLine(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantNil   bool
		wantLevel string
		wantMsg   string
	}{
		{"Info line", "INF | 2026-03-16 14:12:09 | Server started", false, "INF", "Server started"},
		{"Error line", "ERR | 2026-03-16 14:12:10 | Fetch failed", false, "ERR", "Fetch failed"},
		{"Warn line", "WRN | 2026-03-16 14:12:11 | Slow response", false, "WRN", "Slow response"},
		{"Debug line", "DBG | 2026-03-16 14:12:12 | Cache miss", false, "DBG", "Cache miss"},
		{"Unknown level", "XYZ | 2026-03-16 14:12:13 | Something", false, "INF", "Something"},
		{"Message with pipes", "INF | 2026-03-16 14:12:14 | a | b | c", false, "INF", "a | b | c"},
		{"Malformed", "no separators here", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := parseLogLine(tt.raw)
			if tt.wantNil {
				if line != nil {
					t.Fatalf("Expected nil for %q, got %+v", tt.raw, line)
				}
				return
			}
			if line == nil {
				t.Fatalf("Expected parsed line for %q", tt.raw)
			}
			if line.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", line.Level, tt.wantLevel)
			}
			if line.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", line.Message, tt.wantMsg)
			}
			if line.Timestamp == "" {
				t.Error("Expected timestamp extracted")
			}
		})
	}
}
