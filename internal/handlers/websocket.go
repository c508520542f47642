// -----------------------------------------------------------------------
// Last Modified: Monday, 16th March 2026 2:12:09 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/insightx/internal/common"
	"github.com/ternarybob/insightx/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for all websocket frames
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// LogLine is one parsed entry from the recent-logs endpoint
type LogLine struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// WebSocketHandler streams operational events to connected clients
type WebSocketHandler struct {
	events   interfaces.EventService
	logger   arbor.ILogger
	minLevel interfaces.EventLevel
	exclude  []string
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		events:   eventService,
		logger:   logger,
		minLevel: interfaces.EventLevelInfo,
		clients:  make(map[*websocket.Conn]bool),
	}

	if config != nil {
		if config.MinLevel != "" {
			h.minLevel = interfaces.EventLevel(strings.ToLower(config.MinLevel))
		}
		h.exclude = config.ExcludePatterns
	}

	return h
}

// HandleWebSocket handles GET /ws/logs connections. Each client gets its
// own event subscription; slow clients drop events rather than stalling
// the publishers.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	eventCh, unsubscribe := h.events.Subscribe(64)

	h.mu.Lock()
	h.clients[conn] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	// Writer goroutine drains the subscription; it ends when unsubscribe
	// closes the channel.
	common.SafeGo(h.logger, "ws-event-writer", func() {
		for event := range eventCh {
			if !h.shouldSend(event) {
				continue
			}

			data, err := json.Marshal(WSMessage{Type: "log_event", Payload: event})
			if err != nil {
				h.logger.Error().Err(err).Msg("Failed to marshal event message")
				continue
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				// Client gone; the read loop tears the connection down.
				return
			}
		}
	})

	defer func() {
		unsubscribe()

		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	// Read loop keeps the connection alive and detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}

// shouldSend applies the configured level floor and exclude patterns
func (h *WebSocketHandler) shouldSend(event interfaces.Event) bool {
	if levelRank(event.Level) < levelRank(h.minLevel) {
		return false
	}
	for _, pattern := range h.exclude {
		if pattern != "" && strings.Contains(event.Message, pattern) {
			return false
		}
	}
	return true
}

func levelRank(level interfaces.EventLevel) int {
	switch level {
	case interfaces.EventLevelError:
		return 2
	case interfaces.EventLevelWarn:
		return 1
	default:
		return 0
	}
}

// ClientCount returns the number of connected websocket clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetRecentLogsHandler returns recent log lines from the arbor memory
// writer as JSON. Responds with an empty list when no memory writer is
// registered.
func (h *WebSocketHandler) GetRecentLogsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	logs := []LogLine{}

	memWriter := arbor.GetRegisteredMemoryWriter(arbor.WRITER_MEMORY)
	if memWriter != nil {
		entries, err := memWriter.GetEntriesWithLimit(100)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to get log entries")
			WriteError(w, http.StatusInternalServerError, "Failed to retrieve logs")
			return
		}

		// Keys are timestamps; sorting gives chronological order.
		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			line := parseLogLine(entries[key])
			if line == nil {
				continue
			}
			if h.excludeLogLine(line.Message) {
				continue
			}
			line.Index = len(logs)
			logs = append(logs, *line)
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"count": len(logs),
	})
}

func (h *WebSocketHandler) excludeLogLine(message string) bool {
	for _, pattern := range h.exclude {
		if pattern != "" && strings.Contains(message, pattern) {
			return true
		}
	}
	return false
}

// parseLogLine splits the memory writer's "LEVEL | datetime | message"
// format. Lines in any other shape are skipped.
func parseLogLine(raw string) *LogLine {
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) != 3 {
		return nil
	}

	levelStr := strings.TrimSpace(parts[0])
	dateTime := strings.TrimSpace(parts[1])
	message := strings.TrimSpace(parts[2])

	timeParts := strings.Fields(dateTime)
	timestamp := ""
	if len(timeParts) > 0 {
		timestamp = timeParts[len(timeParts)-1]
	}

	level := "INF"
	switch levelStr {
	case "ERR", "ERROR", "FATAL", "PANIC":
		level = "ERR"
	case "WRN", "WARN":
		level = "WRN"
	case "DBG", "DEBUG":
		level = "DBG"
	}

	return &LogLine{
		Timestamp: timestamp,
		Level:     level,
		Message:   message,
	}
}
