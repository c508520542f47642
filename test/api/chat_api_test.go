package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChatRefusesOffTopic tests the topic gate and session persistence.
// An off-topic question never reaches a language model, so this runs the
// full stack without any provider configured.
func TestChatRefusesOffTopic(t *testing.T) {
	t.Log("=== Testing Chat Off-Topic Refusal ===")

	srv, cleanup := setupTestApp(t)
	defer cleanup()

	reqBody := map[string]interface{}{
		"message": "What is the best pizza topping?",
	}

	w := doJSON(t, srv, http.MethodPost, "/api/chat", reqBody)

	assert.Equal(t, http.StatusOK, w.Code, "Status should be 200 OK")

	response := parseJSON(t, w)
	assert.Equal(t, true, response["success"], "Request should be successful")
	assert.Equal(t, true, response["refused"], "Off-topic question should be refused")
	assert.NotEmpty(t, response["reply"], "Refusal should carry a reply")

	sessionID, _ := response["session_id"].(string)
	require.True(t, strings.HasPrefix(sessionID, "chat_"), "Session id should carry the chat_ prefix, got %q", sessionID)

	// The refused exchange should still be persisted as two turns
	w = doJSON(t, srv, http.MethodGet, "/api/chat/"+sessionID, nil)
	assert.Equal(t, http.StatusOK, w.Code, "Session fetch should return 200 OK")

	sessionResp := parseJSON(t, w)
	session, ok := sessionResp["session"].(map[string]interface{})
	require.True(t, ok, "Response should contain the session")
	assert.Equal(t, sessionID, session["id"], "Session id should round-trip")

	turns, ok := session["turns"].([]interface{})
	require.True(t, ok, "Session should contain turns")
	require.Len(t, turns, 2, "Refused exchange should persist both turns")

	first, ok := turns[0].(map[string]interface{})
	require.True(t, ok, "Turn should be an object")
	assert.Equal(t, "user", first["role"], "First turn should be the user message")

	t.Log("✅ SUCCESS: Off-topic question refused and session persisted")
}

// TestChatSecondTurnReusesSession tests that a session id carries history
// across requests.
func TestChatSecondTurnReusesSession(t *testing.T) {
	t.Log("=== Testing Chat Session Reuse ===")

	srv, cleanup := setupTestApp(t)
	defer cleanup()

	w := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]interface{}{
		"message": "Tell me a joke about cats",
	})
	require.Equal(t, http.StatusOK, w.Code, "First turn should return 200 OK")
	sessionID, _ := parseJSON(t, w)["session_id"].(string)
	require.NotEmpty(t, sessionID, "First turn should create a session")

	w = doJSON(t, srv, http.MethodPost, "/api/chat", map[string]interface{}{
		"session_id": sessionID,
		"message":    "And one about dogs?",
	})
	require.Equal(t, http.StatusOK, w.Code, "Second turn should return 200 OK")
	assert.Equal(t, sessionID, parseJSON(t, w)["session_id"], "Session id should be reused")

	w = doJSON(t, srv, http.MethodGet, "/api/chat/"+sessionID, nil)
	session := parseJSON(t, w)["session"].(map[string]interface{})
	turns, ok := session["turns"].([]interface{})
	require.True(t, ok, "Session should contain turns")
	assert.Len(t, turns, 4, "Two exchanges should persist four turns")

	t.Log("✅ SUCCESS: Session history accumulated across turns")
}

// TestChatRequiresMessage tests request validation
func TestChatRequiresMessage(t *testing.T) {
	t.Log("=== Testing Chat Message Validation ===")

	srv, cleanup := setupTestApp(t)
	defer cleanup()

	w := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]interface{}{
		"message": "   ",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code, "Blank message should return 400")

	response := parseJSON(t, w)
	errMsg, _ := response["error"].(string)
	assert.Contains(t, errMsg, "Message field is required", "Error should name the missing field")

	t.Log("✅ SUCCESS: Blank messages rejected")
}

// TestChatWithoutProviderFails tests that on-topic questions report a
// server error when no language model credentials are configured.
func TestChatWithoutProviderFails(t *testing.T) {
	t.Log("=== Testing Chat Without Provider ===")

	srv, cleanup := setupTestApp(t)
	defer cleanup()

	w := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]interface{}{
		"message": "Explain what RSI measures",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code, "Status should be 500 Internal Server Error")

	response := parseJSON(t, w)
	errMsg, _ := response["error"].(string)
	assert.Contains(t, errMsg, "Failed to generate response", "Error should report the completion failure")

	t.Log("✅ SUCCESS: Missing provider surfaces as a server error")
}

// TestGetSessionNotFound tests fetching a session that does not exist
func TestGetSessionNotFound(t *testing.T) {
	t.Log("=== Testing Get Session Not Found ===")

	srv, cleanup := setupTestApp(t)
	defer cleanup()

	w := doJSON(t, srv, http.MethodGet, "/api/chat/chat_does_not_exist", nil)

	assert.Equal(t, http.StatusNotFound, w.Code, "Status should be 404 Not Found")

	response := parseJSON(t, w)
	errMsg, _ := response["error"].(string)
	assert.Contains(t, errMsg, "not found", "Error should report the missing session")

	t.Log("✅ SUCCESS: Missing session reported as 404")
}
