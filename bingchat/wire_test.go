package bingchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRecords(t *testing.T) {
	t.Parallel()

	got := splitRecords([]byte("{\"a\":1}\x1e{\"b\":2}\x1e\x1e"))
	require.Len(t, got, 2)
	assert.Equal(t, `{"a":1}`, string(got[0]))
	assert.Equal(t, `{"b":2}`, string(got[1]))

	assert.Empty(t, splitRecords([]byte("\x1e")))
}

func TestAnswerFromItem(t *testing.T) {
	t.Parallel()

	raw := `{
		"result": {"value": "Success"},
		"messages": [
			{"author": "user", "text": "hi"},
			{"author": "bot", "text": "internal", "messageType": "InternalSearchQuery"},
			{"author": "bot", "text": "hello [^1^]", "sourceAttributions": [
				{"seeMoreUrl": "https://example.com/a"},
				{"seeMoreUrl": "https://example.com/b"}
			]}
		]
	}`
	var item responseItem
	require.NoError(t, json.Unmarshal([]byte(raw), &item))

	ans, err := answerFromItem(&item)
	require.NoError(t, err)
	assert.Equal(t, "hello [^1^]", ans.Text)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, ans.Sources)
}

func TestAnswerFromItemFailureResult(t *testing.T) {
	t.Parallel()

	item := &responseItem{}
	item.Result.Value = "Throttled"
	item.Result.Message = "rate limited"
	_, err := answerFromItem(item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Throttled")
}

func TestAnswerFromItemNoBotMessage(t *testing.T) {
	t.Parallel()

	item := &responseItem{Messages: []responseMessage{{Author: "user", Text: "hi"}}}
	_, err := answerFromItem(item)
	require.Error(t, err)
}

func TestSessionAsk(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Protocol handshake, acknowledged with an empty record.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte("{}\x1e")); err != nil {
			return
		}

		// Chat invocation.
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		recs := splitRecords(raw)
		if len(recs) != 1 {
			return
		}
		var req map[string]any
		if err := json.Unmarshal(recs[0], &req); err != nil || req["target"] != "chat" {
			return
		}

		ping := `{"type":6}` + "\x1e"
		final := `{"type":2,"item":{"result":{"value":"Success"},"messages":[` +
			`{"author":"user","text":"hi"},` +
			`{"author":"bot","text":"hello [^1^]","sourceAttributions":[{"seeMoreUrl":"https://example.com"}]}` +
			`]}}` + "\x1e"
		_ = conn.WriteMessage(websocket.TextMessage, []byte(ping))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(final))
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewClient(ClientConfig{ChatHubURL: wsURL})
	sess := &Session{client: c, state: sessionState{
		Style: StyleCreative,
		Conversation: conversation{
			ConversationID:        "conv-1",
			ClientID:              "client-1",
			ConversationSignature: "sig-1",
		},
	}}

	ans, err := sess.Ask(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello [^1^]", ans.Text)
	assert.Equal(t, []string{"https://example.com"}, ans.Sources)
	assert.Equal(t, 1, sess.state.InvocationID)
}

func TestChatRequestShape(t *testing.T) {
	t.Parallel()

	sess := &Session{state: sessionState{
		Style: StyleCreative,
		Conversation: conversation{
			ConversationID:        "conv-1",
			ClientID:              "client-1",
			ConversationSignature: "sig-1",
		},
	}}

	req := sess.chatRequest("hi")
	assert.Equal(t, "chat", req["target"])
	assert.Equal(t, hubTypeInvocation, req["type"])
	assert.Equal(t, "0", req["invocationId"])

	args := req["arguments"].([]map[string]any)
	require.Len(t, args, 1)
	assert.Equal(t, true, args[0]["isStartOfSession"])
	assert.Equal(t, "conv-1", args[0]["conversationId"])
	assert.Equal(t, "sig-1", args[0]["conversationSignature"])
	assert.NotEmpty(t, args[0]["traceId"])

	sess.state.InvocationID = 2
	req = sess.chatRequest("again")
	assert.Equal(t, "2", req["invocationId"])
	args = req["arguments"].([]map[string]any)
	assert.Equal(t, false, args[0]["isStartOfSession"])
}
