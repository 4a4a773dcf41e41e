package bingchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// The chat hub frames JSON documents with a 0x1e 'record separator' byte; one
// websocket message may carry several records.
const recordSeparator = 0x1e

const (
	hubTypeFinal      = 2
	hubTypeInvocation = 4
)

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.chatHubURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("bingchat dial chat hub (http %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("bingchat dial chat hub: %w", err)
	}
	return conn, nil
}

// handshake negotiates the hub protocol; the hub acknowledges with one
// record before accepting invocations.
func handshake(conn *websocket.Conn) error {
	if err := writeRecord(conn, map[string]any{"protocol": "json", "version": 1}); err != nil {
		return err
	}
	_, _, err := conn.ReadMessage()
	return err
}

func writeRecord(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, append(b, recordSeparator))
}

func splitRecords(raw []byte) [][]byte {
	var out [][]byte
	for _, part := range bytes.Split(raw, []byte{recordSeparator}) {
		part = bytes.TrimSpace(part)
		if len(part) > 0 {
			out = append(out, part)
		}
	}
	return out
}

func (s *Session) chatRequest(question string) map[string]any {
	return map[string]any{
		"arguments": []map[string]any{{
			"source":           "cib",
			"optionsSets":      s.state.Style.optionsSets(),
			"isStartOfSession": s.state.InvocationID == 0,
			"message": map[string]any{
				"author":      "user",
				"text":        question,
				"messageType": "Chat",
			},
			"conversationSignature": s.state.Conversation.ConversationSignature,
			"participant":           map[string]any{"id": s.state.Conversation.ClientID},
			"conversationId":        s.state.Conversation.ConversationID,
			"traceId":               strings.ReplaceAll(uuid.NewString(), "-", ""),
		}},
		"invocationId": strconv.Itoa(s.state.InvocationID),
		"target":       "chat",
		"type":         hubTypeInvocation,
	}
}

type hubMessage struct {
	Type int           `json:"type"`
	Item *responseItem `json:"item,omitempty"`
}

type responseItem struct {
	Messages []responseMessage `json:"messages"`
	Result   struct {
		Value   string `json:"value"`
		Message string `json:"message"`
	} `json:"result"`
}

type responseMessage struct {
	Author             string              `json:"author"`
	Text               string              `json:"text"`
	MessageType        string              `json:"messageType,omitempty"`
	SourceAttributions []sourceAttribution `json:"sourceAttributions,omitempty"`
}

type sourceAttribution struct {
	SeeMoreURL string `json:"seeMoreUrl"`
}

// readAnswer consumes hub records until the terminal (type 2) message and
// extracts the bot's answer from it.
func readAnswer(conn *websocket.Conn) (*Answer, error) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("bingchat read: %w", err)
		}
		for _, rec := range splitRecords(raw) {
			var msg hubMessage
			if err := json.Unmarshal(rec, &msg); err != nil {
				continue
			}
			if msg.Type != hubTypeFinal || msg.Item == nil {
				continue
			}
			return answerFromItem(msg.Item)
		}
	}
}

func answerFromItem(item *responseItem) (*Answer, error) {
	if v := item.Result.Value; v != "" && !strings.EqualFold(v, "Success") {
		return nil, fmt.Errorf("bingchat: %s: %s", v, item.Result.Message)
	}
	for i := len(item.Messages) - 1; i >= 0; i-- {
		m := item.Messages[i]
		if m.Author != "bot" || m.Text == "" {
			continue
		}
		if m.MessageType != "" && m.MessageType != "Chat" {
			continue
		}
		sources := make([]string, 0, len(m.SourceAttributions))
		for _, sa := range m.SourceAttributions {
			sources = append(sources, sa.SeeMoreURL)
		}
		return &Answer{Text: m.Text, Sources: sources}, nil
	}
	return nil, fmt.Errorf("bingchat: no bot message in response")
}
