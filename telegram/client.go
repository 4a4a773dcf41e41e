// Package telegram is a minimal Bot API client covering the two calls the
// relay makes: sendMessage and sendChatAction.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewClient(httpClient *http.Client, baseURL, token string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{http: httpClient, baseURL: baseURL, token: token}
}

// Message is the sendMessage payload. Constructed once, never mutated.
type Message struct {
	ChatID                int64  `json:"chat_id"`
	ReplyToMessageID      int64  `json:"reply_to_message_id,omitempty"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

type sendMessageResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// SendMessage delivers msg and returns the id Telegram assigned to the
// delivered message.
func (c *Client) SendMessage(ctx context.Context, msg Message) (int64, error) {
	raw, err := c.post(ctx, "sendMessage", msg)
	if err != nil {
		return 0, err
	}
	var out sendMessageResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("telegram sendMessage: %w", err)
	}
	if !out.OK {
		return 0, fmt.Errorf("telegram sendMessage: ok=false")
	}
	return out.Result.MessageID, nil
}

// SendChatAction emits a chat action ("typing") for chatID.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "typing"
	}
	raw, err := c.post(ctx, "sendChatAction", sendChatActionRequest{ChatID: chatID, Action: action})
	if err != nil {
		return err
	}
	var out okResponse
	_ = json.Unmarshal(raw, &out)
	if !out.OK {
		return fmt.Errorf("telegram sendChatAction: ok=false")
	}
	return nil
}

func (c *Client) post(ctx context.Context, method string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("telegram %s: %w", method, err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("telegram http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
