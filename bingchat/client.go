// Package bingchat implements the conversational backend: conversation
// bootstrap over HTTP and question submission over the 0x1e-framed chat-hub
// websocket. Session state is a small serializable blob so a conversation can
// be resumed by a later invocation.
package bingchat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultCreateURL  = "https://www.bing.com/turing/conversation/create"
	defaultChatHubURL = "wss://sydney.bing.com/sydney/ChatHub"
)

// Cookie is one entry of the credential bundle used to bootstrap a
// conversation.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Client struct {
	http       *http.Client
	createURL  string
	chatHubURL string
	dialer     *websocket.Dialer
}

type ClientConfig struct {
	HTTPClient *http.Client
	CreateURL  string
	ChatHubURL string
}

func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	createURL := strings.TrimSpace(cfg.CreateURL)
	if createURL == "" {
		createURL = defaultCreateURL
	}
	chatHubURL := strings.TrimSpace(cfg.ChatHubURL)
	if chatHubURL == "" {
		chatHubURL = defaultChatHubURL
	}
	return &Client{
		http:       httpClient,
		createURL:  createURL,
		chatHubURL: chatHubURL,
		dialer:     websocket.DefaultDialer,
	}
}

type conversation struct {
	ConversationID        string `json:"conversationId"`
	ClientID              string `json:"clientId"`
	ConversationSignature string `json:"conversationSignature"`
}

type createResponse struct {
	conversation
	Result struct {
		Value   string `json:"value"`
		Message string `json:"message"`
	} `json:"result"`
}

// CreateSession opens a new conversation with the given style, authenticated
// by the cookie bundle.
func (c *Client) CreateSession(ctx context.Context, style Style, cookies []Cookie) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.createURL, nil)
	if err != nil {
		return nil, err
	}
	if len(cookies) > 0 {
		req.Header.Set("Cookie", cookieHeader(cookies))
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bingchat create: %w", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bingchat create http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out createResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("bingchat create: %w", err)
	}
	if v := out.Result.Value; v != "" && !strings.EqualFold(v, "Success") {
		return nil, fmt.Errorf("bingchat create: %s: %s", v, out.Result.Message)
	}
	if out.ConversationID == "" {
		return nil, fmt.Errorf("bingchat create: missing conversation id")
	}

	return &Session{
		client: c,
		state:  sessionState{Style: style, Conversation: out.conversation},
	}, nil
}

// RestoreSession rebuilds a session from state previously produced by
// MarshalState.
func (c *Client) RestoreSession(raw []byte) (*Session, error) {
	var st sessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("bingchat restore session: %w", err)
	}
	if st.Conversation.ConversationID == "" {
		return nil, fmt.Errorf("bingchat restore session: missing conversation id")
	}
	return &Session{client: c, state: st}, nil
}

func cookieHeader(cookies []Cookie) string {
	var b strings.Builder
	for i, ck := range cookies {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ck.Name)
		b.WriteByte('=')
		b.WriteString(ck.Value)
	}
	return b.String()
}
