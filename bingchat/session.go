package bingchat

import (
	"context"
	"encoding/json"
	"fmt"
)

// sessionState is the continuation data a later invocation needs to resume
// the conversation. Stored and retrieved as an opaque JSON blob.
type sessionState struct {
	Style        Style        `json:"style"`
	Conversation conversation `json:"conversation"`
	InvocationID int          `json:"invocationId"`
}

// Session is a resumable conversation handle.
type Session struct {
	client *Client
	state  sessionState
}

// MarshalState serializes the continuation data for storage.
func (s *Session) MarshalState() ([]byte, error) {
	return json.Marshal(s.state)
}

// Answer is one structured backend response: the answer text with inline
// [^N^] citation markers, plus the cited sources in marker order.
type Answer struct {
	Text    string
	Sources []string
}

// Ask submits a question on this conversation and blocks until the final
// answer arrives. The invocation counter advances only on success.
func (s *Session) Ask(ctx context.Context, question string) (*Answer, error) {
	conn, err := s.client.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := handshake(conn); err != nil {
		return nil, fmt.Errorf("bingchat handshake: %w", err)
	}
	if err := writeRecord(conn, s.chatRequest(question)); err != nil {
		return nil, fmt.Errorf("bingchat send: %w", err)
	}
	answer, err := readAnswer(conn)
	if err != nil {
		return nil, err
	}
	s.state.InvocationID++
	return answer, nil
}
