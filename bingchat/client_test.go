package bingchat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{in: "", want: StyleCreative},
		{in: "creative", want: StyleCreative},
		{in: "balanced", want: StyleBalanced},
		{in: "precise", want: StylePrecise},
		{in: "chaotic", wantErr: true},
		{in: "Creative", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseStyle(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseStyle(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseStyle(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestCreateSession(t *testing.T) {
	t.Parallel()

	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		_, _ = w.Write([]byte(`{
			"conversationId": "conv-1",
			"clientId": "client-1",
			"conversationSignature": "sig-1",
			"result": {"value": "Success", "message": null}
		}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{HTTPClient: srv.Client(), CreateURL: srv.URL})
	sess, err := c.CreateSession(context.Background(), StylePrecise, []Cookie{
		{Name: "_U", Value: "abc"},
		{Name: "MUID", Value: "def"},
	})
	require.NoError(t, err)
	assert.Equal(t, "_U=abc; MUID=def", gotCookie)
	assert.Equal(t, StylePrecise, sess.state.Style)
	assert.Equal(t, "conv-1", sess.state.Conversation.ConversationID)
	assert.Equal(t, 0, sess.state.InvocationID)
}

func TestCreateSessionFailureValue(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"value":"UnauthorizedRequest","message":"no cookie"}}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{HTTPClient: srv.Client(), CreateURL: srv.URL})
	_, err := c.CreateSession(context.Background(), StyleCreative, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UnauthorizedRequest")
}

func TestSessionStateRoundTrip(t *testing.T) {
	t.Parallel()

	c := NewClient(ClientConfig{})
	sess := &Session{client: c, state: sessionState{
		Style: StyleBalanced,
		Conversation: conversation{
			ConversationID:        "conv-9",
			ClientID:              "client-9",
			ConversationSignature: "sig-9",
		},
		InvocationID: 3,
	}}

	raw, err := sess.MarshalState()
	require.NoError(t, err)

	restored, err := c.RestoreSession(raw)
	require.NoError(t, err)
	assert.Equal(t, sess.state, restored.state)
}

func TestRestoreSessionRejectsGarbage(t *testing.T) {
	t.Parallel()

	c := NewClient(ClientConfig{})
	_, err := c.RestoreSession([]byte("not json"))
	require.Error(t, err)

	_, err = c.RestoreSession([]byte(`{"style":"creative"}`))
	require.Error(t, err, "state without a conversation id must not restore")
}
