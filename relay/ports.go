// Package relay orchestrates one invocation: decrypted request in, answer
// delivered to the front-end, session persisted for the next reply in the
// thread.
package relay

import (
	"context"
	"time"

	"github.com/baipiao-bot/action-ask-bing/bingchat"
	"github.com/baipiao-bot/action-ask-bing/telegram"
)

// SessionStore is the key-value continuity store.
type SessionStore interface {
	Lookup(ctx context.Context, key string) ([]byte, error)
	Persist(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ChatSession is an established backend conversation.
type ChatSession interface {
	Ask(ctx context.Context, question string) (*bingchat.Answer, error)
	MarshalState() ([]byte, error)
}

// SessionFactory creates and rehydrates backend conversations.
type SessionFactory interface {
	New(ctx context.Context, style bingchat.Style) (ChatSession, error)
	Restore(raw []byte) (ChatSession, error)
}

// Messenger delivers the final message to the front-end.
type Messenger interface {
	SendMessage(ctx context.Context, msg telegram.Message) (int64, error)
}

// TypingSender emits the fire-and-forget liveness signal. The heartbeat owns
// its own sender so the delivery client is never shared across tasks.
type TypingSender interface {
	SendChatAction(ctx context.Context, chatID int64, action string) error
}
