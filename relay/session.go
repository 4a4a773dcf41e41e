package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/baipiao-bot/action-ask-bing/bingchat"
	"github.com/baipiao-bot/action-ask-bing/internal/payload"
	"github.com/baipiao-bot/action-ask-bing/internal/sessionstore"
)

// StoreKey derives the continuity key for a (chat, message) pair. The lookup
// key uses the replied-to message id; the persist key uses the delivered
// message id. Keeping them distinct is what lets sibling replies resolve
// their own turns.
func StoreKey(chatID, messageID int64) string {
	return fmt.Sprintf("%d-%d", chatID, messageID)
}

// resolveSession rehydrates the conversation the request replies to, or
// establishes a new one. An unusable stored blob is fatal; a missing or
// unreadable store entry falls back to session creation.
func resolveSession(ctx context.Context, logger *slog.Logger, req *payload.Request, store SessionStore, factory SessionFactory) (ChatSession, error) {
	style, err := bingchat.ParseStyle(req.Style)
	if err != nil {
		return nil, err
	}

	if req.ReplyToMessageID == nil {
		logger.Info("session_create", "chat_id", req.ChatID, "style", string(style))
		return factory.New(ctx, style)
	}

	key := StoreKey(req.ChatID, *req.ReplyToMessageID)
	raw, err := store.Lookup(ctx, key)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			logger.Info("session_miss", "key", key)
		} else {
			// The thread loses continuity but the invocation proceeds.
			logger.Warn("session_lookup_error", "key", key, "error", err.Error())
		}
		logger.Info("session_create", "chat_id", req.ChatID, "style", string(style))
		return factory.New(ctx, style)
	}

	sess, err := factory.Restore(raw)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", key, err)
	}
	logger.Info("session_restored", "key", key)
	return sess, nil
}
