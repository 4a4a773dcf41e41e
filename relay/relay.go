package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/baipiao-bot/action-ask-bing/internal/payload"
	"github.com/baipiao-bot/action-ask-bing/internal/sessionstore"
	"github.com/baipiao-bot/action-ask-bing/markup"
	"github.com/baipiao-bot/action-ask-bing/telegram"
)

// Config carries the per-invocation tunables.
type Config struct {
	Mode              markup.Mode
	SessionTTL        time.Duration
	HeartbeatInterval time.Duration
}

// Deps are the collaborators for one invocation. Each is single-owner for
// its duration; the typing sender belongs to the heartbeat task alone.
type Deps struct {
	Logger    *slog.Logger
	Store     SessionStore
	Factory   SessionFactory
	Messenger Messenger
	Typing    TypingSender
}

// Run executes one relay invocation end to end: resolve the session, ask the
// backend while the heartbeat covers the wait, format and deliver the
// answer, and persist the session keyed by the delivered message id. Any
// error is fatal to the invocation; nothing is delivered or persisted after
// a failure.
func Run(ctx context.Context, req *payload.Request, cfg Config, d Deps) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = markup.ModeStrict
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = sessionstore.DefaultTTL
	}

	sess, err := resolveSession(ctx, logger, req, d.Store, d.Factory)
	if err != nil {
		return err
	}

	// Started before the backend call so the indicator covers its full
	// latency; stopped before delivery.
	hb := StartHeartbeat(logger, d.Typing, req.ChatID, cfg.HeartbeatInterval)

	answer, err := sess.Ask(ctx, req.Question)
	if err != nil {
		hb.Stop()
		return fmt.Errorf("ask backend: %w", err)
	}

	msg := telegram.Message{
		ChatID:                req.ChatID,
		ReplyToMessageID:      req.MessageID,
		Text:                  markup.Render(cfg.Mode, answer.Text, answer.Sources),
		ParseMode:             cfg.Mode.ParseModeValue(),
		DisableWebPagePreview: true,
	}

	hb.Stop()

	messageID, err := d.Messenger.SendMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("deliver answer: %w", err)
	}
	logger.Info("answer_delivered", "chat_id", req.ChatID, "message_id", messageID)

	state, err := sess.MarshalState()
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	key := StoreKey(req.ChatID, messageID)
	if err := d.Store.Persist(ctx, key, state, cfg.SessionTTL); err != nil {
		return err
	}
	logger.Info("session_persisted", "key", key, "ttl", cfg.SessionTTL.String())
	return nil
}
