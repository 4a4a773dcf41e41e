package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/baipiao-bot/action-ask-bing/bingchat"
	"github.com/baipiao-bot/action-ask-bing/internal/payload"
	"github.com/baipiao-bot/action-ask-bing/internal/sessionstore"
	"github.com/baipiao-bot/action-ask-bing/markup"
	"github.com/baipiao-bot/action-ask-bing/relay"
	"github.com/baipiao-bot/action-ask-bing/telegram"
)

// appConfig is assembled once at startup; components never read the
// environment directly.
type appConfig struct {
	SecretHex         string
	RedisURL          string
	TelegramToken     string
	TelegramBaseURL   string
	Cookies           []bingchat.Cookie
	RequestFile       string
	MarkupMode        markup.Mode
	SessionTTL        time.Duration
	HeartbeatInterval time.Duration
}

func newRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Decrypt one request, ask the backend, deliver the answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCommand(cmd)
			if err != nil {
				return err
			}

			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			encrypted, err := os.ReadFile(cfg.RequestFile)
			if err != nil {
				return fmt.Errorf("read request file: %w", err)
			}
			req, err := payload.DecryptRequest(string(encrypted), cfg.SecretHex)
			if err != nil {
				return err
			}

			store, err := sessionstore.Open(cfg.RedisURL)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine := bingchat.NewClient(bingchat.ClientConfig{})
			messenger := telegram.NewClient(nil, cfg.TelegramBaseURL, cfg.TelegramToken)
			// The heartbeat task gets its own client handle.
			typing := telegram.NewClient(nil, cfg.TelegramBaseURL, cfg.TelegramToken)

			logger.Info("relay_start",
				"chat_id", req.ChatID,
				"message_id", req.MessageID,
				"is_reply", req.ReplyToMessageID != nil,
				"markup_mode", string(cfg.MarkupMode),
			)

			return relay.Run(cmd.Context(), req, relay.Config{
				Mode:              cfg.MarkupMode,
				SessionTTL:        cfg.SessionTTL,
				HeartbeatInterval: cfg.HeartbeatInterval,
			}, relay.Deps{
				Logger:    logger,
				Store:     store,
				Factory:   sessionFactory{client: engine, cookies: cfg.Cookies},
				Messenger: messenger,
				Typing:    typing,
			})
		},
	}

	cmd.Flags().String("secret", "", "Hex-encoded secret: 32-byte cipher key followed by 16-byte IV.")
	cmd.Flags().String("redis-url", "", "Session store URL (redis://...).")
	cmd.Flags().String("telegram-token", "", "Telegram bot token.")
	cmd.Flags().String("telegram-base-url", "https://api.telegram.org", "Telegram API base URL.")
	cmd.Flags().String("cookie", "", "JSON cookie bundle for backend session creation.")
	cmd.Flags().String("request-file", "./request.json.encrypted", "Path to the encrypted request payload.")
	cmd.Flags().String("markup-mode", "strict", "Answer markup dialect: strict|legacy.")
	cmd.Flags().Duration("session-ttl", time.Hour, "How long persisted sessions stay resumable.")
	cmd.Flags().Duration("heartbeat-interval", relay.DefaultHeartbeatInterval, "Typing signal interval while the backend call is outstanding.")

	return cmd
}

func configFromCommand(cmd *cobra.Command) (*appConfig, error) {
	cfg := &appConfig{
		SecretHex:         strings.TrimSpace(flagOrViperString(cmd, "secret", "secret")),
		RedisURL:          strings.TrimSpace(flagOrViperString(cmd, "redis-url", "redis_url")),
		TelegramToken:     strings.TrimSpace(flagOrViperString(cmd, "telegram-token", "telegram.token")),
		TelegramBaseURL:   strings.TrimSpace(flagOrViperString(cmd, "telegram-base-url", "telegram.base_url")),
		RequestFile:       strings.TrimSpace(flagOrViperString(cmd, "request-file", "request_file")),
		SessionTTL:        flagOrViperDuration(cmd, "session-ttl", "session_ttl"),
		HeartbeatInterval: flagOrViperDuration(cmd, "heartbeat-interval", "heartbeat_interval"),
	}

	if cfg.SecretHex == "" {
		return nil, fmt.Errorf("missing secret (set via --secret or %s_SECRET)", envPrefix)
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("missing redis_url (set via --redis-url or %s_REDIS_URL)", envPrefix)
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("missing telegram.token (set via --telegram-token or %s_TELEGRAM_TOKEN)", envPrefix)
	}
	if cfg.RequestFile == "" {
		cfg.RequestFile = "./request.json.encrypted"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = relay.DefaultHeartbeatInterval
	}

	mode, err := markup.ParseMode(flagOrViperString(cmd, "markup-mode", "markup.mode"))
	if err != nil {
		return nil, err
	}
	cfg.MarkupMode = mode

	if raw := strings.TrimSpace(flagOrViperString(cmd, "cookie", "cookie")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.Cookies); err != nil {
			return nil, fmt.Errorf("parse cookie bundle: %w", err)
		}
	}

	return cfg, nil
}

// sessionFactory adapts the backend client to the relay's ports.
type sessionFactory struct {
	client  *bingchat.Client
	cookies []bingchat.Cookie
}

func (f sessionFactory) New(ctx context.Context, style bingchat.Style) (relay.ChatSession, error) {
	return f.client.CreateSession(ctx, style, f.cookies)
}

func (f sessionFactory) Restore(raw []byte) (relay.ChatSession, error) {
	return f.client.RestoreSession(raw)
}
