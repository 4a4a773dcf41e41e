package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultHeartbeatInterval is how often the typing signal fires while the
// backend call is outstanding.
const DefaultHeartbeatInterval = 5 * time.Second

// Heartbeat periodically emits a typing signal so the user sees the bot as
// active for the full latency of the backend call. The first signal fires one
// full interval after start.
type Heartbeat struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartHeartbeat spawns the signal loop for chatID.
func StartHeartbeat(logger *slog.Logger, sender TypingSender, chatID int64, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	h := &Heartbeat{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go h.loop(logger, sender, chatID, interval)
	return h
}

func (h *Heartbeat) loop(logger *slog.Logger, sender TypingSender, chatID int64, interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			if err := sender.SendChatAction(context.Background(), chatID, "typing"); err != nil {
				// A failed ping is informational only; keep ticking.
				logger.Warn("typing_signal_error", "chat_id", chatID, "error", err.Error())
			}
		}
	}
}

// Stop ends the loop and waits for it to exit, so no signal fires after Stop
// returns. Safe to call more than once.
func (h *Heartbeat) Stop() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
