package relay

import (
	"errors"
	"testing"
	"time"
)

func waitForSends(t *testing.T, ft *fakeTyping, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if ft.sends() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("heartbeat sent %d signals, want at least %d", ft.sends(), want)
}

func TestHeartbeatFiresPeriodically(t *testing.T) {
	t.Parallel()

	ft := &fakeTyping{}
	hb := StartHeartbeat(discardLogger(), ft, 1, 5*time.Millisecond)
	waitForSends(t, ft, 2)
	hb.Stop()
}

func TestHeartbeatCessation(t *testing.T) {
	t.Parallel()

	ft := &fakeTyping{}
	hb := StartHeartbeat(discardLogger(), ft, 1, 5*time.Millisecond)
	waitForSends(t, ft, 1)
	hb.Stop()

	sent := ft.sends()
	time.Sleep(50 * time.Millisecond)
	if got := ft.sends(); got != sent {
		t.Fatalf("heartbeat fired after stop: %d -> %d", sent, got)
	}
}

func TestHeartbeatFirstSignalWaitsOneInterval(t *testing.T) {
	t.Parallel()

	ft := &fakeTyping{}
	hb := StartHeartbeat(discardLogger(), ft, 1, time.Hour)
	time.Sleep(20 * time.Millisecond)
	if got := ft.sends(); got != 0 {
		t.Fatalf("heartbeat fired %d times before the first interval elapsed", got)
	}
	hb.Stop()
}

func TestHeartbeatStopIsIdempotent(t *testing.T) {
	t.Parallel()

	hb := StartHeartbeat(discardLogger(), &fakeTyping{}, 1, time.Hour)
	hb.Stop()
	hb.Stop()
}

func TestHeartbeatSurvivesSendFailures(t *testing.T) {
	t.Parallel()

	ft := &fakeTyping{err: errors.New("network error")}
	hb := StartHeartbeat(discardLogger(), ft, 1, 5*time.Millisecond)
	waitForSends(t, ft, 3)
	hb.Stop()
}
