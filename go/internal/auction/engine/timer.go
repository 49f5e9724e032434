package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/models"
)

// The countdown is a one-shot timer armed for the absolute deadline, plus a
// heartbeat ticker that re-publishes the remaining time every few seconds so
// clients can correct for clock drift. The deadline and configured duration
// are persisted on the aggregate, which is what makes the countdown
// resumable after a process restart.

// startCountdown arms a fresh full-duration countdown for the auction and
// records the deadline on the aggregate. The caller persists the aggregate.
// Starting a countdown resets skip consensus and publishes the initial tick.
func (e *Engine) startCountdown(auction *models.Auction) time.Time {
	duration := time.Duration(auction.Settings.TimerDurationSec) * time.Second
	if duration <= 0 {
		duration = time.Duration(e.cfg.DefaultTimerDurationSec) * time.Second
	}

	deadline := e.clock.Now().Add(duration)
	auction.TimerDeadline = &deadline
	auction.TimerDurationSec = int(duration / time.Second)
	auction.SkippedGroups = nil

	e.attachCountdown(auction, deadline)
	return deadline
}

// attachCountdown arms the expiry timer and heartbeat loop against an
// existing absolute deadline. Used directly by restart recovery and resume,
// which must never reset the clock.
func (e *Engine) attachCountdown(auction *models.Auction, deadline time.Time) {
	rt := e.runtimes.acquire(auction.ID)
	rt.cancelCountdown()

	total := time.Duration(auction.TimerDurationSec) * time.Second
	remaining := deadline.Sub(e.clock.Now())
	if remaining < 0 {
		remaining = 0
	}

	countdownCtx, cancel := context.WithCancel(e.timerContext())
	timer := e.clock.NewTimer(remaining)
	rt.countdown = &countdown{
		timer:    timer,
		cancel:   cancel,
		deadline: deadline,
		total:    total,
	}

	auctionID := auction.ID
	roomID := auction.RoomID

	go func() {
		select {
		case <-timer.Chan():
			e.resolveExpiry(auctionID)
		case <-countdownCtx.Done():
			stopAndDrainTimer(timer)
		}
	}()

	go e.heartbeatLoop(countdownCtx, auctionID, roomID, deadline, total)

	e.publishTick(roomID, deadline, total)

	log.Debug().
		Str("auction_id", auctionID.String()).
		Time("deadline", deadline).
		Dur("remaining", remaining).
		Msg("countdown armed")
}

// heartbeatLoop re-publishes the tick on a fixed cadence without mutating
// server state. When the deadline has already passed it re-attempts expiry
// resolution, so a failed resolution cycle is retried instead of sticking
// the auction.
func (e *Engine) heartbeatLoop(ctx context.Context, auctionID uuid.UUID, roomID string, deadline time.Time, total time.Duration) {
	ticker := e.clock.NewTicker(e.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !e.clock.Now().Before(deadline) {
				e.resolveExpiry(auctionID)
				continue
			}
			e.publishTick(roomID, deadline, total)
		}
	}
}

func (e *Engine) publishTick(roomID string, deadline time.Time, total time.Duration) {
	secondsLeft := int(deadline.Sub(e.clock.Now()).Round(time.Second) / time.Second)
	if secondsLeft < 0 {
		secondsLeft = 0
	}
	e.broadcast.Publish(roomID, events.TypeTick, events.TickPayload{
		SecondsLeft:  secondsLeft,
		TotalSeconds: int(total / time.Second),
		Deadline:     deadline,
	})
}

// requestTimerReset asks for a fresh full-duration countdown, debounced: a
// second request inside the window supersedes the pending one, collapsing
// rapid successive bids into a single restart.
func (e *Engine) requestTimerReset(auctionID uuid.UUID) {
	rt := e.runtimes.get(auctionID)
	if rt == nil {
		return
	}

	rt.resetMu.Lock()
	defer rt.resetMu.Unlock()

	if rt.pendingReset != nil {
		stopAndDrainTimer(rt.pendingReset.timer)
		close(rt.pendingReset.cancel)
	}

	pending := &pendingReset{
		timer:  e.clock.NewTimer(e.cfg.ResetDebounce),
		cancel: make(chan struct{}),
	}
	rt.pendingReset = pending

	timerCtx := e.timerContext()
	go func() {
		select {
		case <-pending.timer.Chan():
			rt.resetMu.Lock()
			if rt.pendingReset == pending {
				rt.pendingReset = nil
			}
			rt.resetMu.Unlock()
			e.applyTimerReset(auctionID)
		case <-pending.cancel:
		case <-timerCtx.Done():
			stopAndDrainTimer(pending.timer)
		}
	}()
}

// applyTimerReset restarts the countdown from the current wall clock and
// persists the new deadline. Aborts silently if the auction left the Active
// state while the reset was pending.
func (e *Engine) applyTimerReset(auctionID uuid.UUID) {
	rt := e.runtimes.get(auctionID)
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ctx := e.timerContext()
	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		log.Error().Err(err).Str("auction_id", auctionID.String()).Msg("timer reset: failed to load auction")
		return
	}
	if auction.Status != models.AuctionStatusActive {
		return
	}

	e.startCountdown(auction)
	if _, err := e.store.SaveAuction(ctx, auction); err != nil {
		log.Error().Err(err).Str("auction_id", auctionID.String()).Msg("timer reset: failed to persist deadline")
	}
}

// resolveExpiry is invoked when a countdown reaches its deadline. It
// re-reads the aggregate and aborts silently if the auction is no longer
// Active or the deadline moved, which covers the race where the auction was
// paused, closed or reset between the timer firing and this read.
func (e *Engine) resolveExpiry(auctionID uuid.UUID) {
	rt := e.runtimes.get(auctionID)
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ctx := e.timerContext()
	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		log.Error().Err(err).Str("auction_id", auctionID.String()).Msg("expiry: failed to load auction; will retry on next heartbeat")
		return
	}
	if auction.Status != models.AuctionStatusActive {
		return
	}
	if auction.TimerDeadline == nil || e.clock.Now().Before(*auction.TimerDeadline) {
		// Stale fire: the countdown was reset after this timer was armed.
		return
	}

	if err := e.resolveCurrent(ctx, auction, rt); err != nil {
		log.Error().Err(err).Str("auction_id", auctionID.String()).Msg("expiry: resolution failed; will retry on next heartbeat")
	}
}

// RestoreActive re-attaches countdowns for every Active auction with a
// persisted deadline still in the future, reusing the existing deadline so
// a crash mid-countdown does not grant extra time. The rotation queue is
// rebuilt from the catalog.
func (e *Engine) RestoreActive(ctx context.Context) error {
	auctions, err := e.store.FindActiveWithFutureDeadline(ctx, e.clock.Now())
	if err != nil {
		return internal("failed to scan for recoverable auctions", err)
	}

	for _, auction := range auctions {
		rt := e.runtimes.acquire(auction.ID)
		rt.mu.Lock()

		rotation, err := e.catalog.ListUnsettledIDs(ctx, auction.SettledItemIDs())
		if err != nil {
			rt.mu.Unlock()
			log.Error().Err(err).Str("auction_id", auction.ID.String()).Msg("restore: failed to rebuild rotation queue")
			continue
		}
		rt.rotation = rotation

		e.attachCountdown(auction, *auction.TimerDeadline)
		rt.mu.Unlock()

		log.Info().
			Str("auction_id", auction.ID.String()).
			Time("deadline", *auction.TimerDeadline).
			Msg("restored countdown after restart")
	}

	if len(auctions) > 0 {
		log.Info().Int("count", len(auctions)).Msg("restored active auctions")
	}
	return nil
}
