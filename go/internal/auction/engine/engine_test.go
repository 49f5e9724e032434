package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/models"
)

func TestCreateAppliesDefaults(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	b := env.groups.add("bravo", 10000)

	auction := env.createAuction(t, a, b)

	check.Equal(t, models.AuctionStatusDraft, auction.Status)
	check.Equal(t, int64(1000), auction.Settings.MinBidFloor)
	check.Equal(t, 30, auction.Settings.TimerDurationSec)
	check.Equal(t, 2, len(auction.Participants))
	check.Nil(t, auction.CurrentItemID)
	check.Nil(t, auction.TimerDeadline)
}

func TestCreateRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.groups.add("alpha", 10000)

	_, err := env.engine.Create(ctx, CreateAuctionRequest{RoomID: "", Participants: []uuid.UUID{a.ID}})
	check.Equal(t, KindInvalidInput, KindOf(err))

	_, err = env.engine.Create(ctx, CreateAuctionRequest{RoomID: "room-1"})
	check.Equal(t, KindInvalidInput, KindOf(err))

	_, err = env.engine.Create(ctx, CreateAuctionRequest{
		RoomID:       "room-1",
		Participants: []uuid.UUID{a.ID, a.ID},
	})
	check.Equal(t, KindInvalidInput, KindOf(err))

	_, err = env.engine.Create(ctx, CreateAuctionRequest{
		RoomID:       "room-1",
		Participants: []uuid.UUID{a.ID, uuid.New()},
	})
	check.Equal(t, KindNotFound, KindOf(err))

	captainless := &models.Group{ID: uuid.New(), Name: "no-captain", Budget: 5000}
	env.groups.groups[captainless.ID] = captainless
	_, err = env.engine.Create(ctx, CreateAuctionRequest{
		RoomID:       "room-1",
		Participants: []uuid.UUID{captainless.ID},
	})
	check.Equal(t, KindInvalidInput, KindOf(err))
}

func TestCreateHonorsSettingOverrides(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)

	auction, err := env.engine.Create(context.Background(), CreateAuctionRequest{
		RoomID:       "room-1",
		Participants: []uuid.UUID{a.ID},
		Settings:     &models.AuctionSettings{MinBidFloor: 500, TimerDurationSec: 10},
	})
	assert.Nil(t, err)
	check.Equal(t, int64(500), auction.Settings.MinBidFloor)
	check.Equal(t, 10, auction.Settings.TimerDurationSec)

	_, err = env.engine.Create(context.Background(), CreateAuctionRequest{
		RoomID:       "room-2",
		Participants: []uuid.UUID{a.ID},
		Settings:     &models.AuctionSettings{MinBidFloor: -1},
	})
	check.Equal(t, KindInvalidInput, KindOf(err))
}

func TestStartPutsFirstItemOnBlock(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	b := env.groups.add("bravo", 10000)
	first := env.catalog.add("Item One", 0)
	env.catalog.add("Item Two", 0)

	started := env.startAuction(t, a, b)

	check.Equal(t, models.AuctionStatusActive, started.Status)
	assert.True(t, started.CurrentItemID != nil)
	check.Equal(t, first.ID, *started.CurrentItemID)
	assert.True(t, started.TimerDeadline != nil)
	check.Equal(t, env.clock.Now().Add(30*time.Second), *started.TimerDeadline)
	check.Equal(t, 1, env.events.countOf(events.TypeAuctionStarted))
	check.Equal(t, 1, env.events.countOf(events.TypeItemChanged))

	_, err := env.engine.Start(context.Background(), started.ID)
	check.Equal(t, KindConflict, KindOf(err))
}

func TestStartWithEmptyCatalogCompletesImmediately(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)

	started := env.startAuction(t, a)

	check.Equal(t, models.AuctionStatusCompleted, started.Status)
	check.Equal(t, 1, env.events.countOf(events.TypeAuctionCompleted))
}

func TestPlaceBidAcceptsStrictRaises(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	b := env.groups.add("bravo", 10000)
	env.catalog.add("Item One", 0)
	ctx := context.Background()

	auction := env.startAuction(t, a, b)

	saved, err := env.engine.PlaceBid(ctx, auction.ID, bidReq(a, 1000))
	assert.Nil(t, err)
	check.Equal(t, a.ID, saved.CurrentBid.GroupID)
	check.Equal(t, int64(1000), saved.CurrentBid.Amount)
	check.Equal(t, 1, len(saved.BidHistory))

	// Matching the current bid is not a raise.
	_, err = env.engine.PlaceBid(ctx, auction.ID, bidReq(b, 1000))
	check.Equal(t, KindInvalidInput, KindOf(err))

	saved, err = env.engine.PlaceBid(ctx, auction.ID, bidReq(b, 1500))
	assert.Nil(t, err)
	check.Equal(t, b.ID, saved.CurrentBid.GroupID)
	check.Equal(t, int64(1500), saved.CurrentBid.Amount)
	check.Equal(t, 2, len(saved.BidHistory))
	check.Equal(t, 2, env.events.countOf(events.TypeBidAccepted))
}

func TestPlaceBidRejections(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	b := env.groups.add("bravo", 2000)
	env.catalog.add("Item One", 0)
	ctx := context.Background()

	auction := env.startAuction(t, a, b)

	// Below the floor.
	_, err := env.engine.PlaceBid(ctx, auction.ID, bidReq(a, 999))
	check.Equal(t, KindInvalidInput, KindOf(err))

	// Beyond the group budget.
	_, err = env.engine.PlaceBid(ctx, auction.ID, bidReq(b, 2500))
	check.Equal(t, KindInvalidInput, KindOf(err))

	// Unknown group.
	_, err = env.engine.PlaceBid(ctx, auction.ID, PlaceBidRequest{GroupID: uuid.New(), Amount: 1000})
	check.Equal(t, KindNotFound, KindOf(err))

	// Stale item reference.
	staleID := uuid.New()
	_, err = env.engine.PlaceBid(ctx, auction.ID, PlaceBidRequest{GroupID: a.ID, Amount: 1000, ItemID: &staleID})
	check.Equal(t, KindInvalidInput, KindOf(err))

	// Identity bound to a different group.
	_, err = env.engine.PlaceBid(ctx, auction.ID, PlaceBidRequest{
		GroupID:    a.ID,
		IdentityID: b.CaptainIdentityID,
		Amount:     1000,
	})
	check.Equal(t, KindForbidden, KindOf(err))

	// Nothing was persisted by any rejection.
	stored := env.mustGet(t, auction.ID)
	check.Nil(t, stored.CurrentBid)
	check.Equal(t, 0, len(stored.BidHistory))

	// Not active.
	_, err = env.engine.Pause(ctx, auction.ID)
	assert.Nil(t, err)
	_, err = env.engine.PlaceBid(ctx, auction.ID, bidReq(a, 1000))
	check.Equal(t, KindConflict, KindOf(err))
}

func TestPlaceBidClearsSkips(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	b := env.groups.add("bravo", 10000)
	c := env.groups.add("charlie", 10000)
	env.catalog.add("Item One", 0)
	ctx := context.Background()

	auction := env.startAuction(t, a, b, c)

	_, err := env.engine.Skip(ctx, auction.ID, a.ID)
	assert.Nil(t, err)
	stored := env.mustGet(t, auction.ID)
	check.Equal(t, 1, len(stored.SkippedGroups))

	// A new bid voids recorded skips: consensus restarts.
	saved, err := env.engine.PlaceBid(ctx, auction.ID, bidReq(b, 1200))
	assert.Nil(t, err)
	check.Equal(t, 0, len(saved.SkippedGroups))

	// The earlier skipper may skip again.
	_, err = env.engine.Skip(ctx, auction.ID, a.ID)
	assert.Nil(t, err)
}

func TestUndoBidIsLeftInverse(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	b := env.groups.add("bravo", 10000)
	env.catalog.add("Item One", 0)
	ctx := context.Background()

	auction := env.startAuction(t, a, b)

	_, err := env.engine.UndoBid(ctx, auction.ID, a.ID)
	check.Equal(t, KindConflict, KindOf(err))

	_, err = env.engine.PlaceBid(ctx, auction.ID, bidReq(a, 1000))
	assert.Nil(t, err)
	_, err = env.engine.PlaceBid(ctx, auction.ID, bidReq(b, 1500))
	assert.Nil(t, err)

	// Only the holder of the current bid may undo.
	_, err = env.engine.UndoBid(ctx, auction.ID, a.ID)
	check.Equal(t, KindForbidden, KindOf(err))

	saved, err := env.engine.UndoBid(ctx, auction.ID, b.ID)
	assert.Nil(t, err)
	assert.True(t, saved.CurrentBid != nil)
	check.Equal(t, a.ID, saved.CurrentBid.GroupID)
	check.Equal(t, int64(1000), saved.CurrentBid.Amount)
	check.Equal(t, 1, len(saved.BidHistory))

	saved, err = env.engine.UndoBid(ctx, auction.ID, a.ID)
	assert.Nil(t, err)
	check.Nil(t, saved.CurrentBid)
	check.Equal(t, 0, len(saved.BidHistory))
	check.Equal(t, 2, env.events.countOf(events.TypeBidUndone))
}

func TestPauseResumePreservesBlock(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	b := env.groups.add("bravo", 10000)
	item := env.catalog.add("Item One", 0)
	ctx := context.Background()

	auction := env.startAuction(t, a, b)
	_, err := env.engine.PlaceBid(ctx, auction.ID, bidReq(a, 1200))
	assert.Nil(t, err)

	deadline := *env.mustGet(t, auction.ID).TimerDeadline

	paused, err := env.engine.Pause(ctx, auction.ID)
	assert.Nil(t, err)
	check.Equal(t, models.AuctionStatusPaused, paused.Status)
	check.Equal(t, item.ID, *paused.CurrentItemID)
	check.Equal(t, int64(1200), paused.CurrentBid.Amount)

	_, err = env.engine.Pause(ctx, auction.ID)
	check.Equal(t, KindConflict, KindOf(err))

	// Resuming before the deadline keeps it; no extra time is granted.
	resumed, err := env.engine.Resume(ctx, auction.ID)
	assert.Nil(t, err)
	check.Equal(t, models.AuctionStatusActive, resumed.Status)
	check.Equal(t, deadline, *resumed.TimerDeadline)
	check.Equal(t, int64(1200), resumed.CurrentBid.Amount)

	_, err = env.engine.Resume(ctx, auction.ID)
	check.Equal(t, KindConflict, KindOf(err))
}

func TestResumeAfterDeadlinePassedStartsFresh(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	env.catalog.add("Item One", 0)
	ctx := context.Background()

	auction := env.startAuction(t, a)
	_, err := env.engine.Pause(ctx, auction.ID)
	assert.Nil(t, err)

	env.clock.Advance(time.Minute)

	resumed, err := env.engine.Resume(ctx, auction.ID)
	assert.Nil(t, err)
	check.Equal(t, env.clock.Now().Add(30*time.Second), *resumed.TimerDeadline)
}

func TestCloseIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	b := env.groups.add("bravo", 10000)
	env.catalog.add("Item One", 0)
	ctx := context.Background()

	auction := env.startAuction(t, a, b)
	_, err := env.engine.PlaceBid(ctx, auction.ID, bidReq(a, 1500))
	assert.Nil(t, err)

	closed, err := env.engine.Close(ctx, auction.ID)
	assert.Nil(t, err)
	check.Equal(t, models.AuctionStatusCompleted, closed.Status)
	check.Nil(t, closed.CurrentItemID)
	check.Nil(t, closed.CurrentBid)
	check.Nil(t, closed.TimerDeadline)
	check.Equal(t, 1, env.events.countOf(events.TypeAuctionClosed))

	// History survives the close; the unsettled bid did not become a sale.
	check.Equal(t, 1, len(closed.BidHistory))
	check.Equal(t, 0, len(closed.Sales))
	check.Equal(t, int64(10000), mustBudget(t, env, a.ID))

	_, err = env.engine.PlaceBid(ctx, auction.ID, bidReq(b, 2000))
	check.Equal(t, KindConflict, KindOf(err))
	_, err = env.engine.Close(ctx, auction.ID)
	check.Equal(t, KindConflict, KindOf(err))
}

func TestSetCurrentItemJumpsTheRotation(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	b := env.groups.add("bravo", 10000)
	env.catalog.add("Item One", 0)
	second := env.catalog.add("Item Two", 0)
	ctx := context.Background()

	auction := env.startAuction(t, a, b)
	_, err := env.engine.PlaceBid(ctx, auction.ID, bidReq(a, 1500))
	assert.Nil(t, err)

	saved, err := env.engine.SetCurrentItem(ctx, auction.ID, second.ID)
	assert.Nil(t, err)
	check.Equal(t, second.ID, *saved.CurrentItemID)
	check.Nil(t, saved.CurrentBid)
	check.Equal(t, 0, len(saved.BidHistory))
	check.Equal(t, env.clock.Now().Add(30*time.Second), *saved.TimerDeadline)

	_, err = env.engine.SetCurrentItem(ctx, auction.ID, uuid.New())
	check.Equal(t, KindNotFound, KindOf(err))
}

func TestSetCurrentItemWhilePausedDropsStaleDeadline(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	env.catalog.add("Item One", 0)
	second := env.catalog.add("Item Two", 0)
	ctx := context.Background()

	auction := env.startAuction(t, a)
	_, err := env.engine.Pause(ctx, auction.ID)
	assert.Nil(t, err)

	env.clock.Advance(20 * time.Second)

	// The preserved deadline belonged to the first item and must not leak
	// onto the new one.
	saved, err := env.engine.SetCurrentItem(ctx, auction.ID, second.ID)
	assert.Nil(t, err)
	check.Nil(t, saved.TimerDeadline)

	last, ok := env.events.lastOf(events.TypeItemChanged)
	assert.True(t, ok)
	check.Nil(t, last.Payload.(events.ItemChangedPayload).Deadline)

	// Resuming arms a fresh full-duration countdown for the new item, not
	// the remainder of the old one.
	resumed, err := env.engine.Resume(ctx, auction.ID)
	assert.Nil(t, err)
	assert.True(t, resumed.TimerDeadline != nil)
	check.Equal(t, env.clock.Now().Add(30*time.Second), *resumed.TimerDeadline)
	check.Equal(t, second.ID, *resumed.CurrentItemID)
}

func TestStartPublishesOnlyAfterPersist(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	env.catalog.add("Item One", 0)
	ctx := context.Background()

	auction := env.createAuction(t, a)

	// A failed save must leave the room unaware of the start.
	env.store.setSaveErr(errors.New("store down"))
	_, err := env.engine.Start(ctx, auction.ID)
	assert.True(t, err != nil)
	check.Equal(t, 0, env.events.countOf(events.TypeAuctionStarted))
	check.Equal(t, models.AuctionStatusDraft, env.mustGet(t, auction.ID).Status)

	env.store.setSaveErr(nil)
	started, err := env.engine.Start(ctx, auction.ID)
	assert.Nil(t, err)
	check.Equal(t, models.AuctionStatusActive, started.Status)
	check.Equal(t, 1, env.events.countOf(events.TypeAuctionStarted))
}

func TestRunAcceptsCommandsAndStopsCleanly(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	env.catalog.add("Item One", 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- env.engine.Run(ctx)
	}()

	// Commands and Run race over the timer context; both must be safe.
	auction := env.startAuction(t, a)

	cancel()
	assert.Nil(t, <-done)

	// Shutdown cancelled the running countdown.
	rt := env.engine.runtimes.get(auction.ID)
	assert.True(t, rt != nil)
	rt.mu.Lock()
	check.Nil(t, rt.countdown)
	rt.mu.Unlock()
}

func TestSetCurrentItemRejectsSettled(t *testing.T) {
	env := newTestEnv(t)
	a := env.groups.add("alpha", 10000)
	first := env.catalog.add("Item One", 0)
	env.catalog.add("Item Two", 0)
	ctx := context.Background()

	auction := env.startAuction(t, a)
	_, err := env.engine.PlaceBid(ctx, auction.ID, bidReq(a, 1000))
	assert.Nil(t, err)
	_, err = env.engine.SettleCurrent(ctx, auction.ID)
	assert.Nil(t, err)

	_, err = env.engine.SetCurrentItem(ctx, auction.ID, first.ID)
	check.Equal(t, KindConflict, KindOf(err))
}

func mustBudget(t *testing.T, env *testEnv, groupID uuid.UUID) int64 {
	t.Helper()
	budget, err := env.groups.GetBudget(context.Background(), groupID)
	assert.Nil(t, err)
	return budget
}
