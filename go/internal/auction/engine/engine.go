package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/models"
)

// AuctionStore defines what the engine needs from the durable store. The
// store is the single source of truth across restarts; runtimes are a
// rebuildable cache on top of it.
type AuctionStore interface {
	CreateAuction(ctx context.Context, auction *models.Auction) (*models.Auction, error)
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	SaveAuction(ctx context.Context, auction *models.Auction) (*models.Auction, error)
	FindActiveWithFutureDeadline(ctx context.Context, now time.Time) ([]*models.Auction, error)
}

// GroupRegistry defines what the engine needs from the party registry.
type GroupRegistry interface {
	GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error)
	GetBudget(ctx context.Context, groupID uuid.UUID) (int64, error)
	Debit(ctx context.Context, groupID uuid.UUID, amount int64) error
	// ResolveGroupForIdentity returns the group the identity is bound to,
	// or nil when the identity has no binding.
	ResolveGroupForIdentity(ctx context.Context, identityID uuid.UUID) (*models.Group, error)
}

// CatalogFeed defines what the engine needs from the item catalog. The
// exclude set carries items already settled during the current run; items
// owned from earlier runs are filtered by the feed itself.
type CatalogFeed interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	FindNextUnsettled(ctx context.Context, exclude []uuid.UUID) (*models.Item, error)
	ListUnsettledIDs(ctx context.Context, exclude []uuid.UUID) ([]uuid.UUID, error)
	AssignOwner(ctx context.Context, itemID, groupID uuid.UUID) error
}

// Broadcaster publishes room-scoped events, fire and forget. Publish
// failures must never block or fail the state mutation that triggered them.
type Broadcaster interface {
	Publish(roomID string, eventType events.Type, payload any)
}

// Config holds engine tunables.
type Config struct {
	DefaultTimerDurationSec int
	DefaultMinBidFloor      int64
	// ResetDebounce collapses rapid successive bid-triggered timer resets
	// into a single restart.
	ResetDebounce time.Duration
	// HeartbeatInterval is the cadence of countdown tick re-publishes.
	HeartbeatInterval time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTimerDurationSec: 30,
		DefaultMinBidFloor:      1000,
		ResetDebounce:           100 * time.Millisecond,
		HeartbeatInterval:       5 * time.Second,
	}
}

// CreateAuctionRequest describes a new auction: its room, the captain
// groups allowed to bid, and optional setting overrides.
type CreateAuctionRequest struct {
	RoomID       string                  `json:"room_id"`
	Participants []uuid.UUID             `json:"participants"`
	Settings     *models.AuctionSettings `json:"settings,omitempty"`
}

// PlaceBidRequest is a bid submission. ItemID is optional and only checked
// against the current item when both are present, to reject stale clients.
type PlaceBidRequest struct {
	GroupID    uuid.UUID  `json:"group_id"`
	IdentityID *uuid.UUID `json:"identity_id,omitempty"`
	Amount     int64      `json:"amount"`
	ItemID     *uuid.UUID `json:"item_id,omitempty"`
}

// Engine is the auction state machine. All external commands and timer
// expiries flow through it; it validates against current aggregate state,
// mutates, persists, and emits room events.
type Engine struct {
	store     AuctionStore
	groups    GroupRegistry
	catalog   CatalogFeed
	broadcast Broadcaster
	clock     clockwork.Clock
	cfg       Config
	runtimes  *RuntimeRegistry

	// timerCtx bounds the lifetime of timer goroutines. Run replaces it
	// while command handlers may be reading, so access goes through
	// timerContext.
	timerMu  sync.Mutex
	timerCtx context.Context
}

// New creates an engine. The runtime registry is injected so the owning
// process controls its lifecycle.
func New(store AuctionStore, groups GroupRegistry, catalog CatalogFeed, broadcast Broadcaster, clock clockwork.Clock, runtimes *RuntimeRegistry, cfg Config) *Engine {
	if cfg.DefaultTimerDurationSec <= 0 {
		cfg.DefaultTimerDurationSec = DefaultConfig().DefaultTimerDurationSec
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultConfig().HeartbeatInterval
	}
	if cfg.ResetDebounce <= 0 {
		cfg.ResetDebounce = DefaultConfig().ResetDebounce
	}
	return &Engine{
		store:     store,
		groups:    groups,
		catalog:   catalog,
		broadcast: broadcast,
		clock:     clock,
		cfg:       cfg,
		runtimes:  runtimes,
		timerCtx:  context.Background(),
	}
}

// Run binds the engine's timer goroutines to ctx, restores countdowns for
// auctions that were mid-timer when the process last stopped, and blocks
// until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.timerMu.Lock()
	e.timerCtx = ctx
	e.timerMu.Unlock()

	if err := e.RestoreActive(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	for _, rt := range e.runtimes.all() {
		rt.mu.Lock()
		rt.cancelCountdown()
		rt.mu.Unlock()
		rt.cancelPendingReset()
	}
	log.Info().Msg("engine stopped")
	return nil
}

// timerContext returns the context bounding timer goroutine lifetimes.
func (e *Engine) timerContext() context.Context {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	return e.timerCtx
}

// Create registers a new auction in Draft state with a fixed participant
// set. Every participant group must exist and have a captain bound.
func (e *Engine) Create(ctx context.Context, req CreateAuctionRequest) (*models.Auction, error) {
	if req.RoomID == "" {
		return nil, invalidInput("room_id is required")
	}
	if len(req.Participants) == 0 {
		return nil, invalidInput("at least one participant group is required")
	}

	seen := make(map[uuid.UUID]bool, len(req.Participants))
	for _, groupID := range req.Participants {
		if seen[groupID] {
			return nil, invalidInput("duplicate participant group %s", groupID)
		}
		seen[groupID] = true

		group, err := e.groups.GetGroup(ctx, groupID)
		if err != nil {
			return nil, notFound("participant group %s not found", groupID)
		}
		if !group.HasCaptain() {
			return nil, invalidInput("group %s has no captain bound", groupID)
		}
	}

	settings := models.AuctionSettings{
		MinBidFloor:      e.cfg.DefaultMinBidFloor,
		TimerDurationSec: e.cfg.DefaultTimerDurationSec,
	}
	if req.Settings != nil {
		if req.Settings.MinBidFloor < 0 {
			return nil, invalidInput("min_bid_floor cannot be negative")
		}
		if req.Settings.TimerDurationSec < 0 {
			return nil, invalidInput("timer_duration_sec cannot be negative")
		}
		if req.Settings.MinBidFloor > 0 {
			settings.MinBidFloor = req.Settings.MinBidFloor
		}
		if req.Settings.TimerDurationSec > 0 {
			settings.TimerDurationSec = req.Settings.TimerDurationSec
		}
	}

	now := e.clock.Now()
	auction := &models.Auction{
		ID:           uuid.New(),
		RoomID:       req.RoomID,
		Status:       models.AuctionStatusDraft,
		Settings:     settings,
		Participants: req.Participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := e.store.CreateAuction(ctx, auction)
	if err != nil {
		return nil, internal("failed to create auction", err)
	}

	log.Info().
		Str("auction_id", created.ID.String()).
		Str("room_id", created.RoomID).
		Int("participants", len(created.Participants)).
		Msg("auction created")
	return created, nil
}

// Get returns the aggregate as persisted.
func (e *Engine) Get(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error) {
	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, notFound("auction %s not found", auctionID)
	}
	return auction, nil
}

// Start moves a Draft auction to Active, builds the rotation queue, puts
// the first item on the block and starts the countdown.
func (e *Engine) Start(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error) {
	rt := e.runtimes.acquire(auctionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, notFound("auction %s not found", auctionID)
	}
	if auction.Status != models.AuctionStatusDraft {
		return nil, conflict("cannot start auction in %s state", auction.Status)
	}

	rotation, err := e.catalog.ListUnsettledIDs(ctx, auction.SettledItemIDs())
	if err != nil {
		return nil, internal("failed to build rotation queue", err)
	}
	rt.rotation = rotation

	auction.Status = models.AuctionStatusActive
	if _, err := e.store.SaveAuction(ctx, auction); err != nil {
		return nil, internal("failed to persist start", err)
	}

	e.broadcast.Publish(auction.RoomID, events.TypeAuctionStarted, events.AuctionStartedPayload{
		AuctionID: auction.ID,
		StartedAt: e.clock.Now(),
	})

	log.Info().
		Str("auction_id", auctionID.String()).
		Int("rotation_size", len(rotation)).
		Msg("auction started")

	if err := e.advanceRotation(ctx, auction, rt); err != nil {
		return nil, err
	}
	return e.store.GetAuction(ctx, auctionID)
}

// Pause stops the countdown but preserves the current item and bid.
func (e *Engine) Pause(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error) {
	rt := e.runtimes.acquire(auctionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, notFound("auction %s not found", auctionID)
	}
	if auction.Status != models.AuctionStatusActive {
		return nil, conflict("cannot pause auction in %s state", auction.Status)
	}

	// Cancel before mutating so a stale expiry cannot fire against the
	// paused state.
	rt.cancelCountdown()
	rt.cancelPendingReset()

	auction.Status = models.AuctionStatusPaused
	saved, err := e.store.SaveAuction(ctx, auction)
	if err != nil {
		return nil, internal("failed to persist pause", err)
	}

	e.broadcast.Publish(auction.RoomID, events.TypeAuctionPaused, events.AuctionPausedPayload{
		AuctionID: auction.ID,
		PausedAt:  e.clock.Now(),
	})
	log.Info().Str("auction_id", auctionID.String()).Msg("auction paused")
	return saved, nil
}

// Resume moves a Paused auction back to Active. If an item is on the block
// the existing deadline is reused when still in the future; otherwise a
// fresh full-duration countdown starts. With no item set, rotation advances.
func (e *Engine) Resume(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error) {
	rt := e.runtimes.acquire(auctionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, notFound("auction %s not found", auctionID)
	}
	if auction.Status != models.AuctionStatusPaused {
		return nil, conflict("cannot resume auction in %s state", auction.Status)
	}

	auction.Status = models.AuctionStatusActive

	if auction.CurrentItemID == nil {
		e.broadcast.Publish(auction.RoomID, events.TypeAuctionResumed, events.AuctionResumedPayload{
			AuctionID: auction.ID,
			ResumedAt: e.clock.Now(),
		})
		if err := e.advanceRotation(ctx, auction, rt); err != nil {
			return nil, err
		}
		return e.store.GetAuction(ctx, auctionID)
	}

	if auction.TimerDeadline != nil && auction.TimerDeadline.After(e.clock.Now()) {
		e.attachCountdown(auction, *auction.TimerDeadline)
	} else {
		e.startCountdown(auction)
	}
	saved, err := e.store.SaveAuction(ctx, auction)
	if err != nil {
		rt.cancelCountdown()
		return nil, internal("failed to persist resume", err)
	}

	e.broadcast.Publish(auction.RoomID, events.TypeAuctionResumed, events.AuctionResumedPayload{
		AuctionID: auction.ID,
		ResumedAt: e.clock.Now(),
	})
	log.Info().Str("auction_id", auctionID.String()).Msg("auction resumed")
	return saved, nil
}

// Close terminates the auction by operator command. Terminal: the auction
// keeps its full history but accepts no further bids.
func (e *Engine) Close(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error) {
	rt := e.runtimes.acquire(auctionID)
	rt.mu.Lock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		rt.mu.Unlock()
		return nil, notFound("auction %s not found", auctionID)
	}
	switch auction.Status {
	case models.AuctionStatusActive, models.AuctionStatusPaused:
	default:
		rt.mu.Unlock()
		return nil, conflict("cannot close auction in %s state", auction.Status)
	}

	rt.cancelCountdown()

	auction.Status = models.AuctionStatusCompleted
	auction.CurrentItemID = nil
	auction.CurrentBid = nil
	auction.SkippedGroups = nil
	auction.TimerDeadline = nil
	saved, err := e.store.SaveAuction(ctx, auction)
	rt.mu.Unlock()
	if err != nil {
		return nil, internal("failed to persist close", err)
	}

	e.runtimes.remove(auctionID)
	e.broadcast.Publish(auction.RoomID, events.TypeAuctionClosed, events.AuctionClosedPayload{
		AuctionID: auction.ID,
		ClosedAt:  e.clock.Now(),
	})
	log.Info().Str("auction_id", auctionID.String()).Msg("auction closed")
	return saved, nil
}

// SetCurrentItem puts a specific unsettled item on the block, clearing bid
// and skip state. On an Active auction the countdown restarts.
func (e *Engine) SetCurrentItem(ctx context.Context, auctionID, itemID uuid.UUID) (*models.Auction, error) {
	rt := e.runtimes.acquire(auctionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, notFound("auction %s not found", auctionID)
	}
	switch auction.Status {
	case models.AuctionStatusActive, models.AuctionStatusPaused:
	default:
		return nil, conflict("cannot set item on auction in %s state", auction.Status)
	}

	item, err := e.catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, notFound("item %s not found", itemID)
	}
	if auction.Settled(item.ID) {
		return nil, conflict("item %s is already settled in this auction", itemID)
	}

	rt.cancelCountdown()
	rt.cancelPendingReset()

	auction.CurrentItemID = &item.ID
	auction.CurrentBid = nil
	auction.BidHistory = nil
	auction.SkippedGroups = nil

	var deadline *time.Time
	if auction.Status == models.AuctionStatusActive {
		d := e.startCountdown(auction)
		deadline = &d
	} else {
		// A preserved deadline belongs to the previous item; Resume must
		// arm a fresh countdown for this one.
		auction.TimerDeadline = nil
	}
	saved, err := e.store.SaveAuction(ctx, auction)
	if err != nil {
		rt.cancelCountdown()
		return nil, internal("failed to persist item change", err)
	}

	e.broadcast.Publish(auction.RoomID, events.TypeItemChanged, events.ItemChangedPayload{
		Item:     *item,
		Deadline: deadline,
	})
	log.Info().
		Str("auction_id", auctionID.String()).
		Str("item_id", itemID.String()).
		Msg("current item set")
	return saved, nil
}

// PlaceBid validates and records a bid. Preconditions run in a fixed order,
// each with a distinct rejection; nothing is persisted before the first
// failing check.
func (e *Engine) PlaceBid(ctx context.Context, auctionID uuid.UUID, req PlaceBidRequest) (*models.Auction, error) {
	rt := e.runtimes.acquire(auctionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, notFound("auction %s not found", auctionID)
	}
	if auction.Status != models.AuctionStatusActive {
		return nil, conflict("auction is not active")
	}

	if _, err := e.groups.GetGroup(ctx, req.GroupID); err != nil {
		return nil, notFound("group %s not found", req.GroupID)
	}
	if req.IdentityID != nil {
		bound, err := e.groups.ResolveGroupForIdentity(ctx, *req.IdentityID)
		if err != nil {
			return nil, internal("failed to resolve identity", err)
		}
		if bound != nil && bound.ID != req.GroupID {
			return nil, forbidden("can only bid for own group")
		}
	}

	if req.Amount < auction.Settings.MinBidFloor {
		return nil, invalidInput("bid %d is below the floor of %d", req.Amount, auction.Settings.MinBidFloor)
	}
	if auction.CurrentBid != nil && req.Amount <= auction.CurrentBid.Amount {
		return nil, invalidInput("bid %d does not raise the current bid of %d", req.Amount, auction.CurrentBid.Amount)
	}

	budget, err := e.groups.GetBudget(ctx, req.GroupID)
	if err != nil {
		return nil, internal("failed to read group budget", err)
	}
	if budget < req.Amount {
		return nil, invalidInput("group budget %d is insufficient for bid %d", budget, req.Amount)
	}

	if auction.CurrentItemID != nil && req.ItemID != nil && *req.ItemID != *auction.CurrentItemID {
		return nil, invalidInput("bid targets item %s but item %s is on the block", *req.ItemID, *auction.CurrentItemID)
	}

	bid := models.Bid{
		GroupID: req.GroupID,
		Amount:  req.Amount,
		ItemID:  auction.CurrentItemID,
		At:      e.clock.Now(),
	}
	auction.BidHistory = append(auction.BidHistory, bid)
	auction.CurrentBid = &bid
	auction.SkippedGroups = nil

	saved, err := e.store.SaveAuction(ctx, auction)
	if err != nil {
		return nil, internal("failed to persist bid", err)
	}

	e.requestTimerReset(auctionID)
	e.broadcast.Publish(auction.RoomID, events.TypeBidAccepted, events.BidAcceptedPayload{
		GroupID: bid.GroupID,
		Amount:  bid.Amount,
		ItemID:  bid.ItemID,
		At:      bid.At,
	})
	log.Info().
		Str("auction_id", auctionID.String()).
		Str("group_id", bid.GroupID.String()).
		Int64("amount", bid.Amount).
		Msg("bid accepted")
	return saved, nil
}

// UndoBid retracts the most recent bid. Only the group holding the current
// bid may undo, and only while no other group has bid since. The ledger is
// compared against currentBid rather than trusted, to catch divergence.
func (e *Engine) UndoBid(ctx context.Context, auctionID, groupID uuid.UUID) (*models.Auction, error) {
	rt := e.runtimes.acquire(auctionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, notFound("auction %s not found", auctionID)
	}
	if auction.Status != models.AuctionStatusActive {
		return nil, conflict("auction is not active")
	}
	if len(auction.BidHistory) == 0 || auction.CurrentBid == nil {
		return nil, conflict("no bid to undo")
	}

	last := auction.BidHistory[len(auction.BidHistory)-1]
	if last.GroupID != groupID {
		return nil, forbidden("only the group holding the current bid may undo")
	}
	if last.GroupID != auction.CurrentBid.GroupID || last.Amount != auction.CurrentBid.Amount {
		return nil, internal("bid ledger diverged from current bid", nil)
	}

	auction.BidHistory = auction.BidHistory[:len(auction.BidHistory)-1]
	if n := len(auction.BidHistory); n > 0 {
		prior := auction.BidHistory[n-1]
		auction.CurrentBid = &prior
	} else {
		auction.CurrentBid = nil
	}

	saved, err := e.store.SaveAuction(ctx, auction)
	if err != nil {
		return nil, internal("failed to persist undo", err)
	}

	if auction.CurrentBid != nil {
		// A bid is live again, so it gets a fresh countdown.
		e.requestTimerReset(auctionID)
	}
	e.broadcast.Publish(auction.RoomID, events.TypeBidUndone, events.BidUndonePayload{
		ResultingBid: auction.CurrentBid,
	})
	log.Info().
		Str("auction_id", auctionID.String()).
		Str("group_id", groupID.String()).
		Msg("bid undone")
	return saved, nil
}

// Skip records that a captain group passes on the current item, then
// evaluates the consensus fast paths without waiting for timer expiry.
func (e *Engine) Skip(ctx context.Context, auctionID, groupID uuid.UUID) (*models.Auction, error) {
	rt := e.runtimes.acquire(auctionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, notFound("auction %s not found", auctionID)
	}
	if auction.Status != models.AuctionStatusActive {
		return nil, conflict("auction is not active")
	}
	if !auction.IsParticipant(groupID) {
		return nil, forbidden("group %s is not a participant of this auction", groupID)
	}
	if auction.HasSkipped(groupID) {
		return nil, conflict("group %s already skipped this item", groupID)
	}

	auction.SkippedGroups = append(auction.SkippedGroups, groupID)
	if _, err := e.store.SaveAuction(ctx, auction); err != nil {
		return nil, internal("failed to persist skip", err)
	}

	e.broadcast.Publish(auction.RoomID, events.TypeSkipRecorded, events.SkipRecordedPayload{
		GroupID: groupID,
		ItemID:  auction.CurrentItemID,
	})
	log.Info().
		Str("auction_id", auctionID.String()).
		Str("group_id", groupID.String()).
		Int("skips", len(auction.SkippedGroups)).
		Msg("skip recorded")

	allSkipped, bidderSkipped := e.consensusState(auction)
	switch {
	case allSkipped || bidderSkipped:
		rt.cancelCountdown()
		rt.cancelPendingReset()
		if err := e.resolveUnsold(ctx, auction, rt); err != nil {
			return nil, err
		}
	case e.soleRemainingBidder(auction):
		// Everyone else has passed and the holdout owns the current bid;
		// no reason to wait out the clock.
		rt.cancelCountdown()
		rt.cancelPendingReset()
		if err := e.resolveSale(ctx, auction, rt); err != nil {
			return nil, err
		}
	}

	return e.store.GetAuction(ctx, auctionID)
}

// SettleCurrent is the operator's manual trigger for the same resolution
// the timer runs at expiry.
func (e *Engine) SettleCurrent(ctx context.Context, auctionID uuid.UUID) (*models.Auction, error) {
	rt := e.runtimes.acquire(auctionID)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	auction, err := e.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, notFound("auction %s not found", auctionID)
	}
	if auction.Status != models.AuctionStatusActive {
		return nil, conflict("auction is not active")
	}

	rt.cancelCountdown()
	rt.cancelPendingReset()

	if err := e.resolveCurrent(ctx, auction, rt); err != nil {
		return nil, err
	}
	return e.store.GetAuction(ctx, auctionID)
}

// consensusState computes the two unsold triggers: every participating
// captain group skipped, or the current bidder itself skipped.
func (e *Engine) consensusState(auction *models.Auction) (allSkipped, bidderSkipped bool) {
	allSkipped = len(auction.Participants) > 0
	for _, groupID := range auction.Participants {
		if !auction.HasSkipped(groupID) {
			allSkipped = false
			break
		}
	}
	if auction.CurrentBid != nil && auction.HasSkipped(auction.CurrentBid.GroupID) {
		bidderSkipped = true
	}
	return allSkipped, bidderSkipped
}

// soleRemainingBidder reports whether exactly one participant has not
// skipped and that participant holds the current bid.
func (e *Engine) soleRemainingBidder(auction *models.Auction) bool {
	if auction.CurrentBid == nil {
		return false
	}
	var holdout *uuid.UUID
	for _, groupID := range auction.Participants {
		if auction.HasSkipped(groupID) {
			continue
		}
		if holdout != nil {
			return false
		}
		id := groupID
		holdout = &id
	}
	return holdout != nil && *holdout == auction.CurrentBid.GroupID
}
