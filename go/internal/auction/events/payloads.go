package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/gavel/go/internal/models"
)

// Event payload types shared between the engine, broadcast and gateway
// packages.

// Type identifies a room-scoped auction event.
type Type string

const (
	TypeTick             Type = "Tick"
	TypeBidAccepted      Type = "BidAccepted"
	TypeBidUndone        Type = "BidUndone"
	TypeSkipRecorded     Type = "SkipRecorded"
	TypeItemChanged      Type = "ItemChanged"
	TypeItemSold         Type = "ItemSold"
	TypeItemUnsold       Type = "ItemUnsold"
	TypeAuctionStarted   Type = "AuctionStarted"
	TypeAuctionPaused    Type = "AuctionPaused"
	TypeAuctionResumed   Type = "AuctionResumed"
	TypeAuctionCompleted Type = "AuctionCompleted"
	TypeAuctionClosed    Type = "AuctionClosed"
)

// TickPayload carries the countdown heartbeat. Deadline is absolute so
// clients can self-correct for clock drift.
type TickPayload struct {
	SecondsLeft  int       `json:"seconds_left"`
	TotalSeconds int       `json:"total_seconds"`
	Deadline     time.Time `json:"deadline"`
}

// BidAcceptedPayload is published after a bid passes validation and is
// persisted.
type BidAcceptedPayload struct {
	GroupID uuid.UUID  `json:"group_id"`
	Amount  int64      `json:"amount"`
	ItemID  *uuid.UUID `json:"item_id,omitempty"`
	At      time.Time  `json:"at"`
}

// BidUndonePayload carries the bid that is current after the undo, or nil
// when the ledger is empty again.
type BidUndonePayload struct {
	ResultingBid *models.Bid `json:"resulting_bid"`
}

// SkipRecordedPayload is published when a captain group passes on an item.
type SkipRecordedPayload struct {
	GroupID uuid.UUID  `json:"group_id"`
	ItemID  *uuid.UUID `json:"item_id,omitempty"`
}

// ItemChangedPayload announces the next item on the block together with the
// fresh absolute deadline. Deadline is absent when the auction is paused and
// no countdown is running.
type ItemChangedPayload struct {
	Item     models.Item `json:"item"`
	Deadline *time.Time  `json:"deadline,omitempty"`
}

// ItemSoldPayload is published after a settlement debits the winning group.
type ItemSoldPayload struct {
	ItemID  uuid.UUID `json:"item_id"`
	GroupID uuid.UUID `json:"group_id"`
	Price   int64     `json:"price"`
	At      time.Time `json:"at"`
}

// ItemUnsoldPayload is published when an item passes without a winner.
type ItemUnsoldPayload struct {
	ItemID uuid.UUID `json:"item_id"`
}

// AuctionStartedPayload is published on the Draft to Active transition.
type AuctionStartedPayload struct {
	AuctionID uuid.UUID `json:"auction_id"`
	StartedAt time.Time `json:"started_at"`
}

// AuctionPausedPayload is published on the Active to Paused transition.
type AuctionPausedPayload struct {
	AuctionID uuid.UUID `json:"auction_id"`
	PausedAt  time.Time `json:"paused_at"`
}

// AuctionResumedPayload is published on the Paused to Active transition.
type AuctionResumedPayload struct {
	AuctionID uuid.UUID `json:"auction_id"`
	ResumedAt time.Time `json:"resumed_at"`
}

// AuctionCompletedPayload is published when no unsettled items remain.
type AuctionCompletedPayload struct {
	AuctionID   uuid.UUID `json:"auction_id"`
	CompletedAt time.Time `json:"completed_at"`
	TotalSales  int       `json:"total_sales"`
}

// AuctionClosedPayload is published when the operator closes the auction.
type AuctionClosedPayload struct {
	AuctionID uuid.UUID `json:"auction_id"`
	ClosedAt  time.Time `json:"closed_at"`
}
