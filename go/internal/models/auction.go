package models

import (
	"time"

	"github.com/google/uuid"
)

// AuctionStatus defines the lifecycle state of an auction.
type AuctionStatus string

const (
	AuctionStatusDraft     AuctionStatus = "DRAFT"
	AuctionStatusActive    AuctionStatus = "ACTIVE"
	AuctionStatusPaused    AuctionStatus = "PAUSED"
	AuctionStatusCompleted AuctionStatus = "COMPLETED"
)

// AuctionSettings holds JSONB configuration for an auction.
type AuctionSettings struct {
	MinBidFloor      int64 `json:"min_bid_floor"`
	TimerDurationSec int   `json:"timer_duration_sec"`
}

// Bid is a single bid record. Immutable once appended to the history,
// except for pop-based undo of the most recent entry.
type Bid struct {
	GroupID uuid.UUID  `json:"group_id"`
	Amount  int64      `json:"amount"`
	ItemID  *uuid.UUID `json:"item_id,omitempty"`
	At      time.Time  `json:"at"`
}

// SaleRecord is a settled transaction. The sales list is append-only and
// authoritative for "already sold in this auction".
type SaleRecord struct {
	ItemID  uuid.UUID `json:"item_id"`
	GroupID uuid.UUID `json:"group_id"`
	Price   int64     `json:"price"`
	At      time.Time `json:"at"`
}

// Auction is the aggregate root. It is mutated exclusively through the
// engine's commands and persisted as a single row.
type Auction struct {
	ID               uuid.UUID       `json:"id"`
	RoomID           string          `json:"room_id"`
	Status           AuctionStatus   `json:"status"`
	Settings         AuctionSettings `json:"settings"`
	Participants     []uuid.UUID     `json:"participants"`
	CurrentItemID    *uuid.UUID      `json:"current_item_id,omitempty"`
	CurrentBid       *Bid            `json:"current_bid,omitempty"`
	BidHistory       []Bid           `json:"bid_history"`
	Sales            []SaleRecord    `json:"sales"`
	UnsoldThisRun    []uuid.UUID     `json:"unsold_this_run"`
	SkippedGroups    []uuid.UUID     `json:"skipped_groups"`
	TimerDeadline    *time.Time      `json:"timer_deadline,omitempty"`
	TimerDurationSec int             `json:"timer_duration_sec"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Settled reports whether the item has already been resolved during this
// auction run, either sold or passed unsold. The same predicate guards
// rotation, catalog fallback and double settlement.
func (a *Auction) Settled(itemID uuid.UUID) bool {
	for _, s := range a.Sales {
		if s.ItemID == itemID {
			return true
		}
	}
	for _, id := range a.UnsoldThisRun {
		if id == itemID {
			return true
		}
	}
	return false
}

// SoldItemIDs returns the ids of all items sold during this auction run.
func (a *Auction) SoldItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.Sales))
	for _, s := range a.Sales {
		ids = append(ids, s.ItemID)
	}
	return ids
}

// SettledItemIDs returns sold and unsold item ids combined, the exclusion
// set handed to the rotation queue and the catalog feed.
func (a *Auction) SettledItemIDs() []uuid.UUID {
	ids := a.SoldItemIDs()
	return append(ids, a.UnsoldThisRun...)
}

// HasSkipped reports whether the group already passed on the current item.
func (a *Auction) HasSkipped(groupID uuid.UUID) bool {
	for _, id := range a.SkippedGroups {
		if id == groupID {
			return true
		}
	}
	return false
}

// IsParticipant reports whether the group is part of this auction.
func (a *Auction) IsParticipant(groupID uuid.UUID) bool {
	for _, id := range a.Participants {
		if id == groupID {
			return true
		}
	}
	return false
}
