package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is a catalog entry offered for bidding. OwnerGroupID is set once
// the item settles as sold; owned items are excluded from later runs.
type Item struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	BasePrice    int64      `json:"base_price"`
	Position     string     `json:"position,omitempty"`
	OwnerGroupID *uuid.UUID `json:"owner_group_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Owned reports whether the item has already been bound to a group.
func (i *Item) Owned() bool {
	return i.OwnerGroupID != nil
}
