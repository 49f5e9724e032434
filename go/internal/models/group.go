package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is a budget-holding party that bids in auctions. A group with a
// captain identity bound counts toward skip consensus.
type Group struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Budget            int64      `json:"budget"`
	CaptainIdentityID *uuid.UUID `json:"captain_identity_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// HasCaptain reports whether a captain identity is bound to the group.
func (g *Group) HasCaptain() bool {
	return g.CaptainIdentityID != nil
}
