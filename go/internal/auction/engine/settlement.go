package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/models"
)

// resolveCurrent runs the expiry resolution algorithm on a loaded Active
// aggregate: skip consensus beats any live bid, then an acceptable bid
// sells, otherwise the item passes unsold. The caller holds the runtime
// lock and has cancelled any outstanding countdown.
func (e *Engine) resolveCurrent(ctx context.Context, auction *models.Auction, rt *runtime) error {
	allSkipped, bidderSkipped := e.consensusState(auction)
	hasAcceptableBid := auction.CurrentBid != nil && auction.CurrentBid.Amount >= auction.Settings.MinBidFloor

	switch {
	case allSkipped || bidderSkipped:
		// A bidder who skips after bidding forfeits the bid once
		// consensus completes.
		return e.resolveUnsold(ctx, auction, rt)
	case hasAcceptableBid:
		return e.resolveSale(ctx, auction, rt)
	default:
		return e.resolveUnsold(ctx, auction, rt)
	}
}

// resolveSale settles the current item to the current bidder: re-verifies
// the budget at settlement time, debits it, and appends the sale exactly
// once. A budget that shrank below the price since the bid was accepted
// downgrades the resolution to unsold.
func (e *Engine) resolveSale(ctx context.Context, auction *models.Auction, rt *runtime) error {
	if auction.CurrentItemID == nil || auction.CurrentBid == nil {
		return e.resolveUnsold(ctx, auction, rt)
	}

	itemID := *auction.CurrentItemID
	bid := *auction.CurrentBid

	if auction.Settled(itemID) {
		// Duplicate settlement trigger: the sale is already recorded, so
		// this pass must not debit again.
		log.Warn().
			Str("auction_id", auction.ID.String()).
			Str("item_id", itemID.String()).
			Msg("item already settled, skipping duplicate settlement")
		auction.CurrentBid = nil
		auction.SkippedGroups = nil
		return e.advanceRotation(ctx, auction, rt)
	}

	budget, err := e.groups.GetBudget(ctx, bid.GroupID)
	if err != nil {
		return internal("failed to re-check winner budget", err)
	}
	if budget < bid.Amount {
		log.Warn().
			Str("auction_id", auction.ID.String()).
			Str("group_id", bid.GroupID.String()).
			Int64("budget", budget).
			Int64("price", bid.Amount).
			Msg("winner budget below price at settlement, resolving unsold")
		return e.resolveUnsold(ctx, auction, rt)
	}

	if err := e.groups.Debit(ctx, bid.GroupID, bid.Amount); err != nil {
		return internal("failed to debit winner budget", err)
	}
	if err := e.catalog.AssignOwner(ctx, itemID, bid.GroupID); err != nil {
		return internal("failed to bind item to winning group", err)
	}

	sale := models.SaleRecord{
		ItemID:  itemID,
		GroupID: bid.GroupID,
		Price:   bid.Amount,
		At:      e.clock.Now(),
	}
	auction.Sales = append(auction.Sales, sale)
	auction.CurrentBid = nil
	auction.SkippedGroups = nil

	if _, err := e.store.SaveAuction(ctx, auction); err != nil {
		return internal("failed to persist sale", err)
	}

	e.broadcast.Publish(auction.RoomID, events.TypeItemSold, events.ItemSoldPayload{
		ItemID:  sale.ItemID,
		GroupID: sale.GroupID,
		Price:   sale.Price,
		At:      sale.At,
	})
	log.Info().
		Str("auction_id", auction.ID.String()).
		Str("item_id", itemID.String()).
		Str("group_id", bid.GroupID.String()).
		Int64("price", bid.Amount).
		Msg("item sold")

	return e.advanceRotation(ctx, auction, rt)
}

// resolveUnsold records the current item as passed for this run and moves
// on. Appending is idempotent; the bidder, if any, keeps its budget.
func (e *Engine) resolveUnsold(ctx context.Context, auction *models.Auction, rt *runtime) error {
	if auction.CurrentItemID != nil {
		itemID := *auction.CurrentItemID
		if !auction.Settled(itemID) {
			auction.UnsoldThisRun = append(auction.UnsoldThisRun, itemID)
		}
		auction.CurrentBid = nil
		auction.SkippedGroups = nil

		if _, err := e.store.SaveAuction(ctx, auction); err != nil {
			return internal("failed to persist unsold resolution", err)
		}

		e.broadcast.Publish(auction.RoomID, events.TypeItemUnsold, events.ItemUnsoldPayload{
			ItemID: itemID,
		})
		log.Info().
			Str("auction_id", auction.ID.String()).
			Str("item_id", itemID.String()).
			Msg("item passed unsold")
	} else {
		auction.CurrentBid = nil
		auction.SkippedGroups = nil
	}

	return e.advanceRotation(ctx, auction, rt)
}

// advanceRotation pops the rotation queue until it finds an item that is
// still unsettled in this run, falling back to a catalog scan when the
// queue is exhausted. Finding one puts it on the block with a fresh
// countdown; finding none completes the auction.
func (e *Engine) advanceRotation(ctx context.Context, auction *models.Auction, rt *runtime) error {
	var next *models.Item

	for {
		candidateID, ok := rt.popRotation()
		if !ok {
			break
		}
		if auction.Settled(candidateID) {
			continue
		}
		item, err := e.catalog.GetItem(ctx, candidateID)
		if err != nil {
			log.Warn().
				Str("auction_id", auction.ID.String()).
				Str("item_id", candidateID.String()).
				Msg("rotation candidate missing from catalog, skipping")
			continue
		}
		next = item
		break
	}

	if next == nil {
		item, err := e.catalog.FindNextUnsettled(ctx, auction.SettledItemIDs())
		if err != nil {
			return internal("failed to query catalog for next item", err)
		}
		next = item
	}

	if next == nil {
		return e.completeAuction(ctx, auction, rt)
	}

	auction.CurrentItemID = &next.ID
	auction.CurrentBid = nil
	auction.BidHistory = nil
	auction.SkippedGroups = nil

	deadline := e.startCountdown(auction)
	if _, err := e.store.SaveAuction(ctx, auction); err != nil {
		rt.cancelCountdown()
		return internal("failed to persist rotation advance", err)
	}

	e.broadcast.Publish(auction.RoomID, events.TypeItemChanged, events.ItemChangedPayload{
		Item:     *next,
		Deadline: &deadline,
	})
	log.Info().
		Str("auction_id", auction.ID.String()).
		Str("item_id", next.ID.String()).
		Time("deadline", deadline).
		Msg("rotation advanced")
	return nil
}

// completeAuction is the automatic terminal transition taken when neither
// the rotation queue nor the catalog yields another unsettled item.
func (e *Engine) completeAuction(ctx context.Context, auction *models.Auction, rt *runtime) error {
	rt.cancelCountdown()

	auction.Status = models.AuctionStatusCompleted
	auction.CurrentItemID = nil
	auction.CurrentBid = nil
	auction.SkippedGroups = nil
	auction.TimerDeadline = nil

	if _, err := e.store.SaveAuction(ctx, auction); err != nil {
		return internal("failed to persist completion", err)
	}

	e.runtimes.remove(auction.ID)
	e.broadcast.Publish(auction.RoomID, events.TypeAuctionCompleted, events.AuctionCompletedPayload{
		AuctionID:   auction.ID,
		CompletedAt: e.clock.Now(),
		TotalSales:  len(auction.Sales),
	})
	log.Info().
		Str("auction_id", auction.ID.String()).
		Int("sales", len(auction.Sales)).
		Int("unsold", len(auction.UnsoldThisRun)).
		Msg("auction completed")
	return nil
}
