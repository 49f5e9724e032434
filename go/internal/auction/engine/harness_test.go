package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/peterldowns/testy/assert"

	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/models"
)

// In-memory fakes for the engine's collaborators. State is cloned on the
// way in and out so tests observe only what was persisted.

type fakeStore struct {
	mu       sync.Mutex
	auctions map[uuid.UUID]*models.Auction
	saveErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{auctions: make(map[uuid.UUID]*models.Auction)}
}

func (s *fakeStore) CreateAuction(ctx context.Context, a *models.Auction) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[a.ID] = cloneAuction(a)
	return cloneAuction(a), nil
}

func (s *fakeStore) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok {
		return nil, fmt.Errorf("auction %s not found", id)
	}
	return cloneAuction(a), nil
}

func (s *fakeStore) SaveAuction(ctx context.Context, a *models.Auction) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	if _, ok := s.auctions[a.ID]; !ok {
		return nil, fmt.Errorf("auction %s not found", a.ID)
	}
	s.auctions[a.ID] = cloneAuction(a)
	return cloneAuction(a), nil
}

func (s *fakeStore) FindActiveWithFutureDeadline(ctx context.Context, now time.Time) ([]*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Auction
	for _, a := range s.auctions {
		if a.Status == models.AuctionStatusActive && a.TimerDeadline != nil && a.TimerDeadline.After(now) {
			out = append(out, cloneAuction(a))
		}
	}
	return out, nil
}

// setSaveErr makes every subsequent save fail, simulating a store outage.
func (s *fakeStore) setSaveErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// put writes an aggregate directly, bypassing the engine. Used to seed
// edge-case states.
func (s *fakeStore) put(a *models.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[a.ID] = cloneAuction(a)
}

func cloneAuction(a *models.Auction) *models.Auction {
	c := *a
	c.Participants = append([]uuid.UUID(nil), a.Participants...)
	c.BidHistory = append([]models.Bid(nil), a.BidHistory...)
	c.Sales = append([]models.SaleRecord(nil), a.Sales...)
	c.UnsoldThisRun = append([]uuid.UUID(nil), a.UnsoldThisRun...)
	c.SkippedGroups = append([]uuid.UUID(nil), a.SkippedGroups...)
	if a.CurrentItemID != nil {
		id := *a.CurrentItemID
		c.CurrentItemID = &id
	}
	if a.CurrentBid != nil {
		bid := *a.CurrentBid
		c.CurrentBid = &bid
	}
	if a.TimerDeadline != nil {
		d := *a.TimerDeadline
		c.TimerDeadline = &d
	}
	return &c
}

type fakeGroups struct {
	mu     sync.Mutex
	groups map[uuid.UUID]*models.Group
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{groups: make(map[uuid.UUID]*models.Group)}
}

func (g *fakeGroups) add(name string, budget int64) *models.Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	captain := uuid.New()
	group := &models.Group{
		ID:                uuid.New(),
		Name:              name,
		Budget:            budget,
		CaptainIdentityID: &captain,
	}
	g.groups[group.ID] = group
	return group
}

func (g *fakeGroups) setBudget(groupID uuid.UUID, budget int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groups[groupID].Budget = budget
}

func (g *fakeGroups) GetGroup(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	group, ok := g.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s not found", id)
	}
	c := *group
	return &c, nil
}

func (g *fakeGroups) GetBudget(ctx context.Context, groupID uuid.UUID) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	group, ok := g.groups[groupID]
	if !ok {
		return 0, fmt.Errorf("group %s not found", groupID)
	}
	return group.Budget, nil
}

func (g *fakeGroups) Debit(ctx context.Context, groupID uuid.UUID, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	group, ok := g.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s not found", groupID)
	}
	if group.Budget < amount {
		return fmt.Errorf("insufficient budget")
	}
	group.Budget -= amount
	return nil
}

func (g *fakeGroups) ResolveGroupForIdentity(ctx context.Context, identityID uuid.UUID) (*models.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, group := range g.groups {
		if group.CaptainIdentityID != nil && *group.CaptainIdentityID == identityID {
			c := *group
			return &c, nil
		}
	}
	return nil, nil
}

type fakeCatalog struct {
	mu    sync.Mutex
	items []*models.Item
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{}
}

func (c *fakeCatalog) add(name string, basePrice int64) *models.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := &models.Item{
		ID:        uuid.New(),
		Name:      name,
		BasePrice: basePrice,
	}
	c.items = append(c.items, item)
	return item
}

func (c *fakeCatalog) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ID == id {
			cp := *item
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("item %s not found", id)
}

func (c *fakeCatalog) FindNextUnsettled(ctx context.Context, exclude []uuid.UUID) (*models.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.OwnerGroupID != nil || contains(exclude, item.ID) {
			continue
		}
		cp := *item
		return &cp, nil
	}
	return nil, nil
}

func (c *fakeCatalog) ListUnsettledIDs(ctx context.Context, exclude []uuid.UUID) ([]uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []uuid.UUID
	for _, item := range c.items {
		if item.OwnerGroupID != nil || contains(exclude, item.ID) {
			continue
		}
		ids = append(ids, item.ID)
	}
	return ids, nil
}

func (c *fakeCatalog) AssignOwner(ctx context.Context, itemID, groupID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ID == itemID {
			if item.OwnerGroupID == nil {
				id := groupID
				item.OwnerGroupID = &id
			}
			return nil
		}
	}
	return fmt.Errorf("item %s not found", itemID)
}

func (c *fakeCatalog) ownerOf(itemID uuid.UUID) *uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ID == itemID {
			return item.OwnerGroupID
		}
	}
	return nil
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type publishedEvent struct {
	RoomID  string
	Type    events.Type
	Payload any
}

type recorder struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recorder) Publish(roomID string, eventType events.Type, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{RoomID: roomID, Type: eventType, Payload: payload})
}

func (r *recorder) countOf(t events.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (r *recorder) lastOf(t events.Type) (publishedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return publishedEvent{}, false
}

type testEnv struct {
	engine  *Engine
	store   *fakeStore
	groups  *fakeGroups
	catalog *fakeCatalog
	events  *recorder
	clock   *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   newFakeStore(),
		groups:  newFakeGroups(),
		catalog: newFakeCatalog(),
		events:  &recorder{},
		clock:   clockwork.NewFakeClock(),
	}
	env.engine = New(
		env.store,
		env.groups,
		env.catalog,
		env.events,
		env.clock,
		NewRuntimeRegistry(),
		DefaultConfig(),
	)
	return env
}

// createAuction creates a Draft auction for the given participant groups.
func (env *testEnv) createAuction(t *testing.T, participants ...*models.Group) *models.Auction {
	t.Helper()
	ids := make([]uuid.UUID, len(participants))
	for i, g := range participants {
		ids[i] = g.ID
	}
	auction, err := env.engine.Create(context.Background(), CreateAuctionRequest{
		RoomID:       "room-" + uuid.NewString()[:8],
		Participants: ids,
	})
	assert.Nil(t, err)
	return auction
}

// startAuction creates and starts an auction, returning its started state.
func (env *testEnv) startAuction(t *testing.T, participants ...*models.Group) *models.Auction {
	t.Helper()
	auction := env.createAuction(t, participants...)
	started, err := env.engine.Start(context.Background(), auction.ID)
	assert.Nil(t, err)
	return started
}

func (env *testEnv) mustGet(t *testing.T, id uuid.UUID) *models.Auction {
	t.Helper()
	a, err := env.store.GetAuction(context.Background(), id)
	assert.Nil(t, err)
	return a
}

func bidReq(group *models.Group, amount int64) PlaceBidRequest {
	return PlaceBidRequest{GroupID: group.ID, Amount: amount}
}

// waitForEvents polls the recorder until want events of the given type have
// been published. Timer goroutines publish asynchronously.
func waitForEvents(t *testing.T, r *recorder, typ events.Type, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.countOf(typ) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %s events, saw %d", want, typ, r.countOf(typ))
}
