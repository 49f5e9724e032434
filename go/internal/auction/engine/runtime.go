package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// runtime is the in-process state attached to one auction: the mutex that
// serializes its mutations, the rotation queue, and the live timer handles.
// The durable store stays the source of truth; a runtime is rebuilt from it
// after a restart.
type runtime struct {
	auctionID uuid.UUID

	// mu serializes every read-modify-write on the aggregate. Commands,
	// timer expiry and skip fast paths all take it before touching state.
	mu sync.Mutex

	rotation []uuid.UUID

	countdown *countdown

	resetMu      sync.Mutex
	pendingReset *pendingReset
}

// countdown holds the handles of the active deadline timer and its
// heartbeat loop. At most one countdown exists per auction.
type countdown struct {
	timer    clockwork.Timer
	cancel   context.CancelFunc
	deadline time.Time
	total    time.Duration
}

// pendingReset is a debounced restart request. A second reset inside the
// debounce window supersedes the first instead of thrashing the scheduler.
type pendingReset struct {
	timer  clockwork.Timer
	cancel chan struct{}
}

// popRotation pops the next candidate item id off the rotation queue.
func (rt *runtime) popRotation() (uuid.UUID, bool) {
	if len(rt.rotation) == 0 {
		return uuid.Nil, false
	}
	id := rt.rotation[0]
	rt.rotation = rt.rotation[1:]
	return id, true
}

// cancelCountdown stops the deadline timer and the heartbeat loop. Safe to
// call when no countdown is active.
func (rt *runtime) cancelCountdown() {
	if rt.countdown == nil {
		return
	}
	stopAndDrainTimer(rt.countdown.timer)
	rt.countdown.cancel()
	rt.countdown = nil
}

// cancelPendingReset drops a debounced restart request, if any.
func (rt *runtime) cancelPendingReset() {
	rt.resetMu.Lock()
	defer rt.resetMu.Unlock()
	if rt.pendingReset != nil {
		stopAndDrainTimer(rt.pendingReset.timer)
		close(rt.pendingReset.cancel)
		rt.pendingReset = nil
	}
}

// deadlineSnapshot returns the active countdown deadline, if any.
func (rt *runtime) deadlineSnapshot() (time.Time, bool) {
	if rt.countdown == nil {
		return time.Time{}, false
	}
	return rt.countdown.deadline, true
}

// RuntimeRegistry owns the per-auction runtimes. It is created by the
// coordinating process and injected into the engine; entries are created on
// auction start/restore and removed on completion or close.
type RuntimeRegistry struct {
	mu       sync.RWMutex
	runtimes map[uuid.UUID]*runtime
}

// NewRuntimeRegistry creates an empty runtime registry.
func NewRuntimeRegistry() *RuntimeRegistry {
	return &RuntimeRegistry{
		runtimes: make(map[uuid.UUID]*runtime),
	}
}

// acquire returns the runtime for the auction, creating it when absent.
func (r *RuntimeRegistry) acquire(auctionID uuid.UUID) *runtime {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.runtimes[auctionID]
	if !ok {
		rt = &runtime{auctionID: auctionID}
		r.runtimes[auctionID] = rt
	}
	return rt
}

// get returns the runtime for the auction, or nil when none is attached.
func (r *RuntimeRegistry) get(auctionID uuid.UUID) *runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runtimes[auctionID]
}

// remove tears down the runtime for a completed or closed auction.
func (r *RuntimeRegistry) remove(auctionID uuid.UUID) {
	r.mu.Lock()
	rt, ok := r.runtimes[auctionID]
	if ok {
		delete(r.runtimes, auctionID)
	}
	r.mu.Unlock()

	if ok {
		rt.cancelPendingReset()
	}
}

// all snapshots the attached runtimes, for shutdown.
func (r *RuntimeRegistry) all() []*runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rts := make([]*runtime, 0, len(r.runtimes))
	for _, rt := range r.runtimes {
		rts = append(rts, rt)
	}
	return rts
}

// stopAndDrainTimer safely stops a timer and drains its channel, following
// the pattern from the time.Timer.Stop documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
