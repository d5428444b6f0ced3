package usecase

import (
	"context"
	"sort"
	"sync"

	"inzira-booking-client/internal/domain/entity"
)

// Results of applying a pushed seat update
const (
	SeatApplied = "applied"
	SeatStale   = "stale"
	SeatIgnored = "ignored"
)

type pushedSeats struct {
	seats    int
	sequence uint64
}

// SeatRegister is the shared seat-count view. Every update is a whole-value
// replacement of one key under the lock.
type SeatRegister struct {
	mu         sync.RWMutex
	subscribed map[int64]struct{}
	pushed     map[int64]pushedSeats
}

// NewSeatRegister creates an empty register
func NewSeatRegister() *SeatRegister {
	return &SeatRegister{
		subscribed: make(map[int64]struct{}),
		pushed:     make(map[int64]pushedSeats),
	}
}

// Subscribe declares interest in a schedule. Returns false if already subscribed.
func (r *SeatRegister) Subscribe(scheduleID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribed[scheduleID]; ok {
		return false
	}
	r.subscribed[scheduleID] = struct{}{}
	return true
}

// Unsubscribe drops interest and any pushed value for the schedule
func (r *SeatRegister) Unsubscribe(scheduleID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribed[scheduleID]; !ok {
		return false
	}
	delete(r.subscribed, scheduleID)
	delete(r.pushed, scheduleID)
	return true
}

func (r *SeatRegister) IsSubscribed(scheduleID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.subscribed[scheduleID]
	return ok
}

// Track keeps exactly the displayed schedules subscribed. Used without a
// live channel, so nothing is sent upstream.
func (r *SeatRegister) Track(_ context.Context, schedules []entity.Schedule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[int64]struct{}, len(schedules))
	for _, s := range schedules {
		wanted[s.ID] = struct{}{}
	}
	for id := range r.subscribed {
		if _, ok := wanted[id]; !ok {
			delete(r.subscribed, id)
			delete(r.pushed, id)
		}
	}
	for id := range wanted {
		r.subscribed[id] = struct{}{}
	}
}

// Subscribed returns subscribed schedule ids in ascending order
func (r *SeatRegister) Subscribed() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.subscribed))
	for id := range r.subscribed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Apply merges a pushed event.
// Events for unsubscribed schedules are ignored. A sequenced event not newer
// than the last applied sequence for its schedule is stale. Unsequenced
// events always overwrite.
func (r *SeatRegister) Apply(event entity.SeatUpdateEvent) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribed[event.ScheduleID]; !ok {
		return SeatIgnored
	}

	prev, seen := r.pushed[event.ScheduleID]
	if seen && event.Sequence != 0 && event.Sequence <= prev.sequence {
		return SeatStale
	}

	next := pushedSeats{seats: event.AvailableSeats, sequence: prev.sequence}
	if event.Sequence != 0 {
		next.sequence = event.Sequence
	}
	r.pushed[event.ScheduleID] = next
	return SeatApplied
}

// Pushed returns the last pushed count for a schedule
func (r *SeatRegister) Pushed(scheduleID int64) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pushed[scheduleID]
	return p.seats, ok
}

// EffectiveAvailableSeats prefers the pushed value over the polled snapshot.
// Negative pushed values are returned as received.
func (r *SeatRegister) EffectiveAvailableSeats(schedule *entity.Schedule) int {
	if seats, ok := r.Pushed(schedule.ID); ok {
		return seats
	}
	return schedule.AvailableSeats
}

// Snapshot copies the pushed seat counts
func (r *SeatRegister) Snapshot() map[int64]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[int64]int, len(r.pushed))
	for id, p := range r.pushed {
		out[id] = p.seats
	}
	return out
}

// Reset clears pushed values, keeping subscriptions
func (r *SeatRegister) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pushed = make(map[int64]pushedSeats)
}
