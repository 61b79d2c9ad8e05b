// Package events holds the static registry of participation events.
package events

import (
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/sachinacharyaa/popChain/types"
)

var log = logging.Logger("event_registry")

// Registry is the in-memory event table. Records are seeded once at startup;
// only CurrentCount changes afterwards, and only through Register.
type Registry struct {
	lk     sync.Mutex
	order  []string
	events map[string]*types.EventRecord
}

func NewRegistry(records []types.EventRecord) (*Registry, error) {
	r := &Registry{
		events: make(map[string]*types.EventRecord, len(records)),
	}
	for i := range records {
		rec := records[i]
		if rec.ID == "" {
			return nil, fmt.Errorf("event %q has no id", rec.Name)
		}
		if _, ok := r.events[rec.ID]; ok {
			return nil, fmt.Errorf("duplicate event id %s", rec.ID)
		}
		if rec.CurrentCount > rec.Capacity {
			return nil, fmt.Errorf("event %s count %d exceeds capacity %d", rec.ID, rec.CurrentCount, rec.Capacity)
		}
		r.order = append(r.order, rec.ID)
		r.events[rec.ID] = &rec
	}
	return r, nil
}

// List returns the events in seed order.
func (r *Registry) List() []types.EventRecord {
	r.lk.Lock()
	defer r.lk.Unlock()

	out := make([]types.EventRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.events[id])
	}
	return out
}

func (r *Registry) Get(id string) (types.EventRecord, bool) {
	r.lk.Lock()
	defer r.lk.Unlock()

	rec, ok := r.events[id]
	if !ok {
		return types.EventRecord{}, false
	}
	return *rec, true
}

// Register counts one more attendee for the event and returns the new count.
// The count is clamped at capacity; capacity is informational and never
// rejects the registration.
func (r *Registry) Register(id string) (int64, error) {
	r.lk.Lock()
	defer r.lk.Unlock()

	rec, ok := r.events[id]
	if !ok {
		return 0, fmt.Errorf("unknown event %s", id)
	}
	if rec.CurrentCount >= rec.Capacity {
		log.Warnf("event %s already at capacity %d, claim recorded without count", id, rec.Capacity)
		return rec.CurrentCount, nil
	}
	rec.CurrentCount++
	return rec.CurrentCount, nil
}
