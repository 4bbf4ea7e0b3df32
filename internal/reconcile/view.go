// Package reconcile keeps an in-process read view consistent across three
// write paths: optimistic local mutations, their later confirmations, and
// changefeed rows pushed by the database. Local writes stage a provisional
// entry under a caller-generated correlation key; once the write round-trips,
// the confirmed row replaces the provisional one. Rows arriving from the
// changefeed always win (last writer wins by arrival order).
package reconcile

import "sync"

// Entry is anything the view can hold. RowID returns the row's durable
// identity, or "" while the entry is provisional and unbound.
type Entry interface {
	RowID() string
}

// View is a concurrency-safe reconciled collection of T.
type View[T Entry] struct {
	mu          sync.RWMutex
	confirmed   map[string]T // keyed by row id
	provisional map[string]T // keyed by correlation key
	bindings    map[string]string // correlation key -> row id
	order       []string          // row ids in first-seen order
}

// NewView returns an empty view.
func NewView[T Entry]() *View[T] {
	return &View[T]{
		confirmed:   make(map[string]T),
		provisional: make(map[string]T),
		bindings:    make(map[string]string),
	}
}

// StageLocal records a provisional entry for an in-flight local write.
// It remains visible in Snapshot until confirmed, discarded, or superseded
// by a changefeed row for the same identity.
func (v *View[T]) StageLocal(correlation string, entry T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.provisional[correlation] = entry
}

// Bind associates a correlation key with the row id the write was assigned,
// so the matching changefeed arrival can retire the provisional entry.
func (v *View[T]) Bind(correlation, rowID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.provisional[correlation]; ok {
		v.bindings[correlation] = rowID
	}
}

// Confirm replaces the provisional entry for correlation with the
// authoritative row returned by the write.
func (v *View[T]) Confirm(correlation string, entry T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.provisional, correlation)
	delete(v.bindings, correlation)
	v.upsert(entry)
}

// Discard drops a provisional entry whose write failed.
func (v *View[T]) Discard(correlation string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.provisional, correlation)
	delete(v.bindings, correlation)
}

// ApplyRemote applies an authoritative row from the changefeed. Any
// provisional entry bound to the same row id is retired.
func (v *View[T]) ApplyRemote(entry T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := entry.RowID()
	for correlation, bound := range v.bindings {
		if bound == id {
			delete(v.provisional, correlation)
			delete(v.bindings, correlation)
		}
	}
	v.upsert(entry)
}

// Delete removes a confirmed row, typically on a changefeed DELETE.
func (v *View[T]) Delete(rowID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.confirmed[rowID]; !ok {
		return
	}
	delete(v.confirmed, rowID)
	for i, id := range v.order {
		if id == rowID {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
}

// Get returns the confirmed row with the given id.
func (v *View[T]) Get(rowID string) (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	entry, ok := v.confirmed[rowID]
	return entry, ok
}

// Snapshot returns confirmed rows in first-seen order followed by any
// still-provisional entries.
func (v *View[T]) Snapshot() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]T, 0, len(v.confirmed)+len(v.provisional))
	for _, id := range v.order {
		out = append(out, v.confirmed[id])
	}
	for _, entry := range v.provisional {
		out = append(out, entry)
	}
	return out
}

// Len counts confirmed plus provisional entries.
func (v *View[T]) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.confirmed) + len(v.provisional)
}

// upsert assumes v.mu is held.
func (v *View[T]) upsert(entry T) {
	id := entry.RowID()
	if _, ok := v.confirmed[id]; !ok {
		v.order = append(v.order, id)
	}
	v.confirmed[id] = entry
}
