// Package selection tracks which items of the visible collection are selected,
// with click, shift-click range and select-all semantics.
package selection

import (
	"sync"

	"github.com/imgshelf/imgshelf/internal/events"
)

// Model is an observable selection over an ordered list of keys.
//
// The selection is always a subset of the visible keys. Replacing the
// visible collection with Reset clears it; Append extends the collection
// (a loaded page) and keeps it. Thread-safe for concurrent access.
type Model struct {
	bus events.Publisher

	mu        sync.RWMutex
	items     []string
	index     map[string]int
	selected  map[string]bool
	anchor    int
	hasAnchor bool
}

// New creates an empty selection model.
func New(bus events.Publisher) *Model {
	return &Model{
		bus:      events.OrDiscard(bus),
		index:    make(map[string]int),
		selected: make(map[string]bool),
	}
}

// Reset replaces the visible collection, clearing the selection and anchor.
func (m *Model) Reset(keys []string) {
	m.mu.Lock()
	m.items = m.items[:0]
	m.index = make(map[string]int, len(keys))
	m.addLocked(keys)
	m.selected = make(map[string]bool)
	m.hasAnchor = false
	m.mu.Unlock()

	m.publish()
}

// Append extends the visible collection without touching the selection.
// Keys already visible are skipped.
func (m *Model) Append(keys []string) {
	m.mu.Lock()
	m.addLocked(keys)
	m.mu.Unlock()
}

// Sync replaces the visible collection with a reloaded copy of the same one.
// Selected keys that are no longer visible are dropped; the anchor is
// dropped if it falls outside the new collection.
func (m *Model) Sync(keys []string) {
	m.mu.Lock()
	m.items = m.items[:0]
	m.index = make(map[string]int, len(keys))
	m.addLocked(keys)
	for key := range m.selected {
		if _, ok := m.index[key]; !ok {
			delete(m.selected, key)
		}
	}
	if m.hasAnchor && m.anchor >= len(m.items) {
		m.hasAnchor = false
	}
	m.mu.Unlock()

	m.publish()
}

// Items returns the visible keys in order.
func (m *Model) Items() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.items...)
}

// Toggle flips the membership of the item at index and makes it the anchor.
// It reports false when index is out of range.
func (m *Model) Toggle(index int) bool {
	m.mu.Lock()
	if !m.toggleLocked(index) {
		m.mu.Unlock()
		return false
	}
	m.mu.Unlock()

	m.publish()
	return true
}

// ToggleKey is Toggle addressed by key. It reports false for a key that is not visible.
func (m *Model) ToggleKey(key string) bool {
	m.mu.RLock()
	i, ok := m.index[key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return m.Toggle(i)
}

// RangeExtend adds every item between the anchor and index (inclusive) to
// the selection. The range is a union with what is already selected and the
// anchor stays where it is, so successive shift-clicks grow from the same
// point. Without an anchor it degrades to Toggle.
func (m *Model) RangeExtend(index int) bool {
	m.mu.Lock()
	if index < 0 || index >= len(m.items) {
		m.mu.Unlock()
		return false
	}
	if !m.hasAnchor || m.anchor >= len(m.items) {
		m.toggleLocked(index)
		m.mu.Unlock()
		m.publish()
		return true
	}

	lo, hi := m.anchor, index
	if lo > hi {
		lo, hi = hi, lo
	}
	for i := lo; i <= hi; i++ {
		m.selected[m.items[i]] = true
	}
	m.mu.Unlock()

	m.publish()
	return true
}

// SelectAll selects every visible item. The anchor is unchanged.
func (m *Model) SelectAll() {
	m.mu.Lock()
	for _, key := range m.items {
		m.selected[key] = true
	}
	m.mu.Unlock()

	m.publish()
}

// Clear deselects everything. The anchor is unchanged.
func (m *Model) Clear() {
	m.mu.Lock()
	m.selected = make(map[string]bool)
	m.mu.Unlock()

	m.publish()
}

// IsSelected reports whether key is selected.
func (m *Model) IsSelected(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected[key]
}

// Selected returns the selected keys in visible order.
func (m *Model) Selected() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectedLocked()
}

// Count returns the number of selected items.
func (m *Model) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.selected)
}

// Anchor returns the anchor index, if one is set.
func (m *Model) Anchor() (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.anchor, m.hasAnchor
}

func (m *Model) addLocked(keys []string) {
	for _, key := range keys {
		if _, ok := m.index[key]; ok {
			continue
		}
		m.index[key] = len(m.items)
		m.items = append(m.items, key)
	}
}

func (m *Model) toggleLocked(index int) bool {
	if index < 0 || index >= len(m.items) {
		return false
	}
	key := m.items[index]
	if m.selected[key] {
		delete(m.selected, key)
	} else {
		m.selected[key] = true
	}
	m.anchor = index
	m.hasAnchor = true
	return true
}

func (m *Model) selectedLocked() []string {
	out := make([]string, 0, len(m.selected))
	for _, key := range m.items {
		if m.selected[key] {
			out = append(out, key)
		}
	}
	return out
}

func (m *Model) publish() {
	m.mu.RLock()
	keys := m.selectedLocked()
	anchor := -1
	if m.hasAnchor {
		anchor = m.anchor
	}
	m.mu.RUnlock()

	m.bus.Publish(events.NewSelectionChangedEvent(keys, anchor))
}
