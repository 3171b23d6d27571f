package selection

import (
	"reflect"
	"testing"
	"time"

	"github.com/imgshelf/imgshelf/internal/events"
)

func keys(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a' + i))
	}
	return out
}

func TestModel_Toggle(t *testing.T) {
	m := New(nil)
	m.Reset(keys(4))

	if !m.Toggle(1) {
		t.Fatal("Toggle(1) = false")
	}
	if !m.IsSelected("b") {
		t.Error("b should be selected")
	}
	if a, ok := m.Anchor(); !ok || a != 1 {
		t.Errorf("Anchor() = %d, %v; want 1, true", a, ok)
	}

	m.Toggle(1)
	if m.IsSelected("b") {
		t.Error("b should be deselected after second toggle")
	}
	if m.Toggle(9) {
		t.Error("Toggle out of range should report false")
	}
	if m.ToggleKey("zz") {
		t.Error("ToggleKey for invisible key should report false")
	}
	if !m.ToggleKey("d") || !m.IsSelected("d") {
		t.Error("ToggleKey(d) should select d")
	}
}

func TestModel_RangeSelectionIsUnion(t *testing.T) {
	items := keys(8)
	m := New(nil)
	m.Reset(items)

	// Plain click on index 2 sets the anchor; shift-click 5 selects 2..5.
	m.Toggle(2)
	m.RangeExtend(5)
	if got, want := m.Selected(), items[2:6]; !reflect.DeepEqual(got, want) {
		t.Errorf("after first range: %v, want %v", got, want)
	}

	// Shift-click 0 grows from the same anchor and keeps 3..5.
	m.RangeExtend(0)
	if got, want := m.Selected(), items[0:6]; !reflect.DeepEqual(got, want) {
		t.Errorf("after second range: %v, want %v", got, want)
	}
	if a, _ := m.Anchor(); a != 2 {
		t.Errorf("anchor moved to %d, want 2", a)
	}
}

func TestModel_RangeExtendWithoutAnchorToggles(t *testing.T) {
	m := New(nil)
	m.Reset(keys(5))

	m.RangeExtend(3)
	if got := m.Selected(); !reflect.DeepEqual(got, []string{"d"}) {
		t.Errorf("Selected() = %v, want [d]", got)
	}
	if a, ok := m.Anchor(); !ok || a != 3 {
		t.Errorf("Anchor() = %d, %v; want 3, true", a, ok)
	}
}

func TestModel_SelectAllAndClear(t *testing.T) {
	m := New(nil)
	m.Reset(keys(3))

	m.SelectAll()
	if m.Count() != 3 {
		t.Errorf("Count() = %d, want 3", m.Count())
	}
	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count() = %d after Clear, want 0", m.Count())
	}
}

func TestModel_ResetClearsSelectionAndAnchor(t *testing.T) {
	m := New(nil)
	m.Reset(keys(3))
	m.Toggle(0)

	m.Reset([]string{"x", "y"})

	if m.Count() != 0 {
		t.Error("selection should be empty after Reset")
	}
	if _, ok := m.Anchor(); ok {
		t.Error("anchor should be cleared after Reset")
	}
	if got := m.Items(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Items() = %v", got)
	}
}

func TestModel_AppendKeepsSelection(t *testing.T) {
	m := New(nil)
	m.Reset([]string{"a", "b"})
	m.Toggle(1)

	m.Append([]string{"b", "c", "d"})

	if got := m.Items(); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("Items() = %v", got)
	}
	if !m.IsSelected("b") {
		t.Error("selection lost on Append")
	}

	m.RangeExtend(3)
	if got := m.Selected(); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("Selected() = %v, want [b c d]", got)
	}
}

func TestModel_PublishesSelectionChanged(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventSelectionChanged)

	m := New(bus)
	m.Reset(keys(3))
	<-ch // reset

	m.Toggle(2)

	select {
	case e := <-ch:
		ev := e.(*events.SelectionChangedEvent)
		if !reflect.DeepEqual(ev.SelectedKeys, []string{"c"}) || ev.Anchor != 2 {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for selection event")
	}
}

func TestModel_SyncDropsVanishedKeys(t *testing.T) {
	m := New(nil)
	m.Reset([]string{"a", "b", "c", "d"})
	m.Toggle(1)
	m.Toggle(3)

	m.Sync([]string{"a", "b", "c"})

	if got := m.Selected(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Selected() = %v, want [b]", got)
	}
	if _, ok := m.Anchor(); ok {
		t.Error("anchor at index 3 should be dropped for a 3-item collection")
	}
}
