package events

import (
	"errors"
	"testing"
	"time"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventImagesChanged)

	bus.Publish(NewImagesChangedEvent("f1", 40, 20, true))

	select {
	case received := <-ch:
		ev, ok := received.(*ImagesChangedEvent)
		if !ok {
			t.Fatal("Expected ImagesChangedEvent")
		}
		if ev.FolderID != "f1" {
			t.Errorf("Expected folder 'f1', got '%s'", ev.FolderID)
		}
		if ev.Loaded != 40 || ev.Appended != 20 || !ev.HasMore {
			t.Errorf("unexpected payload: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch1 := bus.Subscribe(EventFoldersChanged)
	ch2 := bus.Subscribe(EventFoldersChanged)

	bus.Publish(NewFoldersChangedEvent(2, "f2"))

	received1 := false
	received2 := false

	select {
	case <-ch1:
		received1 = true
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case <-ch2:
		received2 = true
	case <-time.After(100 * time.Millisecond):
	}

	if !received1 || !received2 {
		t.Error("Not all subscribers received the event")
	}
}

func TestEventBus_DifferentEventTypes(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	selCh := bus.Subscribe(EventSelectionChanged)
	moveCh := bus.Subscribe(EventMoveCompleted)

	bus.Publish(NewSelectionChangedEvent([]string{"a"}, 0))

	select {
	case <-selCh:
	case <-time.After(100 * time.Millisecond):
		t.Error("Selection subscriber didn't receive event")
	}

	select {
	case <-moveCh:
		t.Error("Move subscriber received wrong event type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	allCh := bus.SubscribeAll()

	bus.Publish(NewViewChangedEvent("f1"))
	bus.Publish(NewImagesInvalidatedEvent("f1"))

	count := 0
	for i := 0; i < 2; i++ {
		select {
		case <-allCh:
			count++
		case <-time.After(100 * time.Millisecond):
		}
	}

	if count != 2 {
		t.Errorf("Expected to receive 2 events, got %d", count)
	}
}

func TestEventBus_NonBlocking(t *testing.T) {
	bus := NewEventBus(2) // Small buffer
	defer bus.Close()

	ch := bus.Subscribe(EventUploadProgress)

	for i := 0; i < 10; i++ {
		bus.Publish(NewUploadProgressEvent("u1", "f1", i+1, 10, nil))
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		case <-time.After(10 * time.Millisecond):
			goto done
		}
	}
done:

	if count != 2 {
		t.Errorf("expected buffer-sized delivery of 2 events, got %d", count)
	}
	if bus.GetDroppedEventCount() != 8 {
		t.Errorf("expected 8 dropped events, got %d", bus.GetDroppedEventCount())
	}
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(10)

	ch := bus.Subscribe(EventMovePending)

	bus.Close()

	_, ok := <-ch
	if ok {
		t.Error("Channel should be closed after bus.Close()")
	}

	// Publishing after close should not panic
	bus.Publish(NewMoveEvent(EventMovePending, []string{"i1"}, "a", "b", nil))
}

func TestOrDiscard(t *testing.T) {
	var nilBus *EventBus
	p := OrDiscard(nilBus)
	if _, ok := p.(Discard); !ok {
		t.Errorf("typed-nil bus should map to Discard, got %T", p)
	}
	p.Publish(NewViewChangedEvent("x")) // must not panic

	if _, ok := OrDiscard(nil).(Discard); !ok {
		t.Error("nil publisher should map to Discard")
	}

	bus := NewEventBus(1)
	defer bus.Close()
	if OrDiscard(bus) != Publisher(bus) {
		t.Error("non-nil bus should be returned as is")
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level %d: expected %s, got %s", tt.level, tt.expected, got)
		}
	}
}

func TestPublishLog(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	logCh := bus.Subscribe(EventLog)
	boom := errors.New("boom")

	bus.PublishLog(WarnLevel, "batch failed", boom)

	select {
	case event := <-logCh:
		log, ok := event.(*LogEvent)
		if !ok {
			t.Fatal("Expected LogEvent")
		}
		if log.Message != "batch failed" || !errors.Is(log.Error, boom) {
			t.Errorf("unexpected log event: %+v", log)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for log event")
	}
}
