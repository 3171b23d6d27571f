// Package events carries the "something changed" notifications the browsing
// engine emits. Presentation layers subscribe to these instead of the engine
// calling back into them.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/imgshelf/imgshelf/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog EventType = "log"

	// Cache events
	EventFoldersChanged    EventType = "folders_changed"    // Folder Cache replaced or edited
	EventImagesChanged     EventType = "images_changed"     // Image page entry loaded or extended
	EventImagesInvalidated EventType = "images_invalidated" // Image page entry evicted

	// View events
	EventViewChanged      EventType = "view_changed"      // Current folder switched
	EventSelectionChanged EventType = "selection_changed" // Selection set or anchor changed

	// Upload events
	EventUploadProgress EventType = "upload_progress" // One batch resolved
	EventUploadComplete EventType = "upload_complete" // All batches resolved

	// Move events
	EventDragTargetChanged EventType = "drag_target_changed" // Highlighted drop target changed
	EventMovePending       EventType = "move_pending"        // Drop waiting for confirmation
	EventMoveCompleted     EventType = "move_completed"
	EventMoveFailed        EventType = "move_failed"
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

func newBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// LogEvent represents log messages meant for an activity pane
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	Error   error
}

// FoldersChangedEvent is published after the Folder Cache changed
type FoldersChangedEvent struct {
	BaseEvent
	Count    int
	FolderID string // set when a single folder was edited or created
}

// ImagesChangedEvent is published after a page load for a folder
type ImagesChangedEvent struct {
	BaseEvent
	FolderID string
	Loaded   int  // total images held for the folder
	Appended int  // images added by this load (equals Loaded on a first page)
	HasMore  bool // whether another page can be requested
}

// ImagesInvalidatedEvent is published when a folder's pages are evicted
type ImagesInvalidatedEvent struct {
	BaseEvent
	FolderID string
}

// ViewChangedEvent is published when the visible folder changes
type ViewChangedEvent struct {
	BaseEvent
	FolderID string
}

// SelectionChangedEvent is published when the selection changes
type SelectionChangedEvent struct {
	BaseEvent
	SelectedKeys []string
	Anchor       int // -1 when no anchor is set
}

// UploadProgressEvent is published after each upload batch resolves
type UploadProgressEvent struct {
	BaseEvent
	UploadID  string
	FolderID  string
	Processed int
	Total     int
	BatchErr  error // non-nil when the batch that just resolved failed
}

// UploadCompleteEvent is published when an upload call finishes
type UploadCompleteEvent struct {
	BaseEvent
	UploadID  string
	FolderID  string
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// DragTargetChangedEvent is published when the highlighted drop target changes.
// FolderID is empty when nothing is highlighted.
type DragTargetChangedEvent struct {
	BaseEvent
	FolderID string
}

// MoveEvent covers pending, completed and failed moves
type MoveEvent struct {
	BaseEvent
	ImageIDs       []string
	SourceFolderID string
	TargetFolderID string
	Error          error
}

// NewLogEvent creates a LogEvent.
func NewLogEvent(level LogLevel, message string, err error) *LogEvent {
	return &LogEvent{BaseEvent: newBase(EventLog), Level: level, Message: message, Error: err}
}

// NewFoldersChangedEvent creates a FoldersChangedEvent.
func NewFoldersChangedEvent(count int, folderID string) *FoldersChangedEvent {
	return &FoldersChangedEvent{BaseEvent: newBase(EventFoldersChanged), Count: count, FolderID: folderID}
}

// NewImagesChangedEvent creates an ImagesChangedEvent.
func NewImagesChangedEvent(folderID string, loaded, appended int, hasMore bool) *ImagesChangedEvent {
	return &ImagesChangedEvent{
		BaseEvent: newBase(EventImagesChanged),
		FolderID:  folderID,
		Loaded:    loaded,
		Appended:  appended,
		HasMore:   hasMore,
	}
}

// NewImagesInvalidatedEvent creates an ImagesInvalidatedEvent.
func NewImagesInvalidatedEvent(folderID string) *ImagesInvalidatedEvent {
	return &ImagesInvalidatedEvent{BaseEvent: newBase(EventImagesInvalidated), FolderID: folderID}
}

// NewViewChangedEvent creates a ViewChangedEvent.
func NewViewChangedEvent(folderID string) *ViewChangedEvent {
	return &ViewChangedEvent{BaseEvent: newBase(EventViewChanged), FolderID: folderID}
}

// NewSelectionChangedEvent creates a SelectionChangedEvent.
func NewSelectionChangedEvent(keys []string, anchor int) *SelectionChangedEvent {
	return &SelectionChangedEvent{BaseEvent: newBase(EventSelectionChanged), SelectedKeys: keys, Anchor: anchor}
}

// NewUploadProgressEvent creates an UploadProgressEvent.
func NewUploadProgressEvent(uploadID, folderID string, processed, total int, batchErr error) *UploadProgressEvent {
	return &UploadProgressEvent{
		BaseEvent: newBase(EventUploadProgress),
		UploadID:  uploadID,
		FolderID:  folderID,
		Processed: processed,
		Total:     total,
		BatchErr:  batchErr,
	}
}

// NewUploadCompleteEvent creates an UploadCompleteEvent.
func NewUploadCompleteEvent(uploadID, folderID string, succeeded, failed int, d time.Duration) *UploadCompleteEvent {
	return &UploadCompleteEvent{
		BaseEvent: newBase(EventUploadComplete),
		UploadID:  uploadID,
		FolderID:  folderID,
		Succeeded: succeeded,
		Failed:    failed,
		Duration:  d,
	}
}

// NewDragTargetChangedEvent creates a DragTargetChangedEvent.
func NewDragTargetChangedEvent(folderID string) *DragTargetChangedEvent {
	return &DragTargetChangedEvent{BaseEvent: newBase(EventDragTargetChanged), FolderID: folderID}
}

// NewMoveEvent creates a MoveEvent of the given type (pending, completed or failed).
func NewMoveEvent(t EventType, imageIDs []string, source, target string, err error) *MoveEvent {
	return &MoveEvent{
		BaseEvent:      newBase(t),
		ImageIDs:       imageIDs,
		SourceFolderID: source,
		TargetFolderID: target,
		Error:          err,
	}
}

// Publisher is the publishing half of the bus. Engine components depend on
// this rather than on *EventBus so a nil-safe no-op can stand in.
type Publisher interface {
	Publish(event Event)
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking.
// Events are dropped for subscribers whose buffer is full.
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message string, err error) {
	eb.Publish(NewLogEvent(level, message, err))
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}

// Discard is a Publisher that drops every event.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(Event) {}

// OrDiscard returns p, or Discard when p is nil (including a typed-nil *EventBus).
func OrDiscard(p Publisher) Publisher {
	if p == nil {
		return Discard{}
	}
	if eb, ok := p.(*EventBus); ok && eb == nil {
		return Discard{}
	}
	return p
}
