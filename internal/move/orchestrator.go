// Package move turns drag-and-drop gestures into confirmed server moves and
// keeps the image caches consistent afterwards.
package move

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/imgshelf/imgshelf/internal/events"
	"github.com/imgshelf/imgshelf/internal/logging"
	"github.com/imgshelf/imgshelf/internal/models"
)

// Errors returned by the orchestrator.
var (
	ErrNothingToMove = errors.New("nothing to move")
	ErrNoPendingMove = errors.New("no move waiting for confirmation")
	ErrSameFolder    = errors.New("source and target folder are the same")
	ErrNoDrag        = errors.New("no drag in progress")
	ErrNoSource      = errors.New("move request has no source folder")
)

// Mover is the part of api.Remote the orchestrator needs.
type Mover interface {
	MoveImages(ctx context.Context, imageIDs []string, targetFolderID string) error
}

// Invalidator evicts cached image pages.
type Invalidator interface {
	Invalidate(folderID string) bool
}

// Selection is the part of the selection model a drag reads and a move clears.
type Selection interface {
	IsSelected(key string) bool
	Selected() []string
	Clear()
}

// Orchestrator tracks one drag gesture at a time. A drop does not move
// anything by itself: it produces a pending request that must be confirmed.
type Orchestrator struct {
	remote Mover
	images Invalidator
	sel    Selection
	bus    events.Publisher
	logger *logging.Logger

	mu      sync.Mutex
	drag    *models.MoveRequest // keys and source recorded at drag start
	target  string              // highlighted drop target
	pending *models.MoveRequest
}

// NewOrchestrator creates a move orchestrator.
func NewOrchestrator(remote Mover, images Invalidator, sel Selection, bus events.Publisher, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Orchestrator{
		remote: remote,
		images: images,
		sel:    sel,
		bus:    events.OrDiscard(bus),
		logger: logger.Named("move"),
	}
}

// Plan resolves a drag of draggedKey out of sourceFolderID into a move request.
// When the dragged item is part of the selection the whole selection moves,
// otherwise only the dragged item does.
func (o *Orchestrator) Plan(draggedKey, sourceFolderID, targetFolderID string) (models.MoveRequest, error) {
	if draggedKey == "" {
		return models.MoveRequest{}, ErrNothingToMove
	}
	if sourceFolderID == targetFolderID {
		return models.MoveRequest{}, ErrSameFolder
	}

	keys := []string{draggedKey}
	if o.sel != nil && o.sel.IsSelected(draggedKey) {
		keys = o.sel.Selected()
	}
	return models.MoveRequest{
		ImageIDs:       keys,
		SourceFolderID: sourceFolderID,
		TargetFolderID: targetFolderID,
	}, nil
}

// DragStart records the keys a drag of draggedKey would move.
// A drag already in progress is replaced.
func (o *Orchestrator) DragStart(sourceFolderID, draggedKey string) error {
	if draggedKey == "" {
		return ErrNothingToMove
	}

	keys := []string{draggedKey}
	if o.sel != nil && o.sel.IsSelected(draggedKey) {
		keys = o.sel.Selected()
	}

	o.mu.Lock()
	o.drag = &models.MoveRequest{ImageIDs: keys, SourceFolderID: sourceFolderID}
	o.mu.Unlock()

	o.logger.Debug().Str("source", sourceFolderID).Int("images", len(keys)).Msg("drag started")
	return nil
}

// Dragging reports whether a drag is in progress.
func (o *Orchestrator) Dragging() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.drag != nil
}

// DragOver highlights folderID as the drop target. It has no cache effect.
func (o *Orchestrator) DragOver(folderID string) {
	o.setTarget(folderID, func(string) bool { return true })
}

// DragLeave removes the highlight if folderID is the highlighted target.
func (o *Orchestrator) DragLeave(folderID string) {
	o.setTarget("", func(current string) bool { return current == folderID })
}

// Target returns the highlighted drop target, or "".
func (o *Orchestrator) Target() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target
}

func (o *Orchestrator) setTarget(folderID string, when func(current string) bool) {
	o.mu.Lock()
	if o.drag == nil || !when(o.target) || o.target == folderID {
		o.mu.Unlock()
		return
	}
	o.target = folderID
	o.mu.Unlock()

	o.bus.Publish(events.NewDragTargetChangedEvent(folderID))
}

// Drop ends the drag over targetFolderID and stores the resulting request
// as pending. Nothing is sent until Confirm.
func (o *Orchestrator) Drop(targetFolderID string) (models.MoveRequest, error) {
	o.mu.Lock()
	drag := o.drag
	hadTarget := o.target != ""
	o.drag = nil
	o.target = ""
	if drag == nil {
		o.mu.Unlock()
		return models.MoveRequest{}, ErrNoDrag
	}
	if drag.SourceFolderID == targetFolderID {
		o.mu.Unlock()
		if hadTarget {
			o.bus.Publish(events.NewDragTargetChangedEvent(""))
		}
		return models.MoveRequest{}, ErrSameFolder
	}
	req := models.MoveRequest{
		ImageIDs:       drag.ImageIDs,
		SourceFolderID: drag.SourceFolderID,
		TargetFolderID: targetFolderID,
	}
	o.pending = &req
	o.mu.Unlock()

	if hadTarget {
		o.bus.Publish(events.NewDragTargetChangedEvent(""))
	}
	o.bus.Publish(events.NewMoveEvent(events.EventMovePending, req.ImageIDs, req.SourceFolderID, req.TargetFolderID, nil))
	return req, nil
}

// Pending returns the request waiting for confirmation.
func (o *Orchestrator) Pending() (models.MoveRequest, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return models.MoveRequest{}, false
	}
	return *o.pending, true
}

// Cancel abandons the pending request and any drag in progress.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	hadTarget := o.target != ""
	o.pending = nil
	o.drag = nil
	o.target = ""
	o.mu.Unlock()

	if hadTarget {
		o.bus.Publish(events.NewDragTargetChangedEvent(""))
	}
}

// Confirm executes the pending request. On failure it stays pending so the
// user can confirm again or cancel.
func (o *Orchestrator) Confirm(ctx context.Context) error {
	o.mu.Lock()
	if o.pending == nil {
		o.mu.Unlock()
		return ErrNoPendingMove
	}
	req := *o.pending
	o.mu.Unlock()

	if err := o.Execute(ctx, req); err != nil {
		return err
	}

	o.mu.Lock()
	o.pending = nil
	o.mu.Unlock()
	return nil
}

// Execute sends a move request. On success the source and target image
// pages are invalidated and the selection cleared; on failure nothing local
// changes. The source folder is required so its pages can be evicted.
func (o *Orchestrator) Execute(ctx context.Context, req models.MoveRequest) error {
	if len(req.ImageIDs) == 0 {
		return ErrNothingToMove
	}
	if req.SourceFolderID == "" {
		return ErrNoSource
	}
	if req.SourceFolderID == req.TargetFolderID {
		return ErrSameFolder
	}

	if err := o.remote.MoveImages(ctx, req.ImageIDs, req.TargetFolderID); err != nil {
		o.logger.Warn().Err(err).
			Str("source", req.SourceFolderID).
			Str("target", req.TargetFolderID).
			Int("images", len(req.ImageIDs)).
			Msg("move failed")
		o.bus.Publish(events.NewMoveEvent(events.EventMoveFailed, req.ImageIDs, req.SourceFolderID, req.TargetFolderID, err))
		return fmt.Errorf("move %d image(s): %w", len(req.ImageIDs), err)
	}

	o.images.Invalidate(req.SourceFolderID)
	o.images.Invalidate(req.TargetFolderID)
	if o.sel != nil {
		o.sel.Clear()
	}

	o.logger.Info().
		Str("source", req.SourceFolderID).
		Str("target", req.TargetFolderID).
		Int("images", len(req.ImageIDs)).
		Msg("images moved")
	o.bus.Publish(events.NewMoveEvent(events.EventMoveCompleted, req.ImageIDs, req.SourceFolderID, req.TargetFolderID, nil))
	return nil
}
