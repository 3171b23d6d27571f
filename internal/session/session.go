// Package session owns one instance of every browsing component and runs the
// user-level commands against them: navigate, page, create, rename, upload,
// replace and move.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/imgshelf/imgshelf/internal/api"
	"github.com/imgshelf/imgshelf/internal/cache"
	"github.com/imgshelf/imgshelf/internal/constants"
	"github.com/imgshelf/imgshelf/internal/events"
	"github.com/imgshelf/imgshelf/internal/logging"
	"github.com/imgshelf/imgshelf/internal/models"
	"github.com/imgshelf/imgshelf/internal/move"
	"github.com/imgshelf/imgshelf/internal/selection"
	"github.com/imgshelf/imgshelf/internal/upload"
	"github.com/imgshelf/imgshelf/internal/validation"
)

var (
	// ErrStaleResponse is returned when a load resolved for a folder that is
	// no longer the one on screen. The cache keeps the result; the view does not.
	ErrStaleResponse = errors.New("response is for a folder no longer in view")

	// ErrNoFolder is returned by view commands when no folder is open.
	ErrNoFolder = errors.New("no folder open")

	// ErrEmptyName is returned when creating or renaming a folder to a blank name.
	ErrEmptyName = validation.ErrEmptyName
)

// Option configures a Session.
type Option func(*Session)

// WithEventBus publishes every component's events on bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(s *Session) { s.bus = bus }
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithPageSize sets the number of images requested per page.
func WithPageSize(n int) Option {
	return func(s *Session) { s.pageSize = n }
}

// WithUploadCeiling sets the per-batch upload size limit in bytes.
func WithUploadCeiling(n int64) Option {
	return func(s *Session) { s.ceiling = n }
}

// Session is the engine context for one signed-in user.
type Session struct {
	remote   api.Remote
	bus      *events.EventBus
	logger   *logging.Logger
	pageSize int
	ceiling  int64

	Folders   *cache.FolderCache
	Images    *cache.ImagePageCache
	Selection *selection.Model
	Uploader  *upload.Uploader
	Mover     *move.Orchestrator

	mu      sync.Mutex
	current string
}

// New builds a session around remote.
func New(remote api.Remote, opts ...Option) *Session {
	s := &Session{
		remote:   remote,
		pageSize: constants.DefaultPageSize,
		ceiling:  constants.UploadCeilingBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if s.pageSize < 1 {
		s.pageSize = constants.DefaultPageSize
	}
	if s.pageSize > constants.MaxPageSize {
		s.pageSize = constants.MaxPageSize
	}

	pub := events.OrDiscard(s.bus)
	s.Folders = cache.NewFolderCache(remote, pub, s.logger)
	s.Images = cache.NewImagePageCache(remote, pub, s.logger)
	s.Selection = selection.New(pub)
	s.Uploader = upload.NewUploader(remote, s.ceiling, pub, s.logger)
	s.Mover = move.NewOrchestrator(remote, s.Images, s.Selection, pub, s.logger)
	return s
}

// Events returns the bus the session publishes on, or nil.
func (s *Session) Events() *events.EventBus {
	return s.bus
}

// PageSize returns the page size used for image loads.
func (s *Session) PageSize() int {
	return s.pageSize
}

// CurrentFolder returns the id of the folder in view, or "".
func (s *Session) CurrentFolder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) isCurrent(folderID string) bool {
	return s.CurrentFolder() == folderID
}

// LoadFolders refreshes the folder list.
func (s *Session) LoadFolders(ctx context.Context) ([]models.Folder, error) {
	return s.Folders.Load(ctx)
}

// OpenFolder switches the view to folderID, clearing the selection, and
// loads its first page (from cache when present). If the user navigated
// elsewhere before the page arrived, the page is cached but the view is
// left alone and ErrStaleResponse is returned with the entry.
func (s *Session) OpenFolder(ctx context.Context, folderID string) (*cache.Entry, error) {
	s.mu.Lock()
	changed := s.current != folderID
	s.current = folderID
	s.mu.Unlock()

	if changed {
		s.Selection.Reset(nil)
		s.publish(events.NewViewChangedEvent(folderID))
	}

	entry, err := s.Images.Load(ctx, folderID, s.pageSize)
	if err != nil {
		return nil, err
	}
	if !s.isCurrent(folderID) {
		return entry, ErrStaleResponse
	}
	if changed {
		s.Selection.Reset(entry.Keys())
	} else {
		s.Selection.Sync(entry.Keys())
	}
	return entry, nil
}

// LoadMore appends the next page of the folder in view. A second call while
// one is in flight fails with cache.ErrLoadInFlight.
func (s *Session) LoadMore(ctx context.Context) (*cache.Entry, error) {
	folderID := s.CurrentFolder()
	if folderID == "" {
		return nil, ErrNoFolder
	}

	entry, err := s.Images.LoadMore(ctx, folderID, s.pageSize)
	if err != nil {
		return nil, err
	}
	if !s.isCurrent(folderID) {
		return entry, ErrStaleResponse
	}
	s.Selection.Append(entry.Keys())
	return entry, nil
}

// LoadAll pages through the folder in view until nothing is left.
func (s *Session) LoadAll(ctx context.Context) (*cache.Entry, error) {
	folderID := s.CurrentFolder()
	if folderID == "" {
		return nil, ErrNoFolder
	}

	entry, err := s.OpenFolder(ctx, folderID)
	for err == nil && entry.HasMore {
		loaded := entry.Len()
		entry, err = s.LoadMore(ctx)
		if err == nil && entry.Len() == loaded {
			s.logger.Warn().
				Str("folder_id", folderID).
				Int("loaded", loaded).
				Msg("page added no new images, stopping")
			break
		}
	}
	return entry, err
}

// Refresh evicts the folder in view and loads it again.
func (s *Session) Refresh(ctx context.Context) (*cache.Entry, error) {
	folderID := s.CurrentFolder()
	if folderID == "" {
		return nil, ErrNoFolder
	}
	s.Images.Invalidate(folderID)
	entry, err := s.Images.Load(ctx, folderID, s.pageSize)
	if err != nil {
		return nil, err
	}
	if !s.isCurrent(folderID) {
		return entry, ErrStaleResponse
	}
	s.Selection.Sync(entry.Keys())
	return entry, nil
}

// CreateFolder creates a folder on the server and adds it to the folder cache.
func (s *Session) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	name, err := validation.FolderName(name)
	if err != nil {
		return nil, err
	}
	folder, err := s.remote.CreateFolder(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	s.Folders.ApplyCreated(*folder)
	return folder, nil
}

// RenameFolder renames a folder on the server, then in the cache.
func (s *Session) RenameFolder(ctx context.Context, folderID, name string) (*models.Folder, error) {
	name, err := validation.FolderName(name)
	if err != nil {
		return nil, err
	}
	folder, err := s.remote.RenameFolder(ctx, folderID, name)
	if err != nil {
		return nil, fmt.Errorf("rename folder: %w", err)
	}
	if !s.Folders.ApplyRenamed(folderID, folder.Name) {
		s.Folders.ApplyCreated(*folder)
	}
	return folder, nil
}

// UpdateNotes replaces a folder's notes on the server, then in the cache.
func (s *Session) UpdateNotes(ctx context.Context, folderID, notes string) (*models.Folder, error) {
	folder, err := s.remote.UpdateFolderNotes(ctx, folderID, notes)
	if err != nil {
		return nil, fmt.Errorf("update notes: %w", err)
	}
	if !s.Folders.ApplyNotesUpdated(folderID, folder.Notes) {
		s.Folders.ApplyCreated(*folder)
	}
	return folder, nil
}

// Upload sends files to folderID and invalidates its pages if anything
// arrived. Per-file failures are in the result; see upload.Result.Err.
func (s *Session) Upload(ctx context.Context, folderID string, files []upload.File, onProgress upload.ProgressFunc) (*upload.Result, error) {
	result, err := s.Uploader.Upload(ctx, folderID, files, onProgress)
	if err != nil {
		return nil, err
	}
	if len(result.Succeeded) > 0 {
		s.Images.Invalidate(folderID)
	}
	return result, nil
}

// ReplaceImage swaps the content of imageID in folderID and invalidates the folder.
func (s *Session) ReplaceImage(ctx context.Context, folderID, imageID string, file upload.File) (*models.Image, error) {
	typ := file.Type
	if typ == "" {
		typ = upload.DetectType(file.Data)
	}
	img, err := s.remote.ReplaceImage(ctx, imageID, models.ReplaceImageRequest{
		Content:     base64.StdEncoding.EncodeToString(file.Data),
		FileName:    file.Name,
		ContentType: typ,
	})
	if err != nil {
		return nil, fmt.Errorf("replace image: %w", err)
	}
	s.Images.Invalidate(folderID)
	return img, nil
}

// Move executes a move request right away, bypassing the drag confirmation gate.
func (s *Session) Move(ctx context.Context, req models.MoveRequest) error {
	return s.Mover.Execute(ctx, req)
}

// Logout drops every cached folder, page and selection.
func (s *Session) Logout() {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()

	s.Mover.Cancel()
	s.Selection.Reset(nil)
	s.Images.Clear()
	s.Folders.Clear()
}

func (s *Session) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
