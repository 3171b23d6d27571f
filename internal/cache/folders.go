// Package cache holds the client-side copies of server state: the flat folder
// list and the per-folder paginated image collections.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/imgshelf/imgshelf/internal/events"
	"github.com/imgshelf/imgshelf/internal/logging"
	"github.com/imgshelf/imgshelf/internal/models"
)

// FolderLister is the part of api.Remote the folder cache needs.
type FolderLister interface {
	ListFolders(ctx context.Context) ([]models.Folder, error)
}

// FolderCache holds the folder list. Load replaces it from the server;
// the Apply* methods project the result of an earlier successful remote
// call onto the local copy and never perform I/O.
type FolderCache struct {
	remote FolderLister
	bus    events.Publisher
	logger *logging.Logger

	mu      sync.RWMutex
	folders []models.Folder
	loaded  bool
}

// NewFolderCache creates an empty folder cache.
func NewFolderCache(remote FolderLister, bus events.Publisher, logger *logging.Logger) *FolderCache {
	if logger == nil {
		logger = logging.Nop()
	}
	return &FolderCache{
		remote: remote,
		bus:    events.OrDiscard(bus),
		logger: logger.Named("folder-cache"),
	}
}

// Load fetches every folder and replaces the cached set.
// On failure the previous set is kept and the error is returned.
func (c *FolderCache) Load(ctx context.Context) ([]models.Folder, error) {
	folders, err := c.remote.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load folders: %w", err)
	}

	// Duplicate ids keep their first position, later copies win on content.
	deduped := make([]models.Folder, 0, len(folders))
	index := make(map[string]int, len(folders))
	for _, f := range folders {
		if i, ok := index[f.ID]; ok {
			deduped[i] = f
			continue
		}
		index[f.ID] = len(deduped)
		deduped = append(deduped, f)
	}

	c.mu.Lock()
	c.folders = deduped
	c.loaded = true
	out := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug().Int("count", len(out)).Msg("folders loaded")
	c.bus.Publish(events.NewFoldersChangedEvent(len(out), ""))
	return out, nil
}

// Loaded reports whether Load has succeeded at least once.
func (c *FolderCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// List returns a copy of the cached folders in display order.
func (c *FolderCache) List() []models.Folder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Get returns the cached folder with the given id.
func (c *FolderCache) Get(folderID string) (models.Folder, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(folderID); i >= 0 {
		return c.folders[i], true
	}
	return models.Folder{}, false
}

// ApplyCreated inserts a folder returned by a successful create call.
// A folder whose id is already cached is updated in place instead.
func (c *FolderCache) ApplyCreated(folder models.Folder) {
	c.mu.Lock()
	if i := c.indexLocked(folder.ID); i >= 0 {
		c.folders[i] = folder
	} else {
		c.folders = append(c.folders, folder)
	}
	n := len(c.folders)
	c.mu.Unlock()

	c.bus.Publish(events.NewFoldersChangedEvent(n, folder.ID))
}

// ApplyRenamed sets a cached folder's name. It reports whether the folder was cached.
func (c *FolderCache) ApplyRenamed(folderID, name string) bool {
	return c.update(folderID, func(f *models.Folder) { f.Name = name })
}

// ApplyNotesUpdated sets a cached folder's notes. It reports whether the folder was cached.
func (c *FolderCache) ApplyNotesUpdated(folderID, notes string) bool {
	return c.update(folderID, func(f *models.Folder) { f.Notes = notes })
}

// Clear drops every cached folder.
func (c *FolderCache) Clear() {
	c.mu.Lock()
	c.folders = nil
	c.loaded = false
	c.mu.Unlock()

	c.bus.Publish(events.NewFoldersChangedEvent(0, ""))
}

func (c *FolderCache) update(folderID string, fn func(*models.Folder)) bool {
	c.mu.Lock()
	i := c.indexLocked(folderID)
	if i < 0 {
		c.mu.Unlock()
		c.logger.Debug().Str("folder_id", folderID).Msg("update for uncached folder ignored")
		return false
	}
	fn(&c.folders[i])
	n := len(c.folders)
	c.mu.Unlock()

	c.bus.Publish(events.NewFoldersChangedEvent(n, folderID))
	return true
}

func (c *FolderCache) indexLocked(folderID string) int {
	for i := range c.folders {
		if c.folders[i].ID == folderID {
			return i
		}
	}
	return -1
}

func (c *FolderCache) snapshotLocked() []models.Folder {
	out := make([]models.Folder, len(c.folders))
	copy(out, c.folders)
	return out
}
