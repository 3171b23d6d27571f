package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/imgshelf/imgshelf/internal/constants"
	"github.com/imgshelf/imgshelf/internal/events"
	"github.com/imgshelf/imgshelf/internal/logging"
	"github.com/imgshelf/imgshelf/internal/models"
)

var (
	// ErrNoMorePages is returned by LoadMore when the folder has no further page.
	ErrNoMorePages = errors.New("no more pages")

	// ErrLoadInFlight is returned when a load for the same folder has not resolved yet.
	// Cursors are single-use, so pagination calls on one folder must not overlap.
	ErrLoadInFlight = errors.New("a load for this folder is already in flight")

	// ErrInvalidated is returned by LoadMore when the entry it was extending
	// was evicted while the page was in flight. The page is discarded.
	ErrInvalidated = errors.New("cache entry invalidated while loading")
)

// ImageLister is the part of api.Remote the image page cache needs.
type ImageLister interface {
	ListImages(ctx context.Context, folderID string, pageSize int, cursor string) (*models.ImagePage, error)
}

// Entry is the loaded portion of one folder's images.
// Entries are immutable once published; loads replace them wholesale.
type Entry struct {
	FolderID string
	Images   []models.Image
	HasMore  bool
	NextKey  string
	Pages    int
}

// Len returns the number of loaded images.
func (e *Entry) Len() int {
	return len(e.Images)
}

// Keys returns the image ids in display order.
func (e *Entry) Keys() []string {
	keys := make([]string, len(e.Images))
	for i, img := range e.Images {
		keys[i] = img.ID
	}
	return keys
}

// Index returns the position of imageID, or -1.
func (e *Entry) Index(imageID string) int {
	for i, img := range e.Images {
		if img.ID == imageID {
			return i
		}
	}
	return -1
}

// Filter returns the loaded images whose file name contains substr,
// ignoring case. An empty substr matches everything.
func (e *Entry) Filter(substr string) []models.Image {
	needle := strings.ToLower(strings.TrimSpace(substr))
	if needle == "" {
		return append([]models.Image(nil), e.Images...)
	}
	var out []models.Image
	for _, img := range e.Images {
		if strings.Contains(strings.ToLower(img.FileName), needle) {
			out = append(out, img)
		}
	}
	return out
}

// ImagePageCache keeps one Entry per folder.
type ImagePageCache struct {
	remote ImageLister
	bus    events.Publisher
	logger *logging.Logger

	mu       sync.Mutex
	entries  map[string]*Entry
	inflight map[string]bool
	gens     map[string]uint64 // bumped on every invalidation
}

// NewImagePageCache creates an empty image page cache.
func NewImagePageCache(remote ImageLister, bus events.Publisher, logger *logging.Logger) *ImagePageCache {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ImagePageCache{
		remote:   remote,
		bus:      events.OrDiscard(bus),
		logger:   logger.Named("image-cache"),
		entries:  make(map[string]*Entry),
		inflight: make(map[string]bool),
		gens:     make(map[string]uint64),
	}
}

// Get returns the cached entry for a folder.
func (c *ImagePageCache) Get(folderID string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[folderID]
	return e, ok
}

// InFlight reports whether a load for the folder has not resolved yet.
func (c *ImagePageCache) InFlight(folderID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[folderID]
}

// Load returns the cached entry for a folder, fetching the first page only
// when nothing is cached.
//
// If the folder is invalidated while the first page is in flight the fresh
// page is still returned but not cached.
func (c *ImagePageCache) Load(ctx context.Context, folderID string, pageSize int) (*Entry, error) {
	c.mu.Lock()
	if e, ok := c.entries[folderID]; ok {
		c.mu.Unlock()
		return e, nil
	}
	if c.inflight[folderID] {
		c.mu.Unlock()
		return nil, ErrLoadInFlight
	}
	c.inflight[folderID] = true
	gen := c.gens[folderID]
	c.mu.Unlock()

	page, err := c.fetch(ctx, folderID, pageSize, "")

	c.mu.Lock()
	delete(c.inflight, folderID)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("load images for folder %s: %w", folderID, err)
	}

	entry := &Entry{
		FolderID: folderID,
		Images:   append([]models.Image(nil), page.Images...),
		HasMore:  page.HasMore,
		NextKey:  page.NextKey,
		Pages:    1,
	}
	if c.gens[folderID] != gen {
		c.mu.Unlock()
		c.logger.Debug().Str("folder_id", folderID).Msg("folder invalidated during load, result not cached")
		return entry, nil
	}
	c.entries[folderID] = entry
	c.mu.Unlock()

	c.bus.Publish(events.NewImagesChangedEvent(folderID, entry.Len(), entry.Len(), entry.HasMore))
	return entry, nil
}

// LoadMore fetches the page after the cached entry and appends it.
// With nothing cached it behaves like Load.
func (c *ImagePageCache) LoadMore(ctx context.Context, folderID string, pageSize int) (*Entry, error) {
	c.mu.Lock()
	base, ok := c.entries[folderID]
	if !ok {
		c.mu.Unlock()
		return c.Load(ctx, folderID, pageSize)
	}
	if c.inflight[folderID] {
		c.mu.Unlock()
		return nil, ErrLoadInFlight
	}
	if !base.HasMore {
		c.mu.Unlock()
		return nil, ErrNoMorePages
	}
	c.inflight[folderID] = true
	c.mu.Unlock()

	page, err := c.fetch(ctx, folderID, pageSize, base.NextKey)

	c.mu.Lock()
	delete(c.inflight, folderID)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("load more images for folder %s: %w", folderID, err)
	}
	if c.entries[folderID] != base {
		c.mu.Unlock()
		return nil, ErrInvalidated
	}

	images := make([]models.Image, 0, len(base.Images)+len(page.Images))
	images = append(images, base.Images...)
	seen := make(map[string]bool, len(base.Images))
	for _, img := range base.Images {
		seen[img.ID] = true
	}
	appended := 0
	for _, img := range page.Images {
		if seen[img.ID] {
			continue
		}
		seen[img.ID] = true
		images = append(images, img)
		appended++
	}

	entry := &Entry{
		FolderID: folderID,
		Images:   images,
		HasMore:  page.HasMore,
		NextKey:  page.NextKey,
		Pages:    base.Pages + 1,
	}
	c.entries[folderID] = entry
	c.mu.Unlock()

	if appended != len(page.Images) {
		c.logger.Warn().
			Str("folder_id", folderID).
			Int("duplicates", len(page.Images)-appended).
			Msg("page repeated already loaded images")
	}
	c.bus.Publish(events.NewImagesChangedEvent(folderID, entry.Len(), appended, entry.HasMore))
	return entry, nil
}

// Invalidate evicts a folder's entry so the next Load hits the network.
// It reports whether an entry was cached.
func (c *ImagePageCache) Invalidate(folderID string) bool {
	c.mu.Lock()
	_, ok := c.entries[folderID]
	delete(c.entries, folderID)
	c.gens[folderID]++
	c.mu.Unlock()

	c.bus.Publish(events.NewImagesInvalidatedEvent(folderID))
	return ok
}

// Clear evicts every entry. Loads still in flight are invalidated too, so
// their results are not cached when they resolve.
func (c *ImagePageCache) Clear() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.entries)+len(c.inflight))
	for id := range c.entries {
		ids = append(ids, id)
	}
	for id := range c.inflight {
		if _, ok := c.entries[id]; !ok {
			ids = append(ids, id)
		}
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.Invalidate(id)
	}
}

func (c *ImagePageCache) fetch(ctx context.Context, folderID string, pageSize int, cursor string) (*models.ImagePage, error) {
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	page, err := c.remote.ListImages(ctx, folderID, pageSize, cursor)
	if err != nil {
		return nil, err
	}
	switch {
	case !page.HasMore:
		page.NextKey = ""
	case page.NextKey == "":
		// An empty cursor would ask for the first page again.
		c.logger.Warn().
			Str("folder_id", folderID).
			Msg("page reported more images without a cursor, treating folder as complete")
		page.HasMore = false
	}
	c.logger.Debug().
		Str("folder_id", folderID).
		Int("count", len(page.Images)).
		Bool("has_more", page.HasMore).
		Msg("page fetched")
	return page, nil
}
