// Package apitest provides an in-memory api.Remote for engine tests.
package apitest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/imgshelf/imgshelf/internal/api"
	"github.com/imgshelf/imgshelf/internal/models"
)

// Fake is an in-memory Remote. Folders and images live in maps; pages are
// served in insertion order with the offset as cursor.
//
// Failures can be injected per operation with FailNext, and every call is
// counted so tests can assert the number of network round trips.
type Fake struct {
	mu      sync.Mutex
	folders []models.Folder
	images  map[string][]models.Image
	nextID  int

	calls    map[string]int
	failures map[string][]error

	// UploadHook, when set, decides the response for an upload batch.
	// Returning an error fails the whole batch.
	UploadHook func(folderID string, files []models.UploadFile) (*models.UploadResponse, error)

	// Block, when set, is waited on by ListImages before it answers.
	Block chan struct{}
}

var _ api.Remote = (*Fake)(nil)

// Operation names used by Calls and FailNext.
const (
	OpListFolders  = "ListFolders"
	OpCreateFolder = "CreateFolder"
	OpRenameFolder = "RenameFolder"
	OpUpdateNotes  = "UpdateFolderNotes"
	OpListImages   = "ListImages"
	OpUpload       = "UploadImages"
	OpMove         = "MoveImages"
	OpReplace      = "ReplaceImage"
	OpLogin        = "Login"
)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		images:   make(map[string][]models.Image),
		calls:    make(map[string]int),
		failures: make(map[string][]error),
	}
}

// AddFolder seeds a folder.
func (f *Fake) AddFolder(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.folders = append(f.folders, models.Folder{ID: id, Name: name, CreatedAt: time.Unix(0, 0).UTC()})
}

// AddImages seeds n images named <prefix>-<i>.jpg into a folder.
func (f *Fake) AddImages(folderID, prefix string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.images[folderID] = append(f.images[folderID], f.newImage(fmt.Sprintf("%s-%d.jpg", prefix, i+1)))
	}
}

// Images returns a copy of the images stored in a folder.
func (f *Fake) Images(folderID string) []models.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Image(nil), f.images[folderID]...)
}

// Calls reports how many times an operation was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// FailNext makes the next invocation of op return err. Queued errors are
// consumed in order.
func (f *Fake) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], err)
}

func (f *Fake) enter(op string) error {
	f.calls[op]++
	if q := f.failures[op]; len(q) > 0 {
		f.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (f *Fake) newImage(name string) models.Image {
	f.nextID++
	id := "img-" + strconv.Itoa(f.nextID)
	return models.Image{ID: id, FileName: name, URL: "https://cdn.test/" + id, ContentType: "image/jpeg"}
}

func (f *Fake) folderIndex(id string) int {
	for i := range f.folders {
		if f.folders[i].ID == id {
			return i
		}
	}
	return -1
}

// ListFolders implements api.Remote.
func (f *Fake) ListFolders(ctx context.Context) ([]models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpListFolders); err != nil {
		return nil, err
	}
	return append([]models.Folder{}, f.folders...), nil
}

// CreateFolder implements api.Remote.
func (f *Fake) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpCreateFolder); err != nil {
		return nil, err
	}
	f.nextID++
	folder := models.Folder{ID: "folder-" + strconv.Itoa(f.nextID), Name: name, CreatedAt: time.Now().UTC()}
	f.folders = append(f.folders, folder)
	return &folder, nil
}

// RenameFolder implements api.Remote.
func (f *Fake) RenameFolder(ctx context.Context, folderID, name string) (*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpRenameFolder); err != nil {
		return nil, err
	}
	i := f.folderIndex(folderID)
	if i < 0 {
		return nil, &api.StatusError{Op: "rename folder", StatusCode: 404}
	}
	f.folders[i].Name = name
	out := f.folders[i]
	return &out, nil
}

// UpdateFolderNotes implements api.Remote.
func (f *Fake) UpdateFolderNotes(ctx context.Context, folderID, notes string) (*models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpUpdateNotes); err != nil {
		return nil, err
	}
	i := f.folderIndex(folderID)
	if i < 0 {
		return nil, &api.StatusError{Op: "update folder notes", StatusCode: 404}
	}
	f.folders[i].Notes = notes
	out := f.folders[i]
	return &out, nil
}

// ListImages implements api.Remote.
func (f *Fake) ListImages(ctx context.Context, folderID string, pageSize int, cursor string) (*models.ImagePage, error) {
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpListImages); err != nil {
		return nil, err
	}

	all := f.images[folderID]
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 || n > len(all) {
			return nil, &api.StatusError{Op: "list images", StatusCode: 400, Body: "bad cursor"}
		}
		start = n
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	page := &models.ImagePage{Images: append([]models.Image{}, all[start:end]...)}
	if end < len(all) {
		page.HasMore = true
		page.NextKey = strconv.Itoa(end)
	}
	return page, nil
}

// UploadImages implements api.Remote.
func (f *Fake) UploadImages(ctx context.Context, folderID string, files []models.UploadFile) (*models.UploadResponse, error) {
	f.mu.Lock()
	if err := f.enter(OpUpload); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	hook := f.UploadHook
	f.mu.Unlock()

	if hook != nil {
		resp, err := hook(folderID, files)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.images[folderID] = append(f.images[folderID], resp.UploadedImages...)
		f.mu.Unlock()
		return resp, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &models.UploadResponse{}
	for _, file := range files {
		img := f.newImage(file.Name)
		img.FileSize = file.Size
		img.ContentType = file.Type
		f.images[folderID] = append(f.images[folderID], img)
		resp.UploadedImages = append(resp.UploadedImages, img)
	}
	return resp, nil
}

// MoveImages implements api.Remote.
func (f *Fake) MoveImages(ctx context.Context, imageIDs []string, targetFolderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpMove); err != nil {
		return err
	}

	wanted := make(map[string]bool, len(imageIDs))
	for _, id := range imageIDs {
		wanted[id] = true
	}

	folderIDs := make([]string, 0, len(f.images))
	for id := range f.images {
		folderIDs = append(folderIDs, id)
	}
	sort.Strings(folderIDs)

	var moved []models.Image
	for _, id := range folderIDs {
		if id == targetFolderID {
			continue
		}
		kept := f.images[id][:0]
		for _, img := range f.images[id] {
			if wanted[img.ID] {
				moved = append(moved, img)
			} else {
				kept = append(kept, img)
			}
		}
		f.images[id] = kept
	}
	f.images[targetFolderID] = append(f.images[targetFolderID], moved...)
	return nil
}

// ReplaceImage implements api.Remote.
func (f *Fake) ReplaceImage(ctx context.Context, imageID string, req models.ReplaceImageRequest) (*models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpReplace); err != nil {
		return nil, err
	}
	for folderID, imgs := range f.images {
		for i := range imgs {
			if imgs[i].ID == imageID {
				f.images[folderID][i].FileName = req.FileName
				f.images[folderID][i].ContentType = req.ContentType
				out := f.images[folderID][i]
				return &out, nil
			}
		}
	}
	return nil, &api.StatusError{Op: "replace image", StatusCode: 404}
}

// Login implements api.Remote. Any password other than "bad" succeeds.
func (f *Fake) Login(ctx context.Context, username, password string) (*models.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpLogin); err != nil {
		return nil, err
	}
	if password == "bad" {
		return nil, &api.StatusError{Op: "login", StatusCode: 401}
	}
	return &models.LoginResult{Token: "token-" + username, Username: username}, nil
}
