package api

import (
	"context"

	"github.com/imgshelf/imgshelf/internal/models"
)

// Remote is the surface of the images API the browsing engine consumes.
// Implementations fail with errors matching ErrAuthRequired, ErrNotFound or
// ErrTransport; they do not manage tokens beyond sending the one they hold.
type Remote interface {
	ListFolders(ctx context.Context) ([]models.Folder, error)
	CreateFolder(ctx context.Context, name string) (*models.Folder, error)
	RenameFolder(ctx context.Context, folderID, name string) (*models.Folder, error)
	UpdateFolderNotes(ctx context.Context, folderID, notes string) (*models.Folder, error)

	// ListImages fetches one page. An empty cursor requests the first page.
	ListImages(ctx context.Context, folderID string, pageSize int, cursor string) (*models.ImagePage, error)

	// UploadImages sends one batch. Per-file failures reported by the server
	// come back in the response; a returned error fails the whole batch.
	UploadImages(ctx context.Context, folderID string, files []models.UploadFile) (*models.UploadResponse, error)

	MoveImages(ctx context.Context, imageIDs []string, targetFolderID string) error
	ReplaceImage(ctx context.Context, imageID string, req models.ReplaceImageRequest) (*models.Image, error)

	Login(ctx context.Context, username, password string) (*models.LoginResult, error)
}
