package models

// MoveRequest is a resolved drag-and-drop gesture.
// SourceFolderID is not sent on the wire; it is kept so the
// source folder's cached pages can be invalidated after the move.
type MoveRequest struct {
	ImageIDs       []string `json:"imageIds"`
	TargetFolderID string   `json:"targetFolderId"`
	SourceFolderID string   `json:"-"`
}

// MoveResponse acknowledges a move
type MoveResponse struct {
	Moved int `json:"moved"`
}
