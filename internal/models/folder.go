package models

import "time"

// Folder is a top-level named container of images.
type Folder struct {
	ID        string    `json:"folderId"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	Notes     string    `json:"notes"`
}

// FolderList is the listFolders response envelope
type FolderList struct {
	Folders []Folder `json:"folders"`
}

// CreateFolderRequest is the body of a createFolder call
type CreateFolderRequest struct {
	Name string `json:"name"`
}

// RenameFolderRequest is the body of a renameFolder call
type RenameFolderRequest struct {
	Name string `json:"name"`
}

// FolderNotesRequest is the body of an updateFolderNotes call
type FolderNotesRequest struct {
	Notes string `json:"notes"`
}
