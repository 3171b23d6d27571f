package models

// UploadFile is a file descriptor ready for transfer.
// Content is base64 encoded; Size is the approximate original byte size.
type UploadFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
}

// UploadRequest is the body of one uploadImages batch
type UploadRequest struct {
	Files []UploadFile `json:"files"`
}

// FailedUpload reports one file that did not make it
type FailedUpload struct {
	FileName string `json:"fileName"`
	Error    string `json:"error"`
}

// UploadResponse is the result of one uploadImages batch
type UploadResponse struct {
	UploadedImages []Image        `json:"uploadedImages"`
	FailedUploads  []FailedUpload `json:"failedUploads"`
}
