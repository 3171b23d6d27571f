package models

// Image is a stored image inside a folder.
// ID is the storage identity; FileName is display-only and may repeat within a folder.
type Image struct {
	ID          string `json:"imageId"`
	FileName    string `json:"fileName"`
	URL         string `json:"url"`
	FileSize    int64  `json:"fileSize"`
	ContentType string `json:"contentType"`
}

// ImagePage is one page of a paginated listImages call.
// NextKey is opaque and only valid for requesting the immediately following page.
type ImagePage struct {
	Images  []Image `json:"images"`
	HasMore bool    `json:"hasMore"`
	NextKey string  `json:"nextKey,omitempty"`
}

// ReplaceImageRequest is the body of an in-place replaceImage call.
// Content is base64 encoded.
type ReplaceImageRequest struct {
	Content     string `json:"content"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}
