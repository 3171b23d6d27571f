// Package upload packs files into size-bounded batches and sends them one
// batch at a time, collecting per-file outcomes.
package upload

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/imgshelf/imgshelf/internal/constants"
	"github.com/imgshelf/imgshelf/internal/models"
)

// File is a raw file waiting to be encoded.
type File struct {
	Name string
	Type string // detected from Data when empty
	Data []byte
}

// EncodedSize approximates the original byte size from a base64 length.
func EncodedSize(encoded string) int64 {
	return int64(float64(len(encoded)) * constants.EncodedSizeFactor)
}

// Encode converts a raw file into a transfer descriptor.
func Encode(f File) models.UploadFile {
	content := base64.StdEncoding.EncodeToString(f.Data)
	typ := f.Type
	if typ == "" {
		typ = DetectType(f.Data)
	}
	return models.UploadFile{
		Name:    f.Name,
		Content: content,
		Type:    typ,
		Size:    EncodedSize(content),
	}
}

// DetectType sniffs a MIME type from file content.
func DetectType(data []byte) string {
	return mimetype.Detect(data).String()
}

// ReadFile loads a local file for upload.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{
		Name: filepath.Base(path),
		Type: DetectType(data),
		Data: data,
	}, nil
}

// ReadFiles loads every path, stopping at the first unreadable one.
func ReadFiles(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		f, err := ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// IsImage reports whether a MIME type is an image type.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
