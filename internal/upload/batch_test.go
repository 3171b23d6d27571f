package upload

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/imgshelf/imgshelf/internal/models"
)

func filesOfSize(sizes ...int64) []models.UploadFile {
	files := make([]models.UploadFile, len(sizes))
	for i, s := range sizes {
		files[i] = models.UploadFile{Name: fmt.Sprintf("f%d.jpg", i), Size: s}
	}
	return files
}

func TestPackBatches(t *testing.T) {
	tests := []struct {
		name    string
		sizes   []int64
		ceiling int64
		want    []int // files per batch
	}{
		{"empty", nil, 100, nil},
		{"fits in one", []int64{10, 20, 30}, 100, []int{3}},
		{"exact fit", []int64{50, 50}, 100, []int{2}},
		{"spill", []int64{60, 50, 40}, 100, []int{1, 2}},
		{"oversized alone", []int64{10, 250, 10}, 100, []int{1, 1, 1}},
		{"oversized first", []int64{250, 10, 10}, 100, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := PackBatches(filesOfSize(tt.sizes...), tt.ceiling)
			if len(batches) != len(tt.want) {
				t.Fatalf("got %d batches, want %d", len(batches), len(tt.want))
			}
			for i, b := range batches {
				if len(b) != tt.want[i] {
					t.Errorf("batch %d has %d files, want %d", i, len(b), tt.want[i])
				}
			}
		})
	}
}

func TestPackBatchesBound(t *testing.T) {
	const ceiling = 5 * 1024 * 1024
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		n := rng.Intn(40)
		sizes := make([]int64, n)
		for i := range sizes {
			sizes[i] = rng.Int63n(2 * ceiling)
		}
		files := filesOfSize(sizes...)
		batches := PackBatches(files, ceiling)

		count := 0
		for _, b := range batches {
			if len(b) == 0 {
				t.Fatalf("run %d: empty batch", run)
			}
			if total := BatchSize(b); total > ceiling && !(len(b) == 1 && b[0].Size > ceiling) {
				t.Fatalf("run %d: batch of %d files totals %d > ceiling", run, len(b), total)
			}
			for _, f := range b {
				if f.Name != files[count].Name {
					t.Fatalf("run %d: order changed at %d", run, count)
				}
				count++
			}
		}
		if count != n {
			t.Fatalf("run %d: packed %d files, want %d", run, count, n)
		}
	}
}

func TestEncode(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	f := Encode(File{Name: "x.png", Data: png})

	if f.Type != "image/png" {
		t.Errorf("Type = %q, want image/png", f.Type)
	}
	if f.Content == "" {
		t.Fatal("Content is empty")
	}
	// 16 bytes encode to 24 characters; 24 * 0.75 = 18.
	if f.Size != 18 {
		t.Errorf("Size = %d, want 18", f.Size)
	}
	if !IsImage(f.Type) || IsImage("text/plain") {
		t.Error("IsImage misclassified")
	}

	explicit := Encode(File{Name: "y", Type: "image/jpeg", Data: []byte("abc")})
	if explicit.Type != "image/jpeg" {
		t.Errorf("explicit type overwritten: %q", explicit.Type)
	}
}
