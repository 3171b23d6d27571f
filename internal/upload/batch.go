package upload

import "github.com/imgshelf/imgshelf/internal/models"

// PackBatches groups files in input order so that the summed Size of each
// batch stays within ceiling. A file is added to the current batch unless
// that would exceed the ceiling while the batch already holds something;
// then the batch is closed and the file starts the next one. A single file
// larger than the ceiling therefore travels alone, it is never dropped.
func PackBatches(files []models.UploadFile, ceiling int64) [][]models.UploadFile {
	var batches [][]models.UploadFile
	var current []models.UploadFile
	var size int64

	for _, f := range files {
		if len(current) > 0 && size+f.Size > ceiling {
			batches = append(batches, current)
			current = nil
			size = 0
		}
		current = append(current, f)
		size += f.Size
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// BatchSize sums the Size of every file in a batch.
func BatchSize(batch []models.UploadFile) int64 {
	var total int64
	for _, f := range batch {
		total += f.Size
	}
	return total
}
