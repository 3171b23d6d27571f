package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/imgshelf/imgshelf/internal/constants"
	"github.com/imgshelf/imgshelf/internal/events"
	"github.com/imgshelf/imgshelf/internal/logging"
	"github.com/imgshelf/imgshelf/internal/models"
	"github.com/imgshelf/imgshelf/internal/validation"
)

var (
	// ErrNoFiles is returned when Upload is called without files.
	ErrNoFiles = errors.New("no files to upload")

	// ErrPartialUpload matches a *PartialUploadError with errors.Is.
	ErrPartialUpload = errors.New("some files failed to upload")

	// ErrUploadFailed means no file made it.
	ErrUploadFailed = errors.New("upload failed")
)

// PartialUploadError reports an upload where some, not all, files failed.
type PartialUploadError struct {
	Succeeded int
	Failed    []models.FailedUpload
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("%d of %d files failed to upload", len(e.Failed), e.Succeeded+len(e.Failed))
}

// Is lets errors.Is match ErrPartialUpload.
func (e *PartialUploadError) Is(target error) bool {
	return target == ErrPartialUpload
}

// Sender is the part of api.Remote the uploader needs.
type Sender interface {
	UploadImages(ctx context.Context, folderID string, files []models.UploadFile) (*models.UploadResponse, error)
}

// ProgressFunc is called after each batch resolves, success or failure.
type ProgressFunc func(processed, total int)

// Result aggregates the outcome of every batch of one upload call.
type Result struct {
	UploadID  string
	FolderID  string
	Succeeded []models.Image
	Failed    []models.FailedUpload
	Batches   int
	Duration  time.Duration
}

// Err summarizes the result: nil when every file succeeded, a
// *PartialUploadError when some failed, ErrUploadFailed when all did.
func (r *Result) Err() error {
	switch {
	case len(r.Failed) == 0:
		return nil
	case len(r.Succeeded) == 0:
		return fmt.Errorf("%w: %s", ErrUploadFailed, r.Failed[0].Error)
	default:
		return &PartialUploadError{Succeeded: len(r.Succeeded), Failed: r.Failed}
	}
}

// Uploader sends files to a folder in sequential, size-bounded batches.
type Uploader struct {
	remote  Sender
	ceiling int64
	bus     events.Publisher
	logger  *logging.Logger
}

// NewUploader creates an uploader. A ceiling < 1 uses constants.UploadCeilingBytes.
func NewUploader(remote Sender, ceiling int64, bus events.Publisher, logger *logging.Logger) *Uploader {
	if ceiling < 1 {
		ceiling = constants.UploadCeilingBytes
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Uploader{
		remote:  remote,
		ceiling: ceiling,
		bus:     events.OrDiscard(bus),
		logger:  logger.Named("upload"),
	}
}

// Ceiling returns the per-batch size limit in bytes.
func (u *Uploader) Ceiling() int64 {
	return u.ceiling
}

// Upload encodes files and sends them to folderID. See UploadEncoded.
// A file whose name cannot be used is reported in Result.Failed without
// being sent; the other files still go out.
func (u *Uploader) Upload(ctx context.Context, folderID string, files []File, onProgress ProgressFunc) (*Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	encoded := make([]models.UploadFile, 0, len(files))
	var rejected []models.FailedUpload
	for _, f := range files {
		if err := validation.FileName(f.Name); err != nil {
			rejected = append(rejected, models.FailedUpload{FileName: f.Name, Error: err.Error()})
			u.bus.Publish(events.NewLogEvent(events.WarnLevel, "file not uploaded: "+f.Name, err))
			continue
		}
		encoded = append(encoded, Encode(f))
	}
	return u.run(ctx, folderID, encoded, rejected, onProgress), nil
}

// UploadEncoded packs files into batches and sends them strictly one after
// another. A failed batch marks all of its files failed with the batch's
// error and the remaining batches still run. onProgress, when non-nil, is
// called once per batch with the number of files processed so far.
//
// The returned error is only non-nil for an empty file list; per-file
// outcomes are in the Result (see Result.Err).
func (u *Uploader) UploadEncoded(ctx context.Context, folderID string, files []models.UploadFile, onProgress ProgressFunc) (*Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return u.run(ctx, folderID, files, nil, onProgress), nil
}

// run sends files and folds in rejected, which count as already processed.
func (u *Uploader) run(ctx context.Context, folderID string, files []models.UploadFile, rejected []models.FailedUpload, onProgress ProgressFunc) *Result {
	start := time.Now()
	batches := PackBatches(files, u.ceiling)
	total := len(files) + len(rejected)
	result := &Result{
		UploadID: uuid.NewString(),
		FolderID: folderID,
		Failed:   append([]models.FailedUpload(nil), rejected...),
		Batches:  len(batches),
	}

	u.logger.Info().
		Str("upload_id", result.UploadID).
		Str("folder_id", folderID).
		Int("files", len(files)).
		Int("rejected", len(rejected)).
		Int("batches", len(batches)).
		Msg("upload started")

	processed := len(rejected)
	for i, batch := range batches {
		batchErr := u.sendBatch(ctx, folderID, batch, result)
		if batchErr != nil {
			u.logger.Warn().Err(batchErr).
				Str("upload_id", result.UploadID).
				Int("batch", i+1).
				Int("files", len(batch)).
				Str("size", humanize.IBytes(uint64(BatchSize(batch)))).
				Msg("batch failed")
			u.bus.Publish(events.NewLogEvent(events.WarnLevel,
				fmt.Sprintf("upload batch %d of %d failed (%d files)", i+1, len(batches), len(batch)), batchErr))
		}

		processed += len(batch)
		if onProgress != nil {
			onProgress(processed, total)
		}
		u.bus.Publish(events.NewUploadProgressEvent(result.UploadID, folderID, processed, total, batchErr))
	}

	result.Duration = time.Since(start)
	u.bus.Publish(events.NewUploadCompleteEvent(result.UploadID, folderID,
		len(result.Succeeded), len(result.Failed), result.Duration))

	u.logger.Info().
		Str("upload_id", result.UploadID).
		Int("succeeded", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Dur("duration", result.Duration).
		Msg("upload finished")

	return result
}

// sendBatch sends one batch and folds its outcome into result.
// It returns the batch-level error, if any.
func (u *Uploader) sendBatch(ctx context.Context, folderID string, batch []models.UploadFile, result *Result) error {
	err := ctx.Err()
	var resp *models.UploadResponse
	if err == nil {
		resp, err = u.remote.UploadImages(ctx, folderID, batch)
	}
	if err != nil {
		for _, f := range batch {
			result.Failed = append(result.Failed, models.FailedUpload{FileName: f.Name, Error: err.Error()})
		}
		return err
	}

	result.Succeeded = append(result.Succeeded, resp.UploadedImages...)
	result.Failed = append(result.Failed, resp.FailedUploads...)
	return nil
}
