// Package progress renders upload progress: a terminal progress bar for the
// CLI and a logger that follows upload events on the bus.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/imgshelf/imgshelf/internal/events"
	"github.com/imgshelf/imgshelf/internal/logging"
	"github.com/imgshelf/imgshelf/internal/upload"
)

// Reporter receives per-batch progress counted in files.
type Reporter interface {
	Start(total int, description string)
	Update(processed int)
	Finish()
	Error(err error)
}

// Func adapts a Reporter to the uploader's progress callback.
func Func(r Reporter) upload.ProgressFunc {
	return func(processed, total int) {
		r.Update(processed)
	}
}

// NewReporter returns a progress bar when w is a terminal and a no-op otherwise,
// so piped output stays free of control sequences.
func NewReporter(w *os.File) Reporter {
	if w != nil && term.IsTerminal(int(w.Fd())) {
		return NewCLIProgress(w)
	}
	return NewNoOpProgress()
}

// CLIProgress implements progress reporting for CLI mode using progress bars.
type CLIProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a new CLI progress reporter writing to out.
func NewCLIProgress(out io.Writer) *CLIProgress {
	if out == nil {
		out = os.Stderr
	}
	return &CLIProgress{out: out}
}

// Start initializes the progress bar with total files and description.
func (p *CLIProgress) Start(total int, description string) {
	out := p.out
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update moves the bar to processed files.
func (p *CLIProgress) Update(processed int) {
	if p.bar != nil {
		_ = p.bar.Set(processed)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error displays an error message.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(p.out, "\nError: %v\n", err)
	}
}

// NoOpProgress is a progress reporter that does nothing.
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Start(total int, description string) {}
func (p *NoOpProgress) Update(processed int)                {}
func (p *NoOpProgress) Finish()                             {}
func (p *NoOpProgress) Error(err error)                     {}

// Follow logs upload, move and log events from bus until the bus closes.
// It returns a channel that is closed once the bus has been drained.
// Events the bus had to drop are counted in a final warning.
func Follow(bus *events.EventBus, logger *logging.Logger) <-chan struct{} {
	done := make(chan struct{})
	ch := bus.SubscribeAll()

	go func() {
		defer close(done)
		defer func() {
			if n := bus.GetDroppedEventCount(); n > 0 {
				logger.Warn().Int64("dropped", n).Msg("event buffer overflowed, some events were not logged")
			}
		}()
		for e := range ch {
			switch ev := e.(type) {
			case *events.UploadProgressEvent:
				le := logger.Debug()
				if ev.BatchErr != nil {
					le = logger.Warn().Err(ev.BatchErr)
				}
				le.Str("upload_id", ev.UploadID).
					Int("processed", ev.Processed).
					Int("total", ev.Total).
					Msg("upload batch resolved")
			case *events.UploadCompleteEvent:
				logger.Debug().
					Str("upload_id", ev.UploadID).
					Int("succeeded", ev.Succeeded).
					Int("failed", ev.Failed).
					Dur("duration", ev.Duration).
					Msg("upload complete")
			case *events.MoveEvent:
				le := logger.Debug()
				if ev.Error != nil {
					le = logger.Warn().Err(ev.Error)
				}
				le.Str("event", string(ev.Type())).
					Strs("images", ev.ImageIDs).
					Str("target", ev.TargetFolderID).
					Msg("move")
			case *events.ImagesInvalidatedEvent:
				logger.Debug().Str("folder_id", ev.FolderID).Msg("image pages invalidated")
			case *events.LogEvent:
				le := logger.Info()
				switch ev.Level {
				case events.DebugLevel:
					le = logger.Debug()
				case events.WarnLevel:
					le = logger.Warn()
				case events.ErrorLevel:
					le = logger.Error()
				}
				if ev.Error != nil {
					le = le.Err(ev.Error)
				}
				le.Msg(ev.Message)
			}
		}
	}()
	return done
}
