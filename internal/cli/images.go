package cli

import (
	"bufio"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/imgshelf/imgshelf/internal/events"
	"github.com/imgshelf/imgshelf/internal/models"
	"github.com/imgshelf/imgshelf/internal/progress"
	"github.com/imgshelf/imgshelf/internal/session"
	"github.com/imgshelf/imgshelf/internal/upload"
)

// newImagesCmd creates the 'images' command group.
func newImagesCmd() *cobra.Command {
	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "Image operations (list, upload, replace, move)",
	}

	imagesCmd.AddCommand(newImagesListCmd())
	imagesCmd.AddCommand(newImagesUploadCmd())
	imagesCmd.AddCommand(newImagesReplaceCmd())
	imagesCmd.AddCommand(newImagesMoveCmd())

	return imagesCmd
}

// newImagesListCmd creates the 'images list' command.
func newImagesListCmd() *cobra.Command {
	var folderID, match string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images in a folder",
		Long: `List images in a folder, one page at a time by default.

Example:
  imgshelf images list --folder f1
  imgshelf images list --folder f1 --all --match beach`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			ctx := GetContext()

			entry, err := s.OpenFolder(ctx, folderID)
			if err == nil && all {
				entry, err = s.LoadAll(ctx)
			}
			if err != nil {
				return explain(err)
			}

			images := entry.Filter(match)
			out := cmd.OutOrStdout()
			if len(images) == 0 {
				fmt.Fprintln(out, "No images")
			} else {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSIZE\tTYPE")
				for _, img := range images {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", img.ID, img.FileName, humanize.IBytes(uint64(img.FileSize)), img.ContentType)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if entry.HasMore {
				fmt.Fprintf(out, "\n%d images loaded, more available (use --all)\n", entry.Len())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&folderID, "folder", "f", "", "Folder ID (required)")
	cmd.Flags().BoolVar(&all, "all", false, "Load every page")
	cmd.Flags().StringVar(&match, "match", "", "Only show images whose name contains this text")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}

// newImagesUploadCmd creates the 'images upload' command.
func newImagesUploadCmd() *cobra.Command {
	var folderID string

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload images to a folder",
		Long: `Upload images to a folder. Files are sent in batches of at most
upload_ceiling_bytes each (5 MiB by default), one batch at a time.
A failed batch does not stop the remaining ones.

Example:
  imgshelf images upload --folder f1 photos/*.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			files, err := upload.ReadFiles(args)
			if err != nil {
				return err
			}

			bus := events.NewEventBus(0)
			followed := progress.Follow(bus, logger)
			defer func() {
				bus.Close()
				<-followed
			}()

			images := files[:0]
			for _, f := range files {
				if !upload.IsImage(f.Type) {
					bus.PublishLog(events.WarnLevel, fmt.Sprintf("Skipping non-image file %s (%s)", f.Name, f.Type), nil)
					continue
				}
				images = append(images, f)
			}
			if len(images) == 0 {
				return upload.ErrNoFiles
			}

			s, err := newSession(session.WithEventBus(bus))
			if err != nil {
				return err
			}

			reporter := progress.NewReporter(os.Stderr)
			reporter.Start(len(images), "Uploading")
			result, err := s.Upload(GetContext(), folderID, images, progress.Func(reporter))
			reporter.Finish()
			if err != nil {
				return explain(err)
			}

			var total int64
			for _, img := range result.Succeeded {
				total += img.FileSize
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Uploaded %d of %d files (%s) in %d batch(es), %s\n",
				len(result.Succeeded), len(images), humanize.IBytes(uint64(total)),
				result.Batches, result.Duration.Round(time.Millisecond))
			for _, f := range result.Failed {
				fmt.Fprintf(out, "  failed: %s: %s\n", f.FileName, f.Error)
			}
			return explain(result.Err())
		},
	}

	cmd.Flags().StringVarP(&folderID, "folder", "f", "", "Target folder ID (required)")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}

// newImagesReplaceCmd creates the 'images replace' command.
func newImagesReplaceCmd() *cobra.Command {
	var folderID, imageID string

	cmd := &cobra.Command{
		Use:   "replace FILE",
		Short: "Replace an image's content in place",
		Long: `Replace an image's content, keeping its id.

Example:
  imgshelf images replace --folder f1 --image img-7 edited.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := upload.ReadFile(args[0])
			if err != nil {
				return err
			}

			s, err := newSession()
			if err != nil {
				return err
			}
			img, err := s.ReplaceImage(GetContext(), folderID, imageID, file)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replaced %s with %s (%s)\n", img.ID, img.FileName, img.ContentType)
			return nil
		},
	}

	cmd.Flags().StringVarP(&folderID, "folder", "f", "", "Folder holding the image (required)")
	cmd.Flags().StringVar(&imageID, "image", "", "Image ID (required)")
	_ = cmd.MarkFlagRequired("folder")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

// newImagesMoveCmd creates the 'images move' command.
func newImagesMoveCmd() *cobra.Command {
	var from, to string
	var yes bool

	cmd := &cobra.Command{
		Use:   "move IMAGE_ID...",
		Short: "Move images to another folder",
		Long: `Move images from one folder to another. The images are selected,
dragged onto the target and dropped; the move runs after confirmation.

Example:
  imgshelf images move --from f1 --to f2 img-1 img-2
  imgshelf images move --from f1 --to f2 --yes img-3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			ctx := GetContext()

			if _, err := s.OpenFolder(ctx, from); err != nil {
				return explain(err)
			}
			if _, err := s.LoadAll(ctx); err != nil {
				return explain(err)
			}
			for _, id := range args {
				if s.Selection.IsSelected(id) {
					continue
				}
				if !s.Selection.ToggleKey(id) {
					return fmt.Errorf("image %s is not in folder %s", id, from)
				}
			}

			if err := s.Mover.DragStart(from, args[0]); err != nil {
				return err
			}
			s.Mover.DragOver(to)
			req, err := s.Mover.Drop(to)
			if err != nil {
				return err
			}

			if !yes {
				ok, err := confirm(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(),
					describeMove(s, req))
				if err != nil {
					return err
				}
				if !ok {
					s.Mover.Cancel()
					fmt.Fprintln(cmd.OutOrStdout(), "Move cancelled")
					return nil
				}
			}

			if err := s.Mover.Confirm(ctx); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %d image(s) to %s\n", len(req.ImageIDs), to)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source folder ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "Target folder ID (required)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func describeMove(s *session.Session, req models.MoveRequest) string {
	target := req.TargetFolderID
	if f, ok := s.Folders.Get(target); ok {
		target = f.Name
	} else if folders, err := s.LoadFolders(GetContext()); err == nil {
		for _, f := range folders {
			if f.ID == req.TargetFolderID {
				target = f.Name
			}
		}
	}
	return fmt.Sprintf("Move %d image(s) to %q?", len(req.ImageIDs), target)
}
