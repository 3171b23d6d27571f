package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// newFoldersCmd creates the 'folders' command group.
func newFoldersCmd() *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "Folder operations (list, create, rename, notes)",
	}

	foldersCmd.AddCommand(newFoldersListCmd())
	foldersCmd.AddCommand(newFoldersCreateCmd())
	foldersCmd.AddCommand(newFoldersRenameCmd())
	foldersCmd.AddCommand(newFoldersNotesCmd())

	return foldersCmd
}

// newFoldersListCmd creates the 'folders list' command.
func newFoldersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			folders, err := s.LoadFolders(GetContext())
			if err != nil {
				return explain(err)
			}

			if len(folders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No folders")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED BY\tCREATED\tNOTES")
			for _, f := range folders {
				created := "-"
				if !f.CreatedAt.IsZero() {
					created = humanize.Time(f.CreatedAt)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.ID, f.Name, f.CreatedBy, created, truncate(f.Notes, 40))
			}
			return w.Flush()
		},
	}
}

// newFoldersCreateCmd creates the 'folders create' command.
func newFoldersCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new folder",
		Long: `Create a new folder.

Example:
  imgshelf folders create --name "Trip"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			folder, err := s.CreateFolder(GetContext(), name)
			if err != nil {
				return explain(err)
			}

			GetLogger().Info().Str("folder_id", folder.ID).Msg("Folder created")
			fmt.Fprintf(cmd.OutOrStdout(), "Folder created\n  Name: %s\n  ID: %s\n", folder.Name, folder.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Folder name (required)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// newFoldersRenameCmd creates the 'folders rename' command.
func newFoldersRenameCmd() *cobra.Command {
	var id, name string

	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Rename a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			folder, err := s.RenameFolder(GetContext(), id, name)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Folder %s renamed to %s\n", folder.ID, folder.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Folder ID (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "New name (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// newFoldersNotesCmd creates the 'folders notes' command.
func newFoldersNotesCmd() *cobra.Command {
	var id, notes string

	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Replace a folder's notes",
		Long: `Replace a folder's notes. An empty --notes clears them.

Example:
  imgshelf folders notes --id f1 --notes "Summer 2024, beach only"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			folder, err := s.UpdateNotes(GetContext(), id, notes)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notes updated for %s\n", folder.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Folder ID (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes text")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
