package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [path...]",
	Short: "Stage edits of existing files",
	Long: `Stage edits of committed files. Each path is locked first; on a virtual
workspace the current content is materialized so there is something to edit.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		ws, err := openWorkspace(ctx, repo)
		if err != nil {
			wrapFatalln("open workspace", err)
			return
		}
		for _, path := range args {
			if err := ws.Edit(ctx, path, lockMetadata()); err != nil {
				wrapFatalln("edit "+path, err)
				return
			}
		}
	},
}

func init() {
	addWorkspaceFlag(editCmd)
	addLockMetadataFlag(editCmd)
	rootCmd.AddCommand(editCmd)
}
