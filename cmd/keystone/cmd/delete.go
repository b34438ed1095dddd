package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [path...]",
	Short: "Stage file removals",
	Args:  cobra.MinimumNArgs(1),
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
			if err := ws.Delete(ctx, path, lockMetadata()); err != nil {
				wrapFatalln("delete "+path, err)
				return
			}
		}
	},
}

func init() {
	addWorkspaceFlag(deleteCmd)
	addLockMetadataFlag(deleteCmd)
	rootCmd.AddCommand(deleteCmd)
}
