package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var revertCmd = &cobra.Command{
	Use:   "revert [path...]",
	Short: "Unstage paths and release their locks",
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
			if err := ws.Revert(ctx, path); err != nil {
				wrapFatalln("revert "+path, err)
				return
			}
		}
	},
	Args: cobra.MinimumNArgs(1),
}

func init() {
	addWorkspaceFlag(revertCmd)
	rootCmd.AddCommand(revertCmd)
}
