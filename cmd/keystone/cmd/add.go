package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [path...]",
	Short: "Stage new files",
	Long: `Stage new files for the next commit. Each path is locked in the branch's
lock domain before it is staged, so a path another workspace is changing
fails right here instead of at commit time.`,
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
			if err := ws.Add(ctx, path, lockMetadata()); err != nil {
				wrapFatalln("add "+path, err)
				return
			}
		}
	},
}

func init() {
	addWorkspaceFlag(addCmd)
	addLockMetadataFlag(addCmd)
	rootCmd.AddCommand(addCmd)
}
