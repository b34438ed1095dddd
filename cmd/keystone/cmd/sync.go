package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the workspace to a revision",
	Long: `Sync the workspace to the branch head, or to an explicit revision with --to,
forward or backward. A pending change colliding with the incoming delta fails
the whole sync and leaves the workspace untouched.`,
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
		revision := params.revision
		if revision == "" {
			revision, err = ws.Sync(ctx)
		} else {
			err = ws.SyncTo(ctx, revision)
		}
		if err != nil {
			wrapFatalln("sync", err)
			return
		}
		infoLogger.Println("synced to", revision)
	},
}

func init() {
	addWorkspaceFlag(syncCmd)
	addRevisionFlag(syncCmd)
	rootCmd.AddCommand(syncCmd)
}
