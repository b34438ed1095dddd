package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit the pending changes",
	Long: `Commit the workspace's pending changes to its branch. The commit appends
atomically, advances the branch head and releases the workspace's locks.
A commit against a stale revision is refused: sync and retry.`,
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
		commit, err := repo.Commit(ctx, ws, params.message)
		if err != nil {
			wrapFatalln("commit", err)
			return
		}
		infoLogger.Println(commit.ID)
	},
}

func init() {
	addWorkspaceFlag(commitCmd)
	requiredFlags := []string{addMessageFlag(commitCmd)}
	for _, flag := range requiredFlags {
		if err := commitCmd.MarkFlagRequired(flag); err != nil {
			logFatalln(err)
		}
	}
	rootCmd.AddCommand(commitCmd)
}
