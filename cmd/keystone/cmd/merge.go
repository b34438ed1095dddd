package cmd

import (
	"context"
	"errors"

	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a source branch into a target branch",
	Long: `Merge the source branch into the target branch. Fast-forwards when the
target has not moved; otherwise the changes on both sides since the common
ancestor are combined. When a path changed on both sides to different
content, the merge is recorded as pending for operator resolution and
nothing moves.`,
	Run: func(cmd *cobra.Command, args []string) {
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		commit, err := repo.Merge(context.Background(), params.source, params.target)
		var pending *model.MergePendingError
		if errors.As(err, &pending) {
			infoLogger.Println(pending.Error())
			return
		}
		if err != nil {
			wrapFatalln("merge", err)
			return
		}
		infoLogger.Println(commit.ID)
	},
}

func init() {
	addTargetFlag(mergeCmd)
	requiredFlags := []string{addSourceFlag(mergeCmd)}
	for _, flag := range requiredFlags {
		if err := mergeCmd.MarkFlagRequired(flag); err != nil {
			logFatalln(err)
		}
	}
	rootCmd.AddCommand(mergeCmd)
}
