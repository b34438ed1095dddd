package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var branchAttachCmd = &cobra.Command{
	Use:   "attach [name]",
	Short: "Attach a branch to a parent, merging lock domains",
	Long: `Attach a branch to a parent branch. The branch's lock domain is folded
into the parent's and its locks are carried over. A path locked in both
domains by holders the merge policy cannot reconcile fails the whole attach
and leaves both domains unchanged.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		if err := repo.Locks().Attach(context.Background(), args[0], params.parent); err != nil {
			wrapFatalln("attach branch", err)
			return
		}
		infoLogger.Println("branch", args[0], "attached to", params.parent)
	},
}

func init() {
	addParentFlag(branchAttachCmd)
	branchCmd.AddCommand(branchAttachCmd)
}
