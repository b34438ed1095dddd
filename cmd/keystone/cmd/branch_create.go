package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var branchCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a branch off a parent",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		branch, err := repo.CreateBranch(context.Background(), args[0], params.parent)
		if err != nil {
			wrapFatalln("create branch", err)
			return
		}
		infoLogger.Println("branch", branch.Name, "at", branch.Head, "in domain", branch.LockDomainID)
	},
}

func init() {
	addParentFlag(branchCreateCmd)
	branchCmd.AddCommand(branchCreateCmd)
}
