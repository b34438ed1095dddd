package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var branchRetireCmd = &cobra.Command{
	Use:   "retire [name]",
	Short: "Retire a branch",
	Long: `Mark a branch retired. History is never deleted: a retired branch keeps
its commits and stays listed, it is just done receiving work.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		if err := repo.RetireBranch(context.Background(), args[0]); err != nil {
			wrapFatalln("retire branch", err)
			return
		}
		infoLogger.Println("branch", args[0], "retired")
	},
}

func init() {
	branchCmd.AddCommand(branchRetireCmd)
}
