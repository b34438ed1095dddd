package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var branchDetachCmd = &cobra.Command{
	Use:   "detach [name]",
	Short: "Detach a branch into a fresh lock domain",
	Long: `Detach a branch and its subtree into a fresh lock domain. Locks held on
paths nobody outside the subtree holds move with it, the rest stay behind.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		domainID, err := repo.Locks().Detach(context.Background(), args[0])
		if err != nil {
			wrapFatalln("detach branch", err)
			return
		}
		infoLogger.Println("branch", args[0], "detached into domain", domainID)
	},
}

func init() {
	branchCmd.AddCommand(branchDetachCmd)
}
