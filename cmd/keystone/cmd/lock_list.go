package cmd

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Commands to inspect path locks",
}

var lockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the locks held in a branch's lock domain",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		domain, err := repo.Locks().Domain(ctx, params.branch)
		if err != nil {
			wrapFatalln("resolve lock domain", err)
			return
		}
		locks, err := repo.Locks().Locks(ctx, domain.ID)
		if err != nil {
			wrapFatalln("list locks", err)
			return
		}
		infoLogger.Println("domain", domain.ID, "branches:", domain.Branches)
		table := uitable.New()
		table.AddRow("PATH", "WORKSPACE", "BRANCH", "METADATA")
		for _, lock := range locks {
			table.AddRow(lock.Path, lock.WorkspaceID, lock.BranchName, string(lock.Metadata))
		}
		fmt.Println(table)
	},
}

func init() {
	addBranchFlag(lockListCmd)
	lockCmd.AddCommand(lockListCmd)
	rootCmd.AddCommand(lockCmd)
}
