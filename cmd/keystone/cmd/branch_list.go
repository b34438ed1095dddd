package cmd

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List branches",
	Run: func(cmd *cobra.Command, args []string) {
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		branches, err := repo.ListBranches(context.Background())
		if err != nil {
			wrapFatalln("list branches", err)
			return
		}
		table := uitable.New()
		table.AddRow("NAME", "PARENT", "HEAD", "DOMAIN", "RETIRED")
		for _, branch := range branches {
			head := branch.Head
			if len(head) > 12 {
				head = head[:12]
			}
			table.AddRow(branch.Name, branch.Parent, head, branch.LockDomainID, branch.Retired)
		}
		fmt.Println(table)
	},
}

func init() {
	branchCmd.AddCommand(branchListCmd)
}
