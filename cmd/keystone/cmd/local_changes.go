package cmd

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var localChangesCmd = &cobra.Command{
	Use:   "local-changes",
	Short: "List the pending changes of the workspace",
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
		table := uitable.New()
		table.AddRow("CHANGE", "PATH")
		for _, change := range ws.LocalChanges() {
			table.AddRow(change.Type.String(), change.Path)
		}
		fmt.Println(table)
	},
}

func init() {
	addWorkspaceFlag(localChangesCmd)
	rootCmd.AddCommand(localChangesCmd)
}
