package cmd

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the commit history of a branch",
	Run: func(cmd *cobra.Command, args []string) {
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		history, err := repo.Log(context.Background(), params.branch)
		if err != nil {
			wrapFatalln("log", err)
			return
		}
		table := uitable.New()
		table.MaxColWidth = 80
		table.AddRow("COMMIT", "DATE", "AUTHOR", "MESSAGE")
		for _, commit := range history {
			table.AddRow(commit.ID[:12], commit.Timestamp.Format("2006-01-02 15:04:05"),
				commit.Author, commit.Message)
		}
		fmt.Println(table)
	},
}

func init() {
	addBranchFlag(logCmd)
	rootCmd.AddCommand(logCmd)
}
