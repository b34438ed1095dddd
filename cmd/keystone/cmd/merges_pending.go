package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var mergesPendingCmd = &cobra.Command{
	Use:   "merges-pending",
	Short: "List merges waiting for operator resolution",
	Run: func(cmd *cobra.Command, args []string) {
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		records, err := repo.MergesPending(context.Background())
		if err != nil {
			wrapFatalln("list pending merges", err)
			return
		}
		table := uitable.New()
		table.MaxColWidth = 60
		table.AddRow("SOURCE", "TARGET", "RECORDED", "PATHS")
		for _, record := range records {
			table.AddRow(record.Source, record.Target,
				record.Recorded.Format("2006-01-02 15:04:05"),
				strings.Join(record.Paths, ", "))
		}
		fmt.Println(table)
	},
}

var mergeResolveCmd = &cobra.Command{
	Use:   "merge-resolve",
	Short: "Clear a pending merge record",
	Long: `Clear the pending merge record for a source and target pair, after the
colliding paths were reconciled by hand.`,
	Run: func(cmd *cobra.Command, args []string) {
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		if err := repo.ResolveMerge(context.Background(), params.source, params.target); err != nil {
			wrapFatalln("resolve merge", err)
			return
		}
	},
}

func init() {
	rootCmd.AddCommand(mergesPendingCmd)

	addTargetFlag(mergeResolveCmd)
	requiredFlags := []string{addSourceFlag(mergeResolveCmd)}
	for _, flag := range requiredFlags {
		if err := mergeResolveCmd.MarkFlagRequired(flag); err != nil {
			logFatalln(err)
		}
	}
	rootCmd.AddCommand(mergeResolveCmd)
}
