package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"

	"github.com/docker/go-units"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff [path...]",
	Short: "Compare local content against the committed revision",
	Long: `Compare the local content of paths against the workspace revision. Binary
assets have no line diff, so the report states whether a path changed and by
how much.`,
	Args: cobra.MinimumNArgs(1),
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
		table.AddRow("PATH", "STATUS", "COMMITTED", "LOCAL")
		for _, path := range args {
			base, local, err := ws.Diff(ctx, path)
			if err != nil {
				wrapFatalln("diff "+path, err)
				return
			}
			baseData, err := ioutil.ReadAll(base)
			base.Close()
			if err != nil {
				local.Close()
				wrapFatalln("diff "+path, err)
				return
			}
			localData, err := ioutil.ReadAll(local)
			local.Close()
			if err != nil {
				wrapFatalln("diff "+path, err)
				return
			}
			status := "unchanged"
			if !bytes.Equal(baseData, localData) {
				status = "modified"
			}
			table.AddRow(path, status,
				units.HumanSize(float64(len(baseData))),
				units.HumanSize(float64(len(localData))))
		}
		fmt.Println(table)
	},
}

func init() {
	addWorkspaceFlag(diffCmd)
	rootCmd.AddCommand(diffCmd)
}
