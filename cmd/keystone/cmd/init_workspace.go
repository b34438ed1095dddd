package cmd

import (
	"context"

	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/spf13/cobra"
)

var initWorkspaceCmd = &cobra.Command{
	Use:   "init-workspace",
	Short: "Initialize a workspace on a branch",
	Long: `Initialize a workspace tracking a branch at its current head.

A local workspace materializes the whole tree up front. A virtual workspace
materializes nothing and fetches content on first read, which is the cheap
way to look at a few files of a repository full of large assets.`,
	Run: func(cmd *cobra.Command, args []string) {
		mode := model.WorkspaceMode(params.mode)
		if mode != model.WorkspaceLocal && mode != model.WorkspaceVirtual {
			logFatalf("unknown workspace mode %q, use local or virtual", params.mode)
			return
		}
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		ws, err := repo.InitWorkspace(context.Background(), workspaceFs(), params.branch, mode)
		if err != nil {
			wrapFatalln("initialize workspace", err)
			return
		}
		infoLogger.Println("workspace", ws.ID(), "on", ws.Branch(), "at", ws.Revision())
	},
}

func init() {
	addWorkspaceFlag(initWorkspaceCmd)
	addBranchFlag(initWorkspaceCmd)
	addModeFlag(initWorkspaceCmd)
	rootCmd.AddCommand(initWorkspaceCmd)
}
