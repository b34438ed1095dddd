package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var initRepositoryCmd = &cobra.Command{
	Use:   "init-local-repository",
	Short: "Initialize a repository",
	Long: `Initialize a repository at the configured repository path, with a main
branch, a root commit and a fresh lock domain. Initializing twice is a no-op.`,
	Run: func(cmd *cobra.Command, args []string) {
		repo, done, err := openRepo()
		if err != nil {
			wrapFatalln("open repository", err)
			return
		}
		defer done()
		if err := repo.Initialize(context.Background()); err != nil {
			wrapFatalln("initialize repository", err)
			return
		}
		infoLogger.Println("repository initialized at", params.repoDir)
	},
}

func init() {
	rootCmd.AddCommand(initRepositoryCmd)
}
