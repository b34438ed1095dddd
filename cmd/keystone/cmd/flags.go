package cmd

import (
	"github.com/spf13/cobra"
)

type paramsT struct {
	repoDir  string
	logLevel string
	author   string

	workspaceDir string
	branch       string
	mode         string
	message      string
	lockMeta     string
	parent       string
	revision     string
	source       string
	target       string
}

func addRepoFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().StringVar(&params.repoDir, "repository", "",
		"Path to the repository store (metadata index and objects)")
	return "repository"
}

func addLogLevelFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().StringVar(&params.logLevel, "loglevel", "",
		"The logging level, one of none, info, debug")
	return "loglevel"
}

func addAuthorFlag(cmd *cobra.Command) string {
	cmd.PersistentFlags().StringVar(&params.author, "author", "",
		"The author recorded on commits")
	return "author"
}

func addWorkspaceFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.workspaceDir, "workspace", ".",
		"Path to the workspace root")
	return "workspace"
}

func addBranchFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.branch, "branch", "main",
		"The branch to operate on")
	return "branch"
}

func addModeFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.mode, "mode", "local",
		"The workspace materialization mode, local or virtual")
	return "mode"
}

func addMessageFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVarP(&params.message, "message", "m", "",
		"The commit message")
	return "message"
}

func addLockMetadataFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.lockMeta, "lock-metadata", "",
		"Opaque lock metadata handed to the merge policy")
	return "lock-metadata"
}

func addParentFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.parent, "parent", "main",
		"The parent branch")
	return "parent"
}

func addRevisionFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.revision, "to", "",
		"The revision to sync to, defaults to the branch head")
	return "to"
}

func addSourceFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.source, "source", "",
		"The source branch")
	return "source"
}

func addTargetFlag(cmd *cobra.Command) string {
	cmd.Flags().StringVar(&params.target, "target", "main",
		"The target branch")
	return "target"
}
