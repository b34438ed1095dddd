package cmd

import (
	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Commands to manage branches and their lock domains",
	Long: `Commands to manage branches. A new branch shares its parent's lock domain:
branching alone never relaxes mutual exclusion. Detach a branch to give it
and its subtree a domain of their own, attach it to fold the domain back
into the parent's.`,
}

func init() {
	rootCmd.AddCommand(branchCmd)
}
