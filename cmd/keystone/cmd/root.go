package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "keystone",
	Short: "Keystone versions mixed code and large-binary projects",
	Long: `Keystone is a centralized version control engine for projects mixing source
code with large binary assets.

Binary assets do not merge, so keystone prevents conflicts up front: a path
must be locked before it is changed, and branches share locks through lock
domains. Branching alone keeps both lines in one mutual-exclusion scope;
detaching a branch isolates it, attaching folds it back in.
`,
}

var params paramsT

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addRepoFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addAuthorFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("repository", defaultRepoDir())
	viper.SetDefault("author", "anonymous")
	viper.SetDefault("loglevel", "none")

	if os.Getenv("KEYSTONE_CONFIG") != "" {
		viper.SetConfigFile(os.Getenv("KEYSTONE_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.keystone")
		viper.SetConfigName("keystone")
	}

	viper.SetEnvPrefix("keystone")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}

	if params.repoDir == "" {
		params.repoDir = viper.GetString("repository")
	}
	if params.author == "" {
		params.author = viper.GetString("author")
	}
	if params.logLevel == "" {
		params.logLevel = viper.GetString("loglevel")
	}
}

func defaultRepoDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".keystone-repo"
	}
	return home + "/.keystone/repo"
}
