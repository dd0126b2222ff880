package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cortexkg",
	Short: "Pattern knowledge graph",
	Long:  "cortexkg stores reusable patterns in a searchable, namespaced knowledge graph with confidence decay. Single Go binary, one SQLite file.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(healthCmd)
}
