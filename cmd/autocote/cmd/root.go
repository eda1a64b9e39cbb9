// Package cmd implements the CLI commands for autocote.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/tmarchal/autocote/internal/api/client"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "autocote",
	Short: "Score secondhand vehicle listings for trustworthiness and value",
	Long: "autocote is an API-first service that scores secondhand vehicle\n" +
		"listings. It combines a textual-analysis payload, seller signals, and\n" +
		"a per-search market valuation model into a composite 0-100 score,\n" +
		"and alerts on listings that cross the deal threshold.",
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(searchesCmd())
	rootCmd.AddCommand(listingsCmd())
	rootCmd.AddCommand(rescoreCmd())
	rootCmd.AddCommand(refreshMarketCmd())
	rootCmd.AddCommand(archiveCmd())
	rootCmd.AddCommand(valuateCmd())
	rootCmd.AddCommand(jobsCmd())
	rootCmd.AddCommand(versionCommand())
}

func initConfig() {
	viper.SetEnvPrefix("AUTOCOTE")
	viper.AutomaticEnv()
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
