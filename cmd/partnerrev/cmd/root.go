package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "partnerrev",
	Short: "Partner revenue attribution tool",
	Long: `Partnerrev ingests monthly payment exports, reconciles transactions
against the partner roster and reports partner revenue, commission and
relationship health.

Examples:
  partnerrev ingest --file january.csv --uploaded-by alex
  partnerrev ingest --file january.csv --replace
  partnerrev report --scope month --month 2026-01 --output-format json
  partnerrev report --scope all --sort revenue`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("store-url", "", "record store API base URL")
	rootCmd.PersistentFlags().String("store-token", "", "record store API token")
	rootCmd.PersistentFlags().Duration("store-timeout", 0, "record store request timeout (default 30s)")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("store-url", rootCmd.PersistentFlags().Lookup("store-url"))
	viper.BindPFlag("store-token", rootCmd.PersistentFlags().Lookup("store-token"))
	viper.BindPFlag("store-timeout", rootCmd.PersistentFlags().Lookup("store-timeout"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	// Read environment variables that match
	viper.SetEnvPrefix("PARTNERREV")
	viper.AutomaticEnv()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
