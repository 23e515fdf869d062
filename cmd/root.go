package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/darkscan/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configFile string
	baseURL    string
	cacheDir   string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "darkscan",
	Short: "Scan screenshots for dark patterns",
	Long: `A command-line client for a visual dark-pattern detector.

Send a screenshot to the analysis service and get back a Dark Pattern
Index (DPI) score, a risk tier, the manipulation signals it found and a
plain-language summary. Results are cached locally so the last analysis
and the service history are available offline.

Features:
  • Analyze screenshots in English, Hindi or Hinglish
  • Colour-coded risk tiers and signal breakdowns
  • Browse and re-open past analyses
  • Watch a folder and analyze new screenshots automatically
  • Export results (JSON, YAML, Markdown, JSONL)

Quick Start:
  darkscan analyze ~/Desktop/checkout.png   # Analyze a screenshot
  darkscan history                           # List past analyses
  darkscan show <analysis-id>                # Re-open one of them

The service URL comes from --base-url, DARKSCAN_BASE_URL,
EXPO_PUBLIC_BACKEND_URL or service.base_url in darkscan.yaml.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./darkscan.yaml or ~/.darkscan/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Analysis service base URL")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Directory for the local cache and settings")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
