package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, service reachability and the local cache",
	Long: `Check the health of darkscan by verifying:
  • Configuration (service URL, cache directory, language)
  • Analysis service reachability
  • Local cache accessibility

This command is useful for debugging setup issues, especially in CI/CD environments.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 darkscan Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		a, err := openApp(ctx, false)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load configuration:"), err)
			return err
		}
		defer a.close()

		configOK := a.cfg.Validate() == nil
		if configOK {
			fmt.Fprintln(out, successStyle.Render("✅ Configuration valid"))
		} else {
			fmt.Fprintln(out, errorStyle.Render("❌ Configuration incomplete:"), a.cfg.Validate())
		}
		if healthcheckVerbose {
			if a.cfg.File != "" {
				fmt.Fprintf(out, "   Config file: %s\n", a.cfg.File)
			}
			fmt.Fprintf(out, "   Service URL: %s\n", a.cfg.Service.BaseURL)
			fmt.Fprintf(out, "   Cache dir: %s\n", a.cfg.Cache.Dir)
			fmt.Fprintf(out, "   Language: %s\n", a.store.Language().DisplayName())
		}
		fmt.Fprintln(out)

		// Step 2: Service
		fmt.Fprintln(out, infoStyle.Render("Step 2: Checking analysis service..."))
		serviceOK := false
		if client, err := a.requireClient(); err != nil {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Skipped: no service URL configured"))
		} else if status, err := client.Health(ctx); err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Service unreachable:"), withHint(err))
		} else if !status.Healthy() {
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("❌ Service reports status %q", status.Status)))
		} else {
			serviceOK = true
			fmt.Fprintln(out, successStyle.Render("✅ Service healthy"))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Endpoint: %s\n", client.BaseURL())
			}
		}
		fmt.Fprintln(out)

		// Step 3: Cache
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking local cache..."))
		cacheOK := false
		if a.cache == nil {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Local cache unavailable"))
		} else if stats, err := a.cache.Stats(ctx); err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to read cache:"), err)
		} else {
			cacheOK = true
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Cache readable: %d cached analysis(es)", stats.HistoryCount)))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Database: %s\n", stats.Path)
				fmt.Fprintf(out, "   Current analysis: %t\n", stats.HasCurrent)
				if !stats.LastSync.IsZero() {
					fmt.Fprintf(out, "   Last sync: %s\n", stats.LastSync.Local().Format("2006-01-02 15:04:05"))
				}
			}
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		switch {
		case configOK && serviceOK && cacheOK:
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			return nil
		case configOK && serviceOK:
			fmt.Fprintln(out, warningStyle.Render("⚠️  Service reachable but the local cache is unavailable"))
			fmt.Fprintln(out, "   • Analyses will work but will not be cached")
			return nil
		default:
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			if !configOK {
				fmt.Fprintln(out, "   • Set service.base_url, DARKSCAN_BASE_URL or EXPO_PUBLIC_BACKEND_URL")
			}
			if configOK && !serviceOK {
				fmt.Fprintln(out, "   • The analysis service could not be reached")
			}
			return fmt.Errorf("health check failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckVerbose, "details", false, "Show detailed diagnostic information")
}
