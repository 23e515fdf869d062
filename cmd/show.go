package cmd

import (
	"errors"
	"fmt"

	"github.com/iksnae/darkscan/internal"
	"github.com/spf13/cobra"
)

var (
	showRemote bool
	showFormat string
)

// ErrNoCurrentAnalysis is returned by show when nothing has been analyzed yet
var ErrNoCurrentAnalysis = errors.New("no current analysis (run 'darkscan analyze <image>' or 'darkscan show <id>')")

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [analysis-id]",
	Short: "Show the current analysis or a past one",
	Long: `Display an analysis.

Without an id the current analysis is shown. With an id the entry is
taken from the cached history and becomes the current analysis; use
'darkscan history' to refresh the list or --remote to fetch it from the
service directly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, showRemote)
		if err != nil {
			return err
		}
		defer a.finish(ctx)

		var result *internal.Analysis
		switch {
		case len(args) == 0:
			current, ok := a.store.CurrentAnalysis()
			if !ok {
				return ErrNoCurrentAnalysis
			}
			result = current
		case showRemote:
			client, err := a.requireClient()
			if err != nil {
				return err
			}
			result, err = client.FetchAnalysis(ctx, args[0])
			if err != nil {
				return withHint(err)
			}
			a.store.SetCurrentAnalysis(*result)
		default:
			result, err = a.pipeline.SelectHistoryEntry(args[0])
			if errors.Is(err, internal.ErrAnalysisNotFound) {
				return fmt.Errorf("%w (use 'darkscan history' to refresh, or --remote)", err)
			}
			if err != nil {
				return err
			}
		}

		return writeAnalysis(cmd.OutOrStdout(), result, showFormat, a.store.Language())
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showRemote, "remote", false, "Fetch the analysis from the service instead of the cached history")
	showCmd.Flags().StringVarP(&showFormat, "format", "f", textFormat, "Output format (text, json, yaml, md, jsonl)")
}
