package cmd

import (
	"errors"

	"github.com/iksnae/darkscan/internal"
	"github.com/spf13/cobra"
)

var (
	historyOffline bool
	historyFormat  string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past analyses",
	Long: `Fetch the analysis history from the service and list it in the order the service returns.

The local snapshot is replaced with whatever the service returns. If the
service answers with something unreadable the history is shown as empty.
Use --offline to list the last cached snapshot without contacting the service.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, !historyOffline)
		if err != nil {
			return err
		}
		defer a.finish(ctx)

		if !historyOffline {
			err := internal.ShowProgress(ctx, "Fetching history", func() error {
				return a.pipeline.RefreshHistory(ctx)
			})
			var syncErr *internal.SyncError
			switch {
			case err == nil:
			case errors.As(err, &syncErr) && syncErr.Degraded():
				internal.PrintWarning("History is unavailable right now: " + syncErr.Err.Error())
			default:
				return withHint(err)
			}
		}

		return writeHistory(cmd.OutOrStdout(), a.store.History(), historyFormat)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyOffline, "offline", false, "Show the cached history without contacting the service")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", textFormat, "Output format (text, json, yaml, md, jsonl)")
}
