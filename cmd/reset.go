package cmd

import (
	"github.com/iksnae/darkscan/internal"
	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the current analysis",
	Long:  `Clear the current analysis. History and the language preference are kept.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.finish(ctx)

		a.pipeline.Reset()
		internal.PrintSuccess("Current analysis cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
