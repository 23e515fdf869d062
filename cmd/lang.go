package cmd

import (
	"fmt"

	"github.com/iksnae/darkscan/internal"
	"github.com/spf13/cobra"
)

// langCmd represents the lang command
var langCmd = &cobra.Command{
	Use:   "lang [en|hi|hinglish]",
	Short: "Show or set the result language",
	Long: `Show or set the language used for new analyses.

The choice is saved and applies to future requests only. Past analyses
keep the language they were produced in.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"en", "hi", "hinglish"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.finish(ctx)

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			current := a.store.Language()
			for _, l := range internal.SupportedLanguages {
				marker := " "
				if l == current {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-9s %s\n", marker, l, l.DisplayName())
			}
			return nil
		}

		lang, err := internal.ParseLanguage(args[0])
		if err != nil {
			return err
		}
		a.pipeline.SetLanguage(lang)
		if err := internal.SaveSettings(a.cfg.Cache.Dir, &internal.Settings{Language: lang}); err != nil {
			return fmt.Errorf("failed to save language preference: %w", err)
		}
		internal.PrintSuccess(fmt.Sprintf("Language set to %s", lang.DisplayName()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(langCmd)
}
