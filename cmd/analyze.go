package cmd

import (
	"fmt"

	"github.com/iksnae/darkscan/internal"
	"github.com/spf13/cobra"
)

var (
	analyzeLang   string
	analyzeFormat string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyze a screenshot for dark patterns",
	Long: `Send a screenshot to the analysis service and show the result.

The image may be a file path, a file:// URI or a data: URI. The result
becomes the current analysis and is cached locally.

Only one analysis runs at a time. Nothing is retried automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.finish(ctx)

		lang := internal.Language("")
		if analyzeLang != "" {
			lang, err = internal.ParseLanguage(analyzeLang)
			if err != nil {
				return err
			}
		}

		ref := internal.ImageRef(args[0])
		var result *internal.Analysis
		err = internal.ShowProgress(ctx, fmt.Sprintf("Analyzing %s", ref.Label()), func() error {
			var reqErr error
			result, reqErr = a.pipeline.RequestAnalysis(ctx, ref, lang)
			return reqErr
		})
		if err != nil {
			return withHint(err)
		}

		return writeAnalysis(cmd.OutOrStdout(), result, analyzeFormat, a.store.Language())
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeLang, "lang", "l", "", "Result language (en, hi, hinglish); defaults to the saved preference")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", textFormat, "Output format (text, json, yaml, md, jsonl)")
}
