package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iksnae/darkscan/internal"
	"github.com/spf13/cobra"
)

var classifyLang string

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <score>",
	Short: "Show the risk tier for a DPI score",
	Long: `Show the risk tier, colour and icon for a Dark Pattern Index score.

Scores outside 0-100 are clamped. No network access is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return fmt.Errorf("invalid score %q: must be an integer", args[0])
		}
		lang, err := internal.ParseLanguage(classifyLang)
		if err != nil {
			return err
		}
		renderClassification(cmd.OutOrStdout(), score, lang)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVarP(&classifyLang, "lang", "l", string(internal.DefaultLanguage), "Language for the tier label")
}
