package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iksnae/darkscan/internal"
	"github.com/spf13/cobra"
)

var (
	watchSettle time.Duration
	watchLang   string
	watchFormat string
	watchLimit  int
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Analyze screenshots as they appear in a folder",
	Long: `Watch a folder and analyze every new screenshot saved into it.

Files are picked up once they have stopped changing for the settle
period. Screenshots are analyzed one at a time in arrival order. Press
Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.finish(context.WithoutCancel(ctx))

		lang := internal.Language("")
		if watchLang != "" {
			if lang, err = internal.ParseLanguage(watchLang); err != nil {
				return err
			}
		}

		watcher, err := internal.NewScreenshotWatcher(args[0], &internal.WatcherConfig{
			Settle:     watchSettle,
			BufferSize: 32,
			Extensions: internal.ImageExtensions,
		})
		if err != nil {
			return err
		}
		watcher.Start(ctx)
		defer watcher.Stop()

		internal.PrintInfo(fmt.Sprintf("Watching %s for screenshots (Ctrl+C to stop)", watcher.Dir()))

		out := cmd.OutOrStdout()
		analyzed := 0
		for ref := range watcher.Refs() {
			result, err := a.pipeline.RequestAnalysis(ctx, ref, lang)
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				internal.LogError("Failed to analyze %s: %v", ref.Label(), withHint(err))
				continue
			}
			if err := writeAnalysis(out, result, watchFormat, a.store.Language()); err != nil {
				return err
			}
			fmt.Fprintln(out)
			a.persist(ctx)

			analyzed++
			if watchLimit > 0 && analyzed >= watchLimit {
				break
			}
		}

		internal.PrintSuccess(fmt.Sprintf("Analyzed %d screenshot(s)", analyzed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchSettle, "settle", internal.DefaultWatcherConfig().Settle, "How long a file must stay unchanged before it is analyzed")
	watchCmd.Flags().StringVarP(&watchLang, "lang", "l", "", "Result language (en, hi, hinglish)")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", textFormat, "Output format (text, json, yaml, md, jsonl)")
	watchCmd.Flags().IntVar(&watchLimit, "limit", 0, "Stop after this many analyses (0 = no limit)")
}
