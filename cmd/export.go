package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/darkscan/internal"
	"github.com/iksnae/darkscan/internal/export"
	"github.com/spf13/cobra"
)

var (
	format        string
	outputDir     string
	exportHistory bool
	analysisID    string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analyses to file",
	Long: `Export analyses to various formats (json, yaml, md, jsonl).

By default the current analysis is written. Use --id to export one entry
from the cached history, or --history to export the whole cached history
into a single file. Run 'darkscan history' first to refresh the cache.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.close()

		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		var path string
		err = internal.ShowProgress(ctx, fmt.Sprintf("Exporting to %s", outputDir), func() error {
			if exportHistory {
				list := a.store.History()
				path = filepath.Join(outputDir, "history."+exporter.Extension())
				return writeExport(path, format, func(f *os.File) error {
					return export.ExportAll(exporter, list, f)
				})
			}

			var target *internal.Analysis
			if analysisID != "" {
				entry, ok := a.store.FindHistoryEntry(analysisID)
				if !ok {
					return fmt.Errorf("%w: %s", internal.ErrAnalysisNotFound, analysisID)
				}
				target = entry
			} else {
				current, ok := a.store.CurrentAnalysis()
				if !ok {
					return ErrNoCurrentAnalysis
				}
				target = current
			}
			path = filepath.Join(outputDir, fmt.Sprintf("analysis_%s.%s", target.ID, exporter.Extension()))
			return writeExport(path, format, func(f *os.File) error {
				return exporter.Export(target, f)
			})
		})
		if err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %s", path))
		return nil
	},
}

// writeExport creates path and runs fn against it
func writeExport(path, format string, fn func(*os.File) error) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := fn(file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "Export format (json, yaml, md, jsonl)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().BoolVar(&exportHistory, "history", false, "Export the cached history instead of the current analysis")
	exportCmd.Flags().StringVar(&analysisID, "id", "", "Export one analysis from the cached history")
}
