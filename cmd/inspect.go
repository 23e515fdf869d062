package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/iksnae/darkscan/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat     string
	inspectSampleRows int
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [database-path]",
	Short: "Inspect the local cache database",
	Long: `Inspect the schema and contents of the local analysis cache.

This command provides:
  • Database schema (tables, columns, types)
  • Row counts
  • Sample rows from each table

The database is opened read-only.

Examples:
  darkscan inspect                        # Inspect the configured cache
  darkscan inspect /path/to/darkscan.db   # Inspect a specific file
  darkscan inspect --format json --sample 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dbPath string
		if len(args) > 0 {
			dbPath = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			dbPath = filepath.Join(cfg.Cache.Dir, internal.CacheFileName)
		}

		report, err := inspectDatabase(cmd.Context(), dbPath, inspectSampleRows)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch inspectFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case "text", "":
			printReport(out, report)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}
	},
}

// DatabaseReport describes a cache database
type DatabaseReport struct {
	Path   string        `json:"path"`
	Tables []TableReport `json:"tables"`
}

// TableReport describes one table
type TableReport struct {
	Name    string              `json:"name"`
	Rows    int                 `json:"rows"`
	Columns []ColumnInfo        `json:"columns"`
	Sample  []map[string]string `json:"sample,omitempty"`
}

// ColumnInfo is one column from PRAGMA table_info
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

func inspectDatabase(ctx context.Context, dbPath string, sampleRows int) (*DatabaseReport, error) {
	db, err := internal.OpenDatabaseReadOnly(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	tables, err := getTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}

	report := &DatabaseReport{Path: dbPath, Tables: make([]TableReport, 0, len(tables))}
	for _, name := range tables {
		table, err := inspectTable(ctx, db, name, sampleRows)
		if err != nil {
			internal.LogWarn("Error inspecting table %s: %v", name, err)
			continue
		}
		report.Tables = append(report.Tables, *table)
	}
	return report, nil
}

func getTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func inspectTable(ctx context.Context, db *sql.DB, name string, sampleRows int) (*TableReport, error) {
	table := &TableReport{Name: name}
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q", name)).Scan(&table.Rows); err != nil {
		return nil, fmt.Errorf("failed to get row count: %w", err)
	}

	columns, err := getTableSchema(ctx, db, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	table.Columns = columns

	if table.Rows > 0 && sampleRows > 0 {
		sample, err := sampleData(ctx, db, name, columns, sampleRows)
		if err != nil {
			return nil, fmt.Errorf("failed to read sample rows: %w", err)
		}
		table.Sample = sample
	}
	return table, nil
}

func getTableSchema(ctx context.Context, db *sql.DB, name string) ([]ColumnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var cid, notNull, pk int
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			continue
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func sampleData(ctx context.Context, db *sql.DB, name string, columns []ColumnInfo, limit int) ([]map[string]string, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	colNames := make([]string, len(columns))
	for i, col := range columns {
		colNames[i] = fmt.Sprintf("%q", col.Name)
	}

	query := fmt.Sprintf("SELECT %s FROM %q LIMIT %d", strings.Join(colNames, ", "), name, limit)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sample []map[string]string
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]string, len(columns))
		for i, col := range columns {
			row[col.Name] = formatValue(values[i])
		}
		sample = append(sample, row)
	}
	return sample, rows.Err()
}

func formatValue(v interface{}) string {
	var s string
	switch val := v.(type) {
	case nil:
		return "<NULL>"
	case []byte:
		s = string(val)
	default:
		s = fmt.Sprintf("%v", val)
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	return s
}

func printReport(w io.Writer, report *DatabaseReport) {
	fmt.Fprintf(w, "📋 Database: %s\n", report.Path)
	if len(report.Tables) == 0 {
		fmt.Fprintln(w, "⚠️  No tables found in database")
		return
	}
	fmt.Fprintf(w, "📊 Found %d table(s)\n\n", len(report.Tables))

	for _, table := range report.Tables {
		fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(w, "📦 Table: %s\n", table.Name)
		fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(w, "📊 Rows: %d\n\n", table.Rows)

		fmt.Fprintln(w, "📐 Schema:")
		for _, col := range table.Columns {
			pk := ""
			if col.PrimaryKey {
				pk = " [PRIMARY KEY]"
			}
			notNull := ""
			if col.NotNull {
				notNull = " NOT NULL"
			}
			fmt.Fprintf(w, "  • %s: %s%s%s\n", col.Name, col.Type, notNull, pk)
		}

		if len(table.Sample) > 0 {
			fmt.Fprintf(w, "\n📄 Sample Data (first %d rows):\n", len(table.Sample))
			for i, row := range table.Sample {
				fmt.Fprintf(w, "\n  Row %d:\n", i+1)
				for _, col := range table.Columns {
					fmt.Fprintf(w, "    %s: %s\n", col.Name, row[col.Name])
				}
			}
		}
		fmt.Fprintln(w)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 3, "Number of sample rows to show")
}
