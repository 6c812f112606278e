package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/magpierre/ontogrid/internal/source"
)

var (
	exportFlags gridFlags
	tableRef    string
	limit       int64
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Filter, sort and export a data file or Delta Sharing table",
	Long: `Load a CSV, JSON or Parquet file, apply filters and sort, and write the
visible rows. Exported cells hold raw values; render scripts only affect the
desktop view.

When <file> is a Delta Sharing profile, --table selects share.schema.table.`,
	Example: `  ontogrid export people.csv --sort age:desc --filter name=jo
  ontogrid export people.parquet --where "age >= 18" -o adults.json
  ontogrid export profile.share --table sales.eu.orders --limit 500 -o orders.parquet`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportFlags.register(exportCmd)
	exportCmd.Flags().StringVar(&tableRef, "table", "", "Delta Sharing table as share.schema.table")
	exportCmd.Flags().Int64Var(&limit, "limit", 0, "Row limit for Delta Sharing tables (0 for all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	src, err := openSource(args[0])
	if err != nil {
		return err
	}

	table, err := src.Load(cmdContext(cmd))
	if err != nil {
		return err
	}
	return runGrid(cmd, table, exportFlags)
}

// openSource returns a file source, or a Delta Sharing source when path is
// a profile.
func openSource(path string) (source.Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if !source.IsDeltaSharingProfile(content) {
		return &source.File{Path: path, Logger: logger}, nil
	}

	if tableRef == "" {
		return nil, fmt.Errorf("%s is a Delta Sharing profile: --table is required", filepath.Base(path))
	}
	table, err := source.ParseTableRef(tableRef)
	if err != nil {
		return nil, err
	}
	logger.Debug("using delta sharing source", zap.String("table", tableRef))
	return &source.DeltaSharing{
		Profile: string(content),
		Table:   table,
		Options: &source.QueryOptions{Limit: limit},
		Timeout: cfg.DeltaSharing.Timeout,
		Logger:  logger,
	}, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
