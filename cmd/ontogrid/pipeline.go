package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/magpierre/ontogrid/datagrid"
	"github.com/magpierre/ontogrid/internal/config"
	"github.com/magpierre/ontogrid/internal/export"
	"github.com/magpierre/ontogrid/internal/filter"
	"github.com/magpierre/ontogrid/internal/source"
)

// gridFlags are the pipeline flags shared by export and query.
type gridFlags struct {
	sort    string
	filters []string
	where   string
	columns string
	format  string
	out     string
}

func (f *gridFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sort, "sort", "", "Sort by column, as key or key:desc")
	cmd.Flags().StringArrayVar(&f.filters, "filter", nil, "Column filter key=text (repeatable, case-insensitive substring)")
	cmd.Flags().StringVar(&f.where, "where", "", `Filter expression, e.g. "age > 25 AND city = Oslo"`)
	cmd.Flags().StringVar(&f.columns, "columns", "", "Column definition YAML file")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: csv, json or parquet (default: from --out extension, else csv)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "-", "Output file, - for stdout")
}

// parseSortFlag parses "key" or "key:asc" or "key:desc".
func parseSortFlag(s string) (*datagrid.SortState, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	key, dir, _ := strings.Cut(s, ":")
	state := &datagrid.SortState{Key: key, Direction: datagrid.SortAscending}
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		state.Direction = datagrid.SortDescending
	default:
		return nil, fmt.Errorf("invalid sort direction %q: want asc or desc", dir)
	}
	if key == "" {
		return nil, fmt.Errorf("invalid sort %q: missing column", s)
	}
	return state, nil
}

// parseFilterFlags parses key=text pairs. Later pairs for the same key win.
func parseFilterFlags(pairs []string) (datagrid.Filters, error) {
	filters := make(datagrid.Filters, len(pairs))
	for _, p := range pairs {
		key, text, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: want key=text", p)
		}
		filters[key] = text
	}
	return filters, nil
}

// resolveFormat picks the explicit format, else the output extension, else
// CSV.
func resolveFormat(format, out string) (export.Format, error) {
	if format != "" {
		return export.ParseFormat(format)
	}
	if out != "" && out != "-" {
		if i := strings.LastIndex(out, "."); i >= 0 {
			if f, err := export.ParseFormat(out[i:]); err == nil {
				return f, nil
			}
		}
	}
	return export.FormatCSV, nil
}

// buildModel runs a loaded table through the grid pipeline.
func buildModel(table *source.Table, f gridFlags, c *config.Config, log *zap.Logger) (*datagrid.Model[datagrid.Record], error) {
	cols := table.GridColumns()
	if f.columns != "" {
		defs, err := config.LoadColumns(f.columns)
		if err != nil {
			return nil, err
		}
		if cols, err = config.BuildColumns(defs, log); err != nil {
			return nil, err
		}
	}

	sort, err := parseSortFlag(f.sort)
	if err != nil {
		return nil, err
	}
	filters, err := parseFilterFlags(f.filters)
	if err != nil {
		return nil, err
	}
	tag, err := c.Language()
	if err != nil {
		return nil, err
	}

	rows := table.Rows
	if strings.TrimSpace(f.where) != "" {
		expr, err := filter.NewParser(table.ColumnNames()).Parse(f.where)
		if err != nil {
			return nil, err
		}
		rows = datagrid.Where(rows, cols, expr)
		log.Debug("where applied", zap.String("filter", expr.Description()))
	}

	m := datagrid.NewModel(datagrid.Options[datagrid.Record]{
		Rows:        rows,
		Columns:     cols,
		DefaultSort: sort,
		Filterable:  true,
		Exportable:  true,
		Locale:      tag,
	})
	m.SetFilters(filters)

	log.Debug("pipeline applied",
		zap.String("table", table.Name),
		zap.Int("total", len(table.Rows)),
		zap.Int("visible", m.VisibleCount()))
	return m, nil
}

// createOutput opens an export destination.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeModel writes the visible rows to out, or to stdout for "-".
func writeModel(m *datagrid.Model[datagrid.Record], f gridFlags, stdout io.Writer) error {
	format, err := resolveFormat(f.format, f.out)
	if err != nil {
		return err
	}

	if f.out == "" || f.out == "-" {
		if err := export.Write(stdout, format, m.Columns(), m.Visible()); err != nil {
			return err
		}
		if format == export.FormatCSV {
			fmt.Fprintln(stdout)
		}
		return nil
	}

	file, err := createOutput(f.out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", f.out, err)
	}
	if err := export.Write(file, format, m.Columns(), m.Visible()); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", f.out, err)
	}
	return nil
}

// runGrid builds the model for table and writes it.
func runGrid(cmd *cobra.Command, table *source.Table, f gridFlags) error {
	m, err := buildModel(table, f, cfg, logger)
	if err != nil {
		return err
	}
	if err := writeModel(m, f, cmd.OutOrStdout()); err != nil {
		return err
	}
	logger.Info("rows written",
		zap.String("table", table.Name),
		zap.Int("rows", m.VisibleCount()),
		zap.String("out", f.out))
	return nil
}
