// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package windows

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/magpierre/ontogrid/datagrid"
	"github.com/magpierre/ontogrid/internal/config"
	"github.com/magpierre/ontogrid/internal/filter"
	"github.com/magpierre/ontogrid/internal/source"
	"github.com/magpierre/ontogrid/internal/viewstate"
	gridwidget "github.com/magpierre/ontogrid/widget"
)

// GridTab is one loaded table shown in a doc tab.
type GridTab struct {
	Name  string
	Model *datagrid.Model[datagrid.Record]
	Grid  *gridwidget.DataGrid[datagrid.Record]
	item  *container.TabItem

	where   filter.Filter
	custom  bool
	watcher *source.Watcher
}

// TabOptions configures newGridTab.
type TabOptions struct {
	Config  *config.Config
	Columns []config.ColumnDef
	// Where is a filter expression applied to the loaded rows.
	Where      string
	Logger     *zap.Logger
	OnRowClick func(datagrid.Record)
	OnExported func(fyne.URI)
}

// newGridTab builds the model and grid for a loaded table.
func newGridTab(table *source.Table, opts TabOptions) (*GridTab, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cols := table.GridColumns()
	if len(opts.Columns) > 0 {
		built, err := config.BuildColumns(opts.Columns, logger)
		if err != nil {
			return nil, err
		}
		cols = built
	}

	var where filter.Filter
	rows := table.Rows
	if strings.TrimSpace(opts.Where) != "" {
		f, err := filter.NewParser(table.ColumnNames()).Parse(opts.Where)
		if err != nil {
			return nil, err
		}
		where = f
		rows = datagrid.Where(rows, cols, where)
	}

	tag, err := opts.Config.Language()
	if err != nil {
		return nil, err
	}

	model := datagrid.NewModel(datagrid.Options[datagrid.Record]{
		Rows:           rows,
		Columns:        cols,
		OnRowClick:     opts.OnRowClick,
		Filterable:     opts.Config.Filterable,
		Exportable:     opts.Config.Exportable,
		ExportFilename: exportBaseName(table.Name),
		Locale:         tag,
	})

	grid := gridwidget.NewDataGrid(model, gridwidget.Config{
		MinColumnWidth: opts.Config.MinColumnWidth,
		Logger:         logger.With(zap.String("table", table.Name)),
		OnExported:     opts.OnExported,
	})

	return &GridTab{Name: table.Name, Model: model, Grid: grid, where: where, custom: len(opts.Columns) > 0}, nil
}

// refresh swaps in the rows of a reloaded table. Sort and filters are
// kept. Inferred columns follow the new table when its columns changed.
func (g *GridTab) refresh(table *source.Table) {
	if !g.custom && !slices.Equal(columnKeys(g.Model.Columns()), table.ColumnNames()) {
		g.Model.SetColumns(table.GridColumns())
	}
	rows := table.Rows
	if g.where != nil {
		rows = datagrid.Where(rows, g.Model.Columns(), g.where)
	}
	g.Model.SetRows(rows)
}

// close stops watching the tab's file, if any.
func (g *GridTab) close() {
	if g.watcher != nil {
		_ = g.watcher.Stop()
		g.watcher = nil
	}
}

func columnKeys(cols []datagrid.Column[datagrid.Record]) []string {
	keys := make([]string, len(cols))
	for i, col := range cols {
		keys[i] = col.Key
	}
	return keys
}

// exportBaseName strips the extension and characters that are awkward in
// file names.
func exportBaseName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return datagrid.DefaultExportFilename
	}
	return name
}

// saveView stores the tab's sort, filters and layout under its name.
func (g *GridTab) saveView(store *viewstate.Store) error {
	return store.Save(g.Name, viewstate.Capture(g.Model, g.Grid.ColumnWidths(), g.Grid.Hidden()))
}

// restoreView applies the view saved under the tab's name, if any.
func (g *GridTab) restoreView(store *viewstate.Store) {
	v := store.Load(g.Name)
	viewstate.Apply(g.Model, v)
	if len(v.Widths) > 0 {
		g.Grid.SetColumnWidths(v.Widths)
	}
	if len(v.Hidden) > 0 {
		g.Grid.SetHidden(v.Hidden)
	}
}

// rowDetails formats a row as "label: value" lines in column order.
func rowDetails(columns []datagrid.Column[datagrid.Record], row datagrid.Record) string {
	var b strings.Builder
	for _, col := range columns {
		fmt.Fprintf(&b, "%s: %s\n", col.Title(), col.Display(row))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func showRowDetails(w fyne.Window, columns []datagrid.Column[datagrid.Record], row datagrid.Record) {
	text := widget.NewLabel(rowDetails(columns, row))
	text.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(text)
	scroll.SetMinSize(fyne.NewSize(400, 300))
	dialog.ShowCustom("Row Details", "Close", scroll, w)
}
