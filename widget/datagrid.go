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

// Package widget provides a Fyne data grid over a datagrid.Model.
package widget

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/magpierre/ontogrid/datagrid"
)

// NoDataText is shown in the placeholder row of an empty grid.
const NoDataText = "No data"

const (
	ascendingMark  = " ▲"
	descendingMark = " ▼"
)

// DefaultMinColumnWidth is used when Config.MinColumnWidth is zero.
const DefaultMinColumnWidth float32 = 100

// Config holds display settings of a DataGrid.
type Config struct {
	MinColumnWidth float32
	Logger         *zap.Logger
	// OnExported is called with the URI of a completed CSV export.
	OnExported func(uri fyne.URI)
}

// DataGrid displays a model as a table with sortable headers, an optional
// filter bar and an optional CSV export button.
type DataGrid[R any] struct {
	widget.BaseWidget

	model  *datagrid.Model[R]
	config Config
	logger *zap.Logger
	window fyne.Window

	table        *widget.Table
	filterBar    *fyne.Container
	filters      map[string]*widget.Entry
	status       *widget.Label
	exportButton *widget.Button
	content      *fyne.Container

	columns    []datagrid.Column[R]
	colVersion uint64
	widths     map[string]float32
	hidden     map[string]bool
	syncing    bool
}

// NewDataGrid creates a grid showing model.
func NewDataGrid[R any](model *datagrid.Model[R], config Config) *DataGrid[R] {
	if config.MinColumnWidth <= 0 {
		config.MinColumnWidth = DefaultMinColumnWidth
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &DataGrid[R]{
		model:   model,
		config:  config,
		logger:  logger,
		filters: make(map[string]*widget.Entry),
		widths:  make(map[string]float32),
		hidden:  make(map[string]bool),
	}
	g.ExtendBaseWidget(g)
	g.build()

	model.OnChange(g.modelChanged)
	return g
}

// SetWindow sets the parent window used for dialogs.
func (g *DataGrid[R]) SetWindow(w fyne.Window) {
	g.window = w
}

// Model returns the model shown by the grid.
func (g *DataGrid[R]) Model() *datagrid.Model[R] {
	return g.model
}

// CreateRenderer implements fyne.Widget.
func (g *DataGrid[R]) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(g.content)
}

func (g *DataGrid[R]) build() {
	g.table = widget.NewTableWithHeaders(g.tableSize, g.createCell, g.updateCell)
	g.table.ShowHeaderColumn = false
	g.table.CreateHeader = g.createHeader
	g.table.UpdateHeader = g.updateHeader
	g.table.OnSelected = g.selected

	g.status = widget.NewLabel("")
	g.exportButton = widget.NewButtonWithIcon("Export CSV", theme.DocumentSaveIcon(), g.showExportDialog)
	if !g.model.Exportable() {
		g.exportButton.Hide()
	}

	g.filterBar = container.NewHBox()
	if !g.model.Filterable() {
		g.filterBar.Hide()
	}

	bottom := container.NewBorder(nil, nil, nil, g.exportButton, g.status)
	g.content = container.NewBorder(g.filterBar, bottom, nil, nil, g.table)

	g.syncColumns()
	g.updateStatus()
}

// syncColumns rebuilds column dependent parts after the column list
// changed.
func (g *DataGrid[R]) syncColumns() {
	var cols []datagrid.Column[R]
	for _, col := range g.model.Columns() {
		if !g.hidden[col.Key] {
			cols = append(cols, col)
		}
	}
	g.columns = cols
	g.colVersion = g.model.ColumnsVersion()

	g.rebuildFilterBar()
	for i, col := range g.columns {
		g.table.SetColumnWidth(i, g.columnWidth(col))
	}
}

func (g *DataGrid[R]) columnWidth(col datagrid.Column[R]) float32 {
	if w, ok := g.widths[col.Key]; ok {
		return max(w, g.config.MinColumnWidth)
	}
	if col.Width > 0 {
		return max(col.Width, g.config.MinColumnWidth)
	}
	return g.config.MinColumnWidth
}

func (g *DataGrid[R]) rebuildFilterBar() {
	entries := make(map[string]*widget.Entry, len(g.columns))
	objects := make([]fyne.CanvasObject, 0, len(g.columns))
	for _, col := range g.columns {
		entry, ok := g.filters[col.Key]
		if !ok {
			entry = widget.NewEntry()
			entry.SetText(g.model.Filter(col.Key))
			key := col.Key
			entry.OnChanged = func(text string) {
				if !g.syncing {
					g.model.SetFilter(key, text)
				}
			}
		}
		entry.SetPlaceHolder("Filter " + col.Title())
		entries[col.Key] = entry
		sized := container.NewGridWrap(fyne.NewSize(g.columnWidth(col), entry.MinSize().Height), entry)
		objects = append(objects, sized)
	}
	g.filters = entries
	g.filterBar.Objects = objects
	g.filterBar.Refresh()
}

func (g *DataGrid[R]) modelChanged() {
	if g.colVersion != g.model.ColumnsVersion() {
		g.syncColumns()
	}
	g.syncing = true
	for key, entry := range g.filters {
		if text := g.model.Filter(key); entry.Text != text {
			entry.SetText(text)
		}
	}
	g.syncing = false
	g.table.Refresh()
	g.updateStatus()
}

func (g *DataGrid[R]) tableSize() (int, int) {
	if g.model.Empty() {
		return 1, len(g.columns)
	}
	return g.model.VisibleCount(), len(g.columns)
}

func (g *DataGrid[R]) createCell() fyne.CanvasObject {
	label := widget.NewLabel("")
	label.Truncation = fyne.TextTruncateEllipsis
	return label
}

func (g *DataGrid[R]) updateCell(id widget.TableCellID, o fyne.CanvasObject) {
	label := o.(*widget.Label)
	label.TextStyle = fyne.TextStyle{}
	if g.model.Empty() {
		if id.Col == 0 {
			label.TextStyle = fyne.TextStyle{Italic: true}
			label.SetText(NoDataText)
		} else {
			label.SetText("")
		}
		return
	}
	label.SetText(g.CellText(id.Row, id.Col))
}

// CellText returns the displayed text at a visible row and display column.
func (g *DataGrid[R]) CellText(row, col int) string {
	if col < 0 || col >= len(g.columns) {
		return ""
	}
	r, err := g.model.VisibleRow(row)
	if err != nil {
		return ""
	}
	return g.columns[col].Display(r)
}

func (g *DataGrid[R]) createHeader() fyne.CanvasObject {
	b := widget.NewButton("", nil)
	b.Importance = widget.LowImportance
	b.Alignment = widget.ButtonAlignLeading
	return b
}

func (g *DataGrid[R]) updateHeader(id widget.TableCellID, o fyne.CanvasObject) {
	b := o.(*widget.Button)
	if id.Row >= 0 || id.Col < 0 || id.Col >= len(g.columns) {
		b.SetText("")
		b.OnTapped = nil
		return
	}

	col := g.columns[id.Col]
	b.SetText(g.HeaderText(id.Col))
	b.OnTapped = func() {
		g.model.ToggleSort(col.Key)
	}
	if col.Sortable() {
		b.Enable()
	} else {
		b.Disable()
	}
}

// HeaderText returns the header label of a display column including the
// sort direction mark.
func (g *DataGrid[R]) HeaderText(col int) string {
	if col < 0 || col >= len(g.columns) {
		return ""
	}
	c := g.columns[col]
	state := g.model.SortState()
	if state.Key != c.Key {
		return c.Title()
	}
	switch state.Direction {
	case datagrid.SortAscending:
		return c.Title() + ascendingMark
	case datagrid.SortDescending:
		return c.Title() + descendingMark
	default:
		return c.Title()
	}
}

// TapHeader toggles the sort of a display column as a header tap would.
func (g *DataGrid[R]) TapHeader(col int) bool {
	if col < 0 || col >= len(g.columns) {
		return false
	}
	return g.model.ToggleSort(g.columns[col].Key)
}

func (g *DataGrid[R]) selected(id widget.TableCellID) {
	defer g.table.UnselectAll()
	if id.Row < 0 || g.model.Empty() {
		return
	}
	g.model.Click(id.Row)
}

// SetFilterText types text into the filter entry of a column.
func (g *DataGrid[R]) SetFilterText(key, text string) {
	if entry, ok := g.filters[key]; ok {
		g.syncing = true
		entry.SetText(text)
		g.syncing = false
	}
	g.model.SetFilter(key, text)
}

// SetColumnWidths overrides column widths by key.
func (g *DataGrid[R]) SetColumnWidths(widths map[string]float32) {
	for k, w := range widths {
		g.widths[k] = w
	}
	g.syncColumns()
}

// ColumnWidths returns the overridden column widths by key.
func (g *DataGrid[R]) ColumnWidths() map[string]float32 {
	out := make(map[string]float32, len(g.widths))
	for k, w := range g.widths {
		out[k] = w
	}
	return out
}

// SetHidden hides the given columns from display. Hidden columns still
// take part in filtering, sorting and export.
func (g *DataGrid[R]) SetHidden(keys []string) {
	g.hidden = make(map[string]bool, len(keys))
	for _, k := range keys {
		g.hidden[k] = true
	}
	g.syncColumns()
	g.table.Refresh()
}

// Hidden returns the hidden column keys in sorted order.
func (g *DataGrid[R]) Hidden() []string {
	out := make([]string, 0, len(g.hidden))
	for k := range g.hidden {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Status returns the text of the status line.
func (g *DataGrid[R]) Status() string {
	return g.status.Text
}

func (g *DataGrid[R]) updateStatus() {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d rows", g.model.VisibleCount(), g.model.TotalCount())
	if state := g.model.SortState(); state.IsSorted() {
		if col, err := g.model.Column(state.Key); err == nil {
			fmt.Fprintf(&b, " | sorted by %s (%s)", col.Title(), state.Direction)
		}
	}
	g.status.SetText(b.String())
}

// ExportTo writes the visible rows as CSV.
func (g *DataGrid[R]) ExportTo(w io.Writer) error {
	return g.model.WriteCSV(w)
}

func (g *DataGrid[R]) showExportDialog() {
	if g.window == nil {
		g.logger.Warn("export requested without a window")
		return
	}

	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, g.window)
			return
		}
		if writer == nil {
			return
		}
		if err := g.exportToURI(writer); err != nil {
			dialog.ShowError(err, g.window)
		}
	}, g.window)
	save.SetFileName(g.model.ExportName())
	save.SetFilter(storage.NewExtensionFileFilter([]string{datagrid.CSVExtension}))
	save.Show()
}

func (g *DataGrid[R]) exportToURI(writer fyne.URIWriteCloser) error {
	uri := writer.URI()
	if err := g.ExportTo(writer); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%w: %w", datagrid.ErrExportFailed, err)
	}

	g.logger.Info("exported rows",
		zap.String("uri", uri.String()),
		zap.Int("rows", g.model.VisibleCount()))
	if g.config.OnExported != nil {
		g.config.OnExported(uri)
	}
	return nil
}
