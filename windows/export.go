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
	"io"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/magpierre/ontogrid/datagrid"
	"github.com/magpierre/ontogrid/internal/export"
)

var exportFormats = []export.Format{export.FormatCSV, export.FormatJSON, export.FormatParquet}

// exportTab writes the tab's visible rows in the given format.
func exportTab(w io.Writer, tab *GridTab, format export.Format) error {
	return export.Write(w, format, tab.Model.Columns(), tab.Model.Visible())
}

// exportFileName returns the suggested file name for a format.
func exportFileName(tab *GridTab, format export.Format) string {
	return strings.TrimSuffix(tab.Model.ExportName(), datagrid.CSVExtension) + format.Extension()
}

// showExportDialog lets the user pick a format and a destination for the
// visible rows of tab.
func (t *MainWindow) showExportDialog(tab *GridTab) {
	names := make([]string, len(exportFormats))
	for i, f := range exportFormats {
		names[i] = strings.ToUpper(f.String())
	}
	formatSelect := widget.NewRadioGroup(names, nil)
	formatSelect.SetSelected(names[0])

	dialog.ShowCustomConfirm("Export Data", "Choose File", "Cancel", formatSelect, func(confirmed bool) {
		if !confirmed {
			return
		}
		format, err := export.ParseFormat(formatSelect.Selected)
		if err != nil {
			dialog.ShowError(err, t.w)
			return
		}

		save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, t.w)
				return
			}
			if writer == nil {
				return
			}
			defer writer.Close()

			if err := exportTab(writer, tab, format); err != nil {
				dialog.ShowError(err, t.w)
				return
			}
			t.logger.Info("exported table",
				zap.String("table", tab.Name),
				zap.Stringer("format", format),
				zap.String("uri", writer.URI().String()))
			t.SetStatus(fmt.Sprintf("Exported %d rows to %s", tab.Model.VisibleCount(), writer.URI().Name()))
		}, t.w)
		save.SetFileName(exportFileName(tab, format))
		save.SetFilter(storage.NewExtensionFileFilter([]string{format.Extension()}))
		if abs, err := filepath.Abs(t.cfg.ExportDir); err == nil {
			if dir, err := storage.ListerForURI(storage.NewFileURI(abs)); err == nil {
				save.SetLocation(dir)
			}
		}
		save.Show()
	}, t.w)
}
