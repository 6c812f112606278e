package windows

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/magpierre/ontogrid/internal/source"
)

// QueryRequest is the result of the query options dialog.
type QueryRequest struct {
	Options source.QueryOptions
	// Where is a filter expression such as "age > 25 AND city = Oslo".
	Where string
}

var errInvalidLimit = errors.New("invalid limit: must be a positive number")

// parseQueryRequest reads the dialog's text fields. An empty limit means
// no limit.
func parseQueryRequest(columns, where, limit string) (QueryRequest, error) {
	var req QueryRequest
	for _, col := range strings.Split(columns, ",") {
		if trimmed := strings.TrimSpace(col); trimmed != "" {
			req.Options.SelectedColumns = append(req.Options.SelectedColumns, trimmed)
		}
	}
	req.Where = strings.TrimSpace(where)

	if limitText := strings.TrimSpace(limit); limitText != "" {
		n, err := strconv.ParseInt(limitText, 10, 64)
		if err != nil || n <= 0 {
			return QueryRequest{}, errInvalidLimit
		}
		req.Options.Limit = n
	}
	return req, nil
}

// ShowQueryOptionsDialog asks for column selection, a filter expression and
// a row limit before a Delta Sharing table is loaded.
func ShowQueryOptionsDialog(w fyne.Window, tableName string, callback func(QueryRequest)) {
	columnEntry := widget.NewEntry()
	columnEntry.SetPlaceHolder("Leave empty for all columns, or comma-separated list")

	whereEntry := widget.NewMultiLineEntry()
	whereEntry.SetPlaceHolder("e.g., age > 25 AND status = 'active'")
	whereEntry.SetMinRowsVisible(3)

	limitEntry := widget.NewEntry()
	limitEntry.SetText("1000")
	limitEntry.SetPlaceHolder("Leave empty for all rows")

	bold := func(s string) *widget.Label {
		l := widget.NewLabel(s)
		l.TextStyle = fyne.TextStyle{Bold: true}
		return l
	}
	help := func(s string) *widget.Label {
		l := widget.NewLabel(s)
		l.TextStyle = fyne.TextStyle{Italic: true}
		return l
	}

	content := container.NewVBox(
		bold("Select Columns:"),
		columnEntry,
		help("Comma-separated column names (e.g., id,name,age)"),
		widget.NewSeparator(),
		bold("Filter Expression:"),
		whereEntry,
		help("Operators: = != > >= < <= ~ combined with AND / OR. Leave empty for no filtering."),
		widget.NewSeparator(),
		bold("Row Limit:"),
		limitEntry,
	)

	d := dialog.NewCustomConfirm(
		fmt.Sprintf("Query Options: %s", tableName),
		"Load Data",
		"Cancel",
		content,
		func(confirmed bool) {
			if !confirmed {
				return
			}
			req, err := parseQueryRequest(columnEntry.Text, whereEntry.Text, limitEntry.Text)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			callback(req)
		},
		w,
	)
	d.Resize(fyne.NewSize(500, 480))
	d.Show()
}
