package main

import (
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"github.com/spf13/cobra"

	"github.com/magpierre/ontogrid/internal/config"
	"github.com/magpierre/ontogrid/windows"
)

// AppID identifies the application's preference store.
const AppID = "io.github.magpierre.ontogrid"

var (
	viewColumns string
	viewWatch   bool
)

var viewCmd = &cobra.Command{
	Use:   "view [file...]",
	Short: "Open the desktop data browser",
	Long: `Open the desktop browser. Data files and Delta Sharing profiles given as
arguments are opened at start, each table in its own tab.

With --watch, tabs loaded from files reload when the file changes on disk.
Sort and filters are kept across reloads.`,
	Example: `  ontogrid view people.csv orders.parquet
  ontogrid view --watch --columns people.columns.yaml people.csv`,
	Args: cobra.ArbitraryArgs,
	RunE: runView,
}

func init() {
	viewCmd.Flags().StringVar(&viewColumns, "columns", "", "Column definition YAML file applied to every table")
	viewCmd.Flags().BoolVarP(&viewWatch, "watch", "w", false, "Reload file tabs when the file changes (default: watch from config)")
}

func runView(cmd *cobra.Command, args []string) error {
	var defs []config.ColumnDef
	if viewColumns != "" {
		var err error
		if defs, err = config.LoadColumns(viewColumns); err != nil {
			return err
		}
	}

	if viewWatch {
		cfg.Watch = true
	}

	mw := windows.NewMainWindow(app.NewWithID(AppID), cfg, logger.Named("gui"), defs)
	if len(args) > 0 {
		if err := mw.OpenFiles(args); err != nil {
			dialog.ShowError(err, mw.Window())
		}
	}
	mw.ShowAndRun()
	return nil
}
