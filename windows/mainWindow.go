package windows

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	delta_sharing "github.com/magpierre/go_delta_sharing_client"
	"go.uber.org/zap"

	"github.com/magpierre/ontogrid/datagrid"
	"github.com/magpierre/ontogrid/internal/config"
	"github.com/magpierre/ontogrid/internal/source"
	"github.com/magpierre/ontogrid/internal/viewstate"
)

// MainWindow hosts one grid tab per loaded table.
type MainWindow struct {
	a         fyne.App
	w         fyne.Window
	cfg       *config.Config
	logger    *zap.Logger
	views     *viewstate.Store
	columns   []config.ColumnDef
	docTabs   *container.DocTabs
	statusBar *widget.Label
	tabs      map[*container.TabItem]*GridTab
}

// NewMainWindow builds the main window on app a. columns, when set, replace
// the inferred columns of every loaded table.
func NewMainWindow(a fyne.App, cfg *config.Config, logger *zap.Logger, columns []config.ColumnDef) *MainWindow {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &MainWindow{
		a:       a,
		cfg:     cfg,
		logger:  logger,
		views:   viewstate.NewStore(a.Preferences(), logger.Named("views")),
		columns: columns,
		tabs:    make(map[*container.TabItem]*GridTab),
	}
	t.a.Settings().SetTheme(&GridTheme{})
	t.w = a.NewWindow("OntoGrid")
	t.w.Resize(fyne.NewSize(1000, 700))

	t.statusBar = widget.NewLabel("Ready")
	t.statusBar.TextStyle = fyne.TextStyle{Italic: true}

	t.docTabs = container.NewDocTabs()
	t.docTabs.OnSelected = func(ti *container.TabItem) {
		if tab := t.tabs[ti]; tab != nil {
			t.SetStatus(tab.Grid.Status())
		}
	}
	t.docTabs.OnClosed = func(ti *container.TabItem) {
		if tab := t.tabs[ti]; tab != nil {
			tab.close()
		}
		delete(t.tabs, ti)
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), t.OpenSourceDialog),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			if tab := t.currentTab(); tab != nil {
				t.showExportDialog(tab)
			}
		}),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			if tab := t.currentTab(); tab != nil {
				tab.Model.ClearFilters()
			}
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			if tab := t.currentTab(); tab != nil {
				if err := tab.saveView(t.views); err != nil {
					dialog.ShowError(err, t.w)
					return
				}
				t.SetStatus("View saved: " + tab.Name)
			}
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			if tab := t.currentTab(); tab != nil {
				t.views.Delete(tab.Name)
				t.SetStatus("View removed: " + tab.Name)
			}
		}),
	)

	t.w.SetContent(container.NewBorder(toolbar, container.NewHBox(t.statusBar), nil, nil, t.docTabs))
	t.w.SetOnClosed(func() {
		for _, tab := range t.tabs {
			tab.close()
		}
	})
	return t
}

// Window returns the main window.
func (t *MainWindow) Window() fyne.Window {
	return t.w
}

// ShowAndRun shows the window and runs the application loop.
func (t *MainWindow) ShowAndRun() {
	t.w.ShowAndRun()
}

// SetStatus updates the status bar message
func (t *MainWindow) SetStatus(message string) {
	if t.statusBar != nil {
		t.statusBar.SetText(message)
	}
}

func (t *MainWindow) currentTab() *GridTab {
	return t.tabs[t.docTabs.Selected()]
}

// OpenSourceDialog lets the user pick a data file or a Delta Sharing
// profile.
func (t *MainWindow) OpenSourceDialog() {
	NewSourceDialog(t.w, "", func(path string) {
		if err := t.Open(path); err != nil {
			dialog.ShowError(err, t.w)
		}
	}).Show()
}

// Open loads a data file into a new tab, or lists the tables of a Delta
// Sharing profile.
func (t *MainWindow) Open(path string) error {
	return t.OpenFiles([]string{path})
}

// OpenFiles opens several paths at once. Data files are loaded
// concurrently, each into its own tab. Paths that cannot be opened are
// reported together; the others still load.
func (t *MainWindow) OpenFiles(paths []string) error {
	var (
		files []source.Source
		errs  []error
	)
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err))
			continue
		}
		if source.IsDeltaSharingProfile(content) {
			t.openProfile(string(content))
			continue
		}
		if source.DetectFileType(path, content) == source.FileTypeUnknown {
			errs = append(errs, fmt.Errorf("%w: %s", source.ErrUnsupportedFile, filepath.Base(path)))
			continue
		}
		files = append(files, &source.File{Path: path, Logger: t.logger})
	}

	switch len(files) {
	case 0:
	case 1:
		t.load(filepath.Base(files[0].(*source.File).Path), "", files...)
	default:
		t.load(fmt.Sprintf("%d files", len(files)), "", files...)
	}
	return errors.Join(errs...)
}

// load runs srcs in the background behind a progress dialog and shows each
// result in a tab. Tables loaded from files are watched when enabled.
func (t *MainWindow) load(name, where string, srcs ...source.Source) {
	t.SetStatus("Loading " + name + "...")
	progress := dialog.NewCustomWithoutButtons(fmt.Sprintf("Loading %s...", name), widget.NewProgressBarInfinite(), t.w)
	progress.Resize(fyne.NewSize(300, 100))
	progress.Show()

	go func() {
		tables, err := source.LoadAll(context.Background(), t.cfg.LoadLimit, srcs...)
		fyne.Do(func() {
			progress.Hide()
			if err != nil {
				t.logger.Error("load failed", zap.String("source", name), zap.Error(err))
				t.SetStatus("Error loading " + name)
				dialog.ShowError(err, t.w)
				return
			}
			for i, table := range tables {
				tab, err := t.ShowTable(table, where)
				if err != nil {
					dialog.ShowError(err, t.w)
					continue
				}
				if f, ok := srcs[i].(*source.File); ok && t.cfg.Watch {
					t.watch(tab, f)
				}
			}
		})
	}()
}

// watch reloads tab whenever its file changes on disk.
func (t *MainWindow) watch(tab *GridTab, f *source.File) {
	w, err := source.Watch(context.Background(), f, source.WatchOptions{
		OnReload: func(table *source.Table) {
			fyne.Do(func() {
				tab.refresh(table)
			})
		},
		OnError: func(err error) {
			fyne.Do(func() {
				t.SetStatus(fmt.Sprintf("Reload of %s failed: %v", tab.Name, err))
			})
		},
	})
	if err != nil {
		t.logger.Warn("cannot watch file", zap.String("path", f.Path), zap.Error(err))
		return
	}
	tab.watcher = w
}

// ShowTable opens a tab for table, replacing a tab of the same name. A
// saved view with the table's name is restored.
func (t *MainWindow) ShowTable(table *source.Table, where string) (*GridTab, error) {
	var tab *GridTab
	tab, err := newGridTab(table, TabOptions{
		Config:  t.cfg,
		Columns: t.columns,
		Where:   where,
		Logger:  t.logger,
		OnRowClick: func(row datagrid.Record) {
			showRowDetails(t.w, tab.Model.Columns(), row)
		},
		OnExported: func(uri fyne.URI) {
			t.SetStatus("Exported to " + uri.Name())
		},
	})
	if err != nil {
		return nil, err
	}
	tab.Grid.SetWindow(t.w)
	tab.restoreView(t.views)
	tab.Model.OnChange(func() {
		if t.currentTab() == tab {
			t.SetStatus(tab.Grid.Status())
		}
	})

	for item, existing := range t.tabs {
		if existing.Name == tab.Name {
			existing.close()
			t.docTabs.Remove(item)
			delete(t.tabs, item)
		}
	}
	tab.item = container.NewTabItem(tab.Name, tab.Grid)
	t.tabs[tab.item] = tab
	t.docTabs.Append(tab.item)
	t.docTabs.Select(tab.item)
	t.SetStatus(tab.Grid.Status())

	t.logger.Info("opened table", zap.String("table", tab.Name), zap.Int("rows", tab.Model.TotalCount()))
	return tab, nil
}

// openProfile lists the profile's tables and lets the user load one.
func (t *MainWindow) openProfile(profile string) {
	t.SetStatus("Loading profile...")
	go func() {
		tables, err := source.ListTables(context.Background(), profile, t.cfg.DeltaSharing.Timeout)
		fyne.Do(func() {
			if err != nil {
				t.SetStatus("Error listing tables")
				dialog.ShowError(err, t.w)
				return
			}
			t.SetStatus(fmt.Sprintf("Profile loaded: %d tables", len(tables)))
			t.chooseTable(profile, tables)
		})
	}()
}

func (t *MainWindow) chooseTable(profile string, tables []delta_sharing.Table) {
	refs := make([]string, len(tables))
	byRef := make(map[string]delta_sharing.Table, len(tables))
	for i, tbl := range tables {
		refs[i] = source.TableRef(tbl)
		byRef[refs[i]] = tbl
	}

	list := widget.NewSelect(refs, nil)
	dialog.ShowCustomConfirm("Open Table", "Next", "Cancel", list, func(confirmed bool) {
		if !confirmed || list.Selected == "" {
			return
		}
		table := byRef[list.Selected]
		ShowQueryOptionsDialog(t.w, list.Selected, func(req QueryRequest) {
			opts := req.Options
			t.load(table.Name, req.Where, &source.DeltaSharing{
				Profile: profile,
				Table:   table,
				Options: &opts,
				Timeout: t.cfg.DeltaSharing.Timeout,
				Logger:  t.logger,
			})
		})
	}, t.w)
}
