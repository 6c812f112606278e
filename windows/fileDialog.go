package windows

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/magpierre/ontogrid/internal/source"
)

// SourceDialog browses the file system for data files and Delta Sharing
// profiles.
type SourceDialog struct {
	dialog      dialog.Dialog
	window      fyne.Window
	callback    func(path string)
	fileList    *widget.List
	files       []string
	homeDir     string
	currentPath string
	pathLabel   *widget.Label
}

// NewSourceDialog creates a dialog that calls callback with the chosen
// file path.
func NewSourceDialog(w fyne.Window, start string, callback func(path string)) *SourceDialog {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	if start == "" {
		start = homeDir
	}
	return &SourceDialog{
		window:      w,
		callback:    callback,
		homeDir:     homeDir,
		currentPath: start,
	}
}

// listEntries returns the visible directories followed by loadable files,
// each group sorted by name.
func listEntries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dirs, files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			dirs = append(dirs, name)
		} else if source.DetectFileType(name, nil) != source.FileTypeUnknown {
			files = append(files, name)
		}
	}
	slices.Sort(dirs)
	slices.Sort(files)
	return append(dirs, files...), nil
}

func (sd *SourceDialog) Show() {
	sd.pathLabel = widget.NewLabel(sd.currentPath)
	sd.pathLabel.Truncation = fyne.TextTruncateEllipsis
	sd.pathLabel.TextStyle = fyne.TextStyle{Bold: true}

	sd.fileList = widget.NewList(
		func() int {
			return len(sd.files)
		},
		func() fyne.CanvasObject {
			return container.NewHBox(widget.NewIcon(theme.DocumentIcon()), widget.NewLabel("template"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			cont := obj.(*fyne.Container)
			icon := cont.Objects[0].(*widget.Icon)
			label := cont.Objects[1].(*widget.Label)

			name := sd.files[id]
			label.SetText(name)
			if info, err := os.Stat(filepath.Join(sd.currentPath, name)); err == nil && info.IsDir() {
				icon.SetResource(theme.FolderIcon())
			} else {
				icon.SetResource(theme.DocumentIcon())
			}
		},
	)

	sd.fileList.OnSelected = func(id widget.ListItemID) {
		fullPath := filepath.Join(sd.currentPath, sd.files[id])
		info, err := os.Stat(fullPath)
		if err != nil {
			return
		}
		if info.IsDir() {
			sd.currentPath = fullPath
			sd.loadDirectory()
			sd.fileList.UnselectAll()
			return
		}
		sd.dialog.Hide()
		sd.callback(fullPath)
	}

	homeButton := widget.NewButtonWithIcon("Home", theme.HomeIcon(), func() {
		sd.currentPath = sd.homeDir
		sd.loadDirectory()
	})
	upButton := widget.NewButtonWithIcon("Up", theme.NavigateBackIcon(), func() {
		if parent := filepath.Dir(sd.currentPath); parent != sd.currentPath {
			sd.currentPath = parent
			sd.loadDirectory()
		}
	})
	refreshButton := widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), sd.loadDirectory)

	filterInfo := widget.NewLabel("Showing: .csv, .tsv, .json, .parquet, .share and .txt files")
	filterInfo.TextStyle = fyne.TextStyle{Italic: true}

	navToolbar := container.NewBorder(nil, nil,
		container.NewHBox(homeButton, upButton, refreshButton), nil,
		sd.pathLabel)

	content := container.NewBorder(
		container.NewVBox(navToolbar, widget.NewSeparator(), filterInfo),
		nil, nil, nil,
		sd.fileList,
	)

	sd.dialog = dialog.NewCustom("Open Data Source", "Close", content, sd.window)
	sd.dialog.Resize(fyne.NewSize(800, 600))
	sd.loadDirectory()
	sd.dialog.Show()
}

func (sd *SourceDialog) loadDirectory() {
	files, err := listEntries(sd.currentPath)
	if err != nil {
		dialog.ShowError(err, sd.window)
		return
	}
	sd.files = files
	sd.pathLabel.SetText(sd.currentPath)
	sd.fileList.Refresh()
}
