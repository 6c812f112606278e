package datagrid

import "errors"

// Common errors returned by the datagrid package.
var (
	// ErrColumnNotFound is returned when a column key is not found.
	ErrColumnNotFound = errors.New("column not found")

	// ErrInvalidRow is returned when a visible row index is out of range.
	ErrInvalidRow = errors.New("invalid row index")

	// ErrExportFailed is returned when export operation fails.
	ErrExportFailed = errors.New("export failed")
)
