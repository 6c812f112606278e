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

package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	delta_sharing "github.com/magpierre/go_delta_sharing_client"
	"go.uber.org/zap"
)

// DeltaSharing loads one file of a Delta Sharing table.
type DeltaSharing struct {
	// Profile is the JSON content of a Delta Sharing profile.
	Profile string
	Table   delta_sharing.Table
	// FileID selects the file to load. Empty loads the first file.
	FileID  string
	Options *QueryOptions
	Timeout time.Duration
	Logger  *zap.Logger
}

// ParseTableRef parses "share.schema.table" into a table reference.
func ParseTableRef(ref string) (delta_sharing.Table, error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 3 {
		return delta_sharing.Table{}, fmt.Errorf("invalid table reference %q: expected share.schema.table", ref)
	}
	for _, p := range parts {
		if p == "" {
			return delta_sharing.Table{}, fmt.Errorf("invalid table reference %q: empty component", ref)
		}
	}
	return delta_sharing.Table{Share: parts[0], Schema: parts[1], Name: parts[2]}, nil
}

// TableRef formats a table as "share.schema.table".
func TableRef(t delta_sharing.Table) string {
	return t.Share + "." + t.Schema + "." + t.Name
}

// Load fetches the selected file as an Arrow table, applies the query
// options and converts it to records.
func (d *DeltaSharing) Load(ctx context.Context) (*Table, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := delta_sharing.NewSharingClientV2FromString(d.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create Delta Sharing client: %w", err)
	}

	ctx, cancel := timeoutContext(ctx, d.Timeout)
	defer cancel()

	resp, err := client.ListFilesInTable(ctx, d.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to list files in %s: %w", TableRef(d.Table), err)
	}
	if len(resp.AddFiles) == 0 {
		return nil, fmt.Errorf("%w: %s has no files", ErrEmptyData, TableRef(d.Table))
	}

	fileID := d.FileID
	if fileID == "" {
		fileID = resp.AddFiles[0].Id
	}
	found := false
	for _, f := range resp.AddFiles {
		if f.Id == fileID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("file %q not found in %s", fileID, TableRef(d.Table))
	}

	logger.Debug("loading delta sharing file",
		zap.String("table", TableRef(d.Table)),
		zap.String("file", fileID))

	arrowTable, err := delta_sharing.LoadArrowTable(ctx, client, d.Table, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", TableRef(d.Table), err)
	}
	defer arrowTable.Release()

	narrowed, err := ApplyQueryOptions(arrowTable, d.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to apply query options: %w", err)
	}
	if narrowed != arrowTable {
		defer narrowed.Release()
	}

	table, err := FromArrowTable(d.Table.Name, narrowed)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded delta sharing table",
		zap.String("table", TableRef(d.Table)),
		zap.Int("rows", len(table.Rows)))
	return table, nil
}

// ListTables returns every table visible to the profile.
func ListTables(ctx context.Context, profile string, timeout time.Duration) ([]delta_sharing.Table, error) {
	client, err := delta_sharing.NewSharingClientV2FromString(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create Delta Sharing client: %w", err)
	}

	ctx, cancel := timeoutContext(ctx, timeout)
	defer cancel()

	// maxConcurrency 0 uses the client default.
	tables, _, err := client.ListAllTables_V2(ctx, 0, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list all tables: %w", err)
	}
	return tables, nil
}
