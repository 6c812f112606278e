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

// Package viewstate persists named grid views in the application's
// preference store.
package viewstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"fyne.io/fyne/v2"
	"go.uber.org/zap"

	"github.com/magpierre/ontogrid/datagrid"
)

const (
	keyPrefix = "view."
	indexKey  = "views.index"
)

// ErrInvalidName is returned for an empty view name.
var ErrInvalidName = errors.New("view name must not be empty")

// View is the persisted state of one grid.
type View struct {
	Sort    datagrid.SortState `json:"sort"`
	Filters datagrid.Filters   `json:"filters,omitempty"`
	Widths  map[string]float32 `json:"widths,omitempty"`
	Hidden  []string           `json:"hidden,omitempty"`
}

// Store reads and writes views.
type Store struct {
	prefs  fyne.Preferences
	logger *zap.Logger
}

// NewStore creates a Store over prefs. logger may be nil.
func NewStore(prefs fyne.Preferences, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{prefs: prefs, logger: logger}
}

// Load returns the named view. Unknown names and corrupt entries yield the
// zero view.
func (s *Store) Load(name string) View {
	raw := s.prefs.String(keyPrefix + name)
	if raw == "" {
		return View{}
	}

	var v View
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.Warn("discarding corrupt view", zap.String("view", name), zap.Error(err))
		return View{}
	}
	return v
}

// Save stores the view under name and records the name in the index.
func (s *Store) Save(name string, v View) error {
	if name == "" {
		return ErrInvalidName
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode view %q: %w", name, err)
	}
	s.prefs.SetString(keyPrefix+name, string(data))

	names := s.Names()
	if !slices.Contains(names, name) {
		names = append(names, name)
		slices.Sort(names)
		s.prefs.SetStringList(indexKey, names)
	}

	s.logger.Debug("saved view", zap.String("view", name))
	return nil
}

// Delete removes the named view. Deleting an unknown view is a no-op.
func (s *Store) Delete(name string) {
	s.prefs.RemoveValue(keyPrefix + name)

	names := s.Names()
	if i := slices.Index(names, name); i >= 0 {
		s.prefs.SetStringList(indexKey, slices.Delete(names, i, i+1))
	}
}

// Names returns the saved view names in sorted order.
func (s *Store) Names() []string {
	return slices.Clone(s.prefs.StringList(indexKey))
}

// Apply pushes the view's sort and filters onto a model. A sort on a
// column the model does not have is ignored.
func Apply[R any](m *datagrid.Model[R], v View) {
	m.SetFilters(v.Filters)
	if _, err := m.Column(v.Sort.Key); err == nil || !v.Sort.IsSorted() {
		m.SetSort(v.Sort)
	}
}

// Capture reads the model's sort and filters into a view. widths and hidden
// come from the widget showing the model.
func Capture[R any](m *datagrid.Model[R], widths map[string]float32, hidden []string) View {
	v := View{Sort: m.SortState(), Filters: m.Filters(), Hidden: slices.Clone(hidden)}
	if len(widths) > 0 {
		v.Widths = make(map[string]float32, len(widths))
		for k, w := range widths {
			v.Widths[k] = w
		}
	}
	if len(v.Filters) == 0 {
		v.Filters = nil
	}
	return v
}
