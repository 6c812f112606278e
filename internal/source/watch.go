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
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is the quiet period after the last change event before
// a watched file is reloaded.
const DefaultDebounce = 300 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// OnReload receives every successfully reloaded table. It runs on the
	// watcher goroutine.
	OnReload func(*Table)
	// OnError receives load and watch errors. Optional.
	OnError func(error)
}

// Watcher reloads a file whenever it changes on disk.
type Watcher struct {
	file    *File
	path    string
	opts    WatchOptions
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

// Watch starts watching f. The parent directory is watched rather than the
// file itself so editors that save by rename are picked up.
func Watch(ctx context.Context, f *File, opts WatchOptions) (*Watcher, error) {
	if opts.OnReload == nil {
		return nil, fmt.Errorf("watch %s: OnReload is required", f.Path)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	path, err := filepath.Abs(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", f.Path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		file:    f,
		path:    path,
		opts:    opts,
		logger:  logger.With(zap.String("path", path)),
		watcher: fw,
		cancel:  cancel,
	}
	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Debug("watching file")
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(w.opts.Debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
			w.report(err)

		case <-timer.C:
			table, err := w.file.Load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Warn("reload failed", zap.Error(err))
				w.report(err)
				continue
			}
			w.logger.Info("file reloaded", zap.Int("rows", len(table.Rows)))
			w.opts.OnReload(table)
		}
	}
}

func (w *Watcher) report(err error) {
	if w.opts.OnError != nil {
		w.opts.OnError(err)
	}
}

// Stop ends watching and waits for the watcher goroutine. It is safe to
// call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		w.cancel()
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

// LoadAll loads sources concurrently with at most limit loads in flight
// (no bound when limit <= 0). Tables are returned in the order of srcs.
// The first error cancels the remaining loads.
func LoadAll(ctx context.Context, limit int, srcs ...Source) ([]*Table, error) {
	tables := make([]*Table, len(srcs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range srcs {
		g.Go(func() error {
			table, err := src.Load(ctx)
			if err != nil {
				return err
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}
