package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/magpierre/ontogrid/datagrid"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	path := writeFile(t, "live.csv", "id,name\n1,John\n")
	reloaded := make(chan *Table, 8)

	w, err := Watch(context.Background(), &File{Path: path, Logger: zaptest.NewLogger(t)}, WatchOptions{
		Debounce: 50 * time.Millisecond,
		OnReload: func(tbl *Table) {
			select {
			case reloaded <- tbl:
			default:
			}
		},
	})
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,John\n2,Jane\n"), 0o644))

	select {
	case table := <-reloaded:
		require.Len(t, table.Rows, 2)
		assert.Equal(t, "Jane", table.Rows[1]["name"])
	case <-time.After(5 * time.Second):
		t.Fatal("file was not reloaded")
	}

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestWatchRequiresCallback(t *testing.T) {
	_, err := Watch(context.Background(), &File{Path: "x.csv"}, WatchOptions{})
	assert.Error(t, err)
}

func TestWatchMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone", "x.csv")
	_, err := Watch(context.Background(), &File{Path: path}, WatchOptions{OnReload: func(*Table) {}})
	assert.Error(t, err)
}

func TestLoadAllKeepsOrder(t *testing.T) {
	a := writeFile(t, "a.csv", "x\n1\n2\n")
	b := writeFile(t, "b.json", `[{"y":"one"}]`)
	c := writeFile(t, "c.csv", "z\ntrue\n")

	tables, err := LoadAll(context.Background(), 2, &File{Path: a}, &File{Path: b}, &File{Path: c})
	require.NoError(t, err)

	var names []string
	for _, tbl := range tables {
		names = append(names, tbl.Name)
	}
	if diff := cmp.Diff([]string{"a.csv", "b.json", "c.csv"}, names); diff != "" {
		t.Errorf("table order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]datagrid.Record{{"y": "one"}}, tables[1].Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadAllFailsOnFirstError(t *testing.T) {
	a := writeFile(t, "a.csv", "x\n1\n")
	missing := filepath.Join(t.TempDir(), "missing.csv")

	tables, err := LoadAll(context.Background(), 0, &File{Path: a}, &File{Path: missing})
	assert.Error(t, err)
	assert.Nil(t, tables)
}
