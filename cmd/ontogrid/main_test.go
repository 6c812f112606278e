package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/magpierre/ontogrid/datagrid"
	"github.com/magpierre/ontogrid/internal/config"
	"github.com/magpierre/ontogrid/internal/export"
)

func setup(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	cfg = &config.Config{Locale: "en", GraphQL: config.GraphQLConfig{Timeout: 5 * time.Second}}
	t.Cleanup(func() {
		exportFlags, queryFlags = gridFlags{out: "-"}, gridFlags{out: "-"}
		tableRef, limit = "", 0
		endpoint, queryFile, resultPath, variablesJSON = "", "", "", ""
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestParseSortFlag(t *testing.T) {
	s, err := parseSortFlag("age:DESC")
	require.NoError(t, err)
	assert.Equal(t, &datagrid.SortState{Key: "age", Direction: datagrid.SortDescending}, s)

	s, err = parseSortFlag("name")
	require.NoError(t, err)
	assert.Equal(t, datagrid.SortAscending, s.Direction)

	s, err = parseSortFlag("")
	require.NoError(t, err)
	assert.Nil(t, s)

	for _, bad := range []string{"age:up", ":desc"} {
		_, err := parseSortFlag(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFilterFlags(t *testing.T) {
	f, err := parseFilterFlags([]string{"name=jo", "city=", "name=ja=ne"})
	require.NoError(t, err)
	assert.Equal(t, datagrid.Filters{"name": "ja=ne", "city": ""}, f)

	_, err = parseFilterFlags([]string{"nameonly"})
	assert.Error(t, err)
	_, err = parseFilterFlags([]string{"=x"})
	assert.Error(t, err)
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format, out string
		want        export.Format
	}{
		{"", "-", export.FormatCSV},
		{"", "rows.parquet", export.FormatParquet},
		{"", "rows.JSON", export.FormatJSON},
		{"", "rows.txt", export.FormatCSV},
		{"json", "rows.csv", export.FormatJSON},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.format, tt.out)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s", tt.format, tt.out)
	}

	_, err := resolveFormat("xml", "")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestRunExportCSV(t *testing.T) {
	setup(t)
	path := writeFile(t, "people.csv", "id,name,age\n1,John,30\n2,Jane,25\n3,Bob,41\n4,Joan,\n")

	exportFlags = gridFlags{sort: "age:desc", filters: []string{"name=jo"}, out: "-"}
	cmd, buf := testCmd()
	require.NoError(t, runExport(cmd, []string{path}))

	assert.Equal(t, "id,name,age\n1,John,30\n4,Joan,\n", buf.String())
}

func TestRunExportWhereToJSONFile(t *testing.T) {
	setup(t)
	path := writeFile(t, "people.csv", "id,name,age\n1,John,30\n2,Jane,25\n3,Bob,41\n")
	out := filepath.Join(t.TempDir(), "adults.json")

	exportFlags = gridFlags{where: "age >= 30", sort: "name", out: out}
	cmd, buf := testCmd()
	require.NoError(t, runExport(cmd, []string{path}))
	assert.Empty(t, buf.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Bob", rows[0]["name"])
	assert.Equal(t, "John", rows[1]["name"])
}

func TestRunExportWithColumnDefinitions(t *testing.T) {
	setup(t)
	path := writeFile(t, "people.csv", "id,name,age\n1,John,30\n")
	cols := writeFile(t, "cols.yaml", "columns:\n  - key: name\n    label: Full Name\n  - key: age\n    render: fmt.Sprint(value, \" yrs\")\n")

	exportFlags = gridFlags{columns: cols, out: "-"}
	cmd, buf := testCmd()
	require.NoError(t, runExport(cmd, []string{path}))
	assert.Equal(t, "Full Name,age\nJohn,30\n", buf.String())
}

type failingCloser struct {
	bytes.Buffer
	closeErr error
}

func (f *failingCloser) Close() error { return f.closeErr }

func TestRunExportReportsCloseError(t *testing.T) {
	setup(t)
	path := writeFile(t, "people.csv", "id,name\n1,John\n")
	sink := &failingCloser{closeErr: errors.New("no space left on device")}

	orig := createOutput
	createOutput = func(string) (io.WriteCloser, error) { return sink, nil }
	t.Cleanup(func() { createOutput = orig })

	exportFlags = gridFlags{out: "people.out.csv"}
	cmd, _ := testCmd()
	err := runExport(cmd, []string{path})

	require.Error(t, err)
	assert.ErrorIs(t, err, sink.closeErr)
	assert.Contains(t, err.Error(), "people.out.csv")
	assert.Equal(t, "id,name\n1,John", sink.String())
}

func TestRunExportErrors(t *testing.T) {
	setup(t)
	cmd, _ := testCmd()

	assert.Error(t, runExport(cmd, []string{filepath.Join(t.TempDir(), "missing.csv")}))

	profile := writeFile(t, "p.share", `{"shareCredentialsVersion":1,"endpoint":"https://x","bearerToken":"t"}`)
	err := runExport(cmd, []string{profile})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--table is required")

	tableRef = "only.two"
	assert.Error(t, runExport(cmd, []string{profile}))

	exportFlags = gridFlags{where: "height > 1", out: "-"}
	assert.Error(t, runExport(cmd, []string{writeFile(t, "a.csv", "id\n1\n")}))
}

func TestRunQuery(t *testing.T) {
	setup(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Oslo", req.Variables["city"])
		_, _ = w.Write([]byte(`{"data": {"people": [
			{"name": "John", "team": {"name": "Ops"}},
			{"name": "Ann", "team": {"name": "Dev"}}
		]}}`))
	}))
	defer srv.Close()

	endpoint = srv.URL
	queryFile = writeFile(t, "q.graphql", "query($city: String) { people(city: $city) { name team { name } } }")
	resultPath = "data.people"
	variablesJSON = `{"city": "Oslo"}`
	queryFlags = gridFlags{sort: "team.name", out: "-"}

	cmd, buf := testCmd()
	require.NoError(t, runQuery(cmd, nil))
	assert.Equal(t, "name,team.name\nAnn,Dev\nJohn,Ops\n", buf.String())
}

func TestRunQueryNeedsEndpoint(t *testing.T) {
	setup(t)
	cmd, _ := testCmd()
	assert.Error(t, runQuery(cmd, nil))
}
