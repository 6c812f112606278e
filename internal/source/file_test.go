package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/magpierre/ontogrid/datagrid"
	"github.com/magpierre/ontogrid/internal/export"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectFileType(t *testing.T) {
	profile := []byte(`{"shareCredentialsVersion":1,"endpoint":"https://x","bearerToken":"t"}`)

	assert.Equal(t, FileTypeCSV, DetectFileType("a.CSV", nil))
	assert.Equal(t, FileTypeParquet, DetectFileType("a.parquet", nil))
	assert.Equal(t, FileTypeJSON, DetectFileType("a.json", []byte(`[{"a":1}]`)))
	assert.Equal(t, FileTypeDeltaSharingProfile, DetectFileType("a.share", profile))
	assert.Equal(t, FileTypeUnknown, DetectFileType("a.xlsx", nil))
}

func TestDetectCSVSeparator(t *testing.T) {
	tests := map[string]rune{
		"a,b,c\n1,2,3": ',',
		"a;b;c":        ';',
		"a\tb\tc":      '\t',
		"a|b":          '|',
		"single":       ',',
		"":             ',',
	}
	for in, want := range tests {
		assert.Equal(t, want, DetectCSVSeparator(strings.NewReader(in)), "%q", in)
	}
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "people.csv", "id; name ;age\n1;John;30\n2;Jane;\n3;Ann Marie;2.5\n")

	table, err := (&File{Path: path, Logger: zaptest.NewLogger(t)}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "people.csv", table.Name)
	assert.Equal(t, []string{"id", "name", "age"}, table.ColumnNames())
	assert.Equal(t, datagrid.TypeNumber, table.Columns[0].Type)
	assert.Equal(t, datagrid.TypeString, table.Columns[1].Type)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, datagrid.Record{"id": int64(2), "name": "Jane", "age": nil}, table.Rows[1])
	assert.Equal(t, 2.5, table.Rows[2]["age"])
}

func TestParseCell(t *testing.T) {
	assert.Nil(t, parseCell("  "))
	assert.Equal(t, int64(-4), parseCell("-4"))
	assert.Equal(t, 1e3, parseCell("1e3"))
	assert.Equal(t, true, parseCell("TRUE"))
	assert.Equal(t, "007a", parseCell("007a"))
}

func TestParseCellKeepsNonDecimalNumbersAsText(t *testing.T) {
	for _, in := range []string{"Nan", "NaN", "inf", "-Infinity", "0x1p-2", "0X10"} {
		assert.Equal(t, in, parseCell(in), "%q", in)
	}
	assert.Equal(t, 0.25, parseCell("0.25"))
	assert.Equal(t, -1.5e-3, parseCell("-1.5E-3"))
}

func TestLoadCSVKeepsNanNameAsText(t *testing.T) {
	path := writeFile(t, "names.csv", "name,score\nNan,1.5\nInf,2\n")

	table, err := (&File{Path: path}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, datagrid.TypeString, table.Columns[0].Type)
	assert.Equal(t, datagrid.Record{"name": "Nan", "score": 1.5}, table.Rows[0])
	assert.Equal(t, "Inf", table.Rows[1]["name"])
}

func TestLoadJSONKeepsKeyOrderAndFlattens(t *testing.T) {
	path := writeFile(t, "data.json", `[
		{"name": "John", "age": 30, "address": {"city": "Oslo", "zip": "0150"}, "tags": ["a", "b"]},
		{"name": "Jane", "score": 9.5, "age": null}
	]`)

	table, err := (&File{Path: path}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", "address.city", "address.zip", "tags", "score"}, table.ColumnNames())
	assert.Equal(t, int64(30), table.Rows[0]["age"])
	assert.Equal(t, "Oslo", table.Rows[0]["address.city"])
	assert.Equal(t, `["a","b"]`, table.Rows[0]["tags"])
	assert.Nil(t, table.Rows[1]["age"])
	assert.Equal(t, 9.5, table.Rows[1]["score"])
}

func TestLoadJSONSingleObject(t *testing.T) {
	path := writeFile(t, "one.json", `{"b": 1, "a": "x"}`)

	table, err := (&File{Path: path}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, table.ColumnNames())
	assert.Len(t, table.Rows, 1)
}

func TestLoadJSONErrors(t *testing.T) {
	_, err := (&File{Path: writeFile(t, "empty.json", `[]`)}).Load(context.Background())
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = (&File{Path: writeFile(t, "bad.json", `[1, 2]`)}).Load(context.Background())
	assert.Error(t, err)

	_, err = (&File{Path: writeFile(t, "data.xml", `<a/>`)}).Load(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	profile := `{"shareCredentialsVersion":1,"endpoint":"https://x","bearerToken":"t"}`
	_, err = (&File{Path: writeFile(t, "p.share", profile)}).Load(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestLoadParquetRoundTrip(t *testing.T) {
	cols := []datagrid.Column[datagrid.Record]{{Key: "name"}, {Key: "age"}}
	rows := []datagrid.Record{{"name": "John", "age": 30}, {"name": "Jane", "age": nil}}

	path := filepath.Join(t.TempDir(), "people.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, export.WriteParquet(f, cols, rows))
	require.NoError(t, f.Close())

	table, err := (&File{Path: path}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age"}, table.ColumnNames())
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "John", table.Rows[0]["name"])
	assert.Equal(t, 30.0, table.Rows[0]["age"])
	assert.Nil(t, table.Rows[1]["age"])
}

func buildArrowTable(t *testing.T) arrow.Table {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int32},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.Int32Builder).AppendValues([]int32{1, 2, 3}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"a", "", "c"}, []bool{true, false, true})

	rec := b.NewRecord()
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec})
}

func TestFromArrowTable(t *testing.T) {
	tbl := buildArrowTable(t)
	defer tbl.Release()

	table, err := FromArrowTable("t", tbl)
	require.NoError(t, err)
	assert.Equal(t, []datagrid.Record{
		{"id": int64(1), "name": "a"},
		{"id": int64(2), "name": nil},
		{"id": int64(3), "name": "c"},
	}, table.Rows)

	_, err = FromArrowTable("t", nil)
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestApplyQueryOptions(t *testing.T) {
	tbl := buildArrowTable(t)
	defer tbl.Release()

	same, err := ApplyQueryOptions(tbl, nil)
	require.NoError(t, err)
	assert.Equal(t, tbl, same)

	narrowed, err := ApplyQueryOptions(tbl, &QueryOptions{SelectedColumns: []string{"name"}, Limit: 2})
	require.NoError(t, err)
	defer narrowed.Release()
	assert.EqualValues(t, 1, narrowed.NumCols())
	assert.EqualValues(t, 2, narrowed.NumRows())

	_, err = ApplyQueryOptions(tbl, &QueryOptions{SelectedColumns: []string{"missing"}})
	assert.Error(t, err)
}

func TestParseTableRef(t *testing.T) {
	table, err := ParseTableRef("share.schema.events")
	require.NoError(t, err)
	assert.Equal(t, "events", table.Name)
	assert.Equal(t, "share.schema.events", TableRef(table))

	for _, bad := range []string{"a.b", "a..c", "a.b.c.d"} {
		_, err := ParseTableRef(bad)
		assert.Error(t, err, bad)
	}
}
