package datagrid

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCSVEscaping(t *testing.T) {
	cols := []Column[Record]{{Key: "name", Label: "name"}}
	rows := []Record{{"name": "A, B"}, {"name": `C"D`}}

	lines := strings.Split(EncodeCSV(cols, rows), "\n")
	assert.Equal(t, []string{"name", `"A, B"`, `"C""D"`}, lines)
}

func TestEncodeCSVUsesRawValuesNotRender(t *testing.T) {
	cols := []Column[Record]{
		{Key: "pct", Label: "Share", Render: FormatFunc[Record](func(v any, _ Record) string {
			return String(v) + "%"
		})},
		{Key: "note", Label: "Note"},
	}
	rows := []Record{{"pct": 12.5, "note": "line1\nline2"}, {"pct": nil}}

	out := EncodeCSV(cols, rows)
	assert.Equal(t, "Share,Note\n12.5,\"line1\nline2\"\n,", out)
	assert.Equal(t, "12.5%", cols[0].Display(rows[0]))
}

func TestEncodeCSVEmptyColumns(t *testing.T) {
	assert.Equal(t, "", EncodeCSV[Record](nil, nil))
}

func TestModelWriteCSVRoundTrip(t *testing.T) {
	m := newSampleModel([]Record{
		{"id": 1, "name": "Smith, John", "age": 30},
		{"id": 2, "name": `The "Rock" Johnson`, "age": nil},
		{"id": 3, "name": "Ann\nMarie", "age": 25},
		{"id": 4, "name": "Bob", "age": 41},
	})
	m.SetFilter("name", "n")
	m.ToggleSort("age")

	var buf bytes.Buffer
	require.NoError(t, m.WriteCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+m.VisibleCount())

	assert.Equal(t, []string{"ID", "Name", "Age"}, records[0])
	for i, row := range m.Visible() {
		for j, col := range m.Columns() {
			assert.Equal(t, String(col.ValueOf(row)), records[i+1][j])
		}
	}
	assert.Equal(t, []string{"3", "Ann\nMarie", "25"}, records[1])
	assert.Equal(t, []string{"2", `The "Rock" Johnson`, ""}, records[3])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSVWrapsWriterError(t *testing.T) {
	err := WriteCSV(failingWriter{}, sampleColumns(), nil)
	assert.ErrorIs(t, err, ErrExportFailed)
}

func TestStringForms(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{true, "true"},
		{30, "30"},
		{int64(-7), "-7"},
		{uint8(200), "200"},
		{30.0, "30"},
		{2.5, "2.5"},
		{float32(0.1), "0.1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, String(tt.in), "String(%#v)", tt.in)
	}
}
