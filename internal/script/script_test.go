package script

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/magpierre/ontogrid/datagrid"
)

func TestCompileExpression(t *testing.T) {
	r, err := Compile(`fmt.Sprintf("%v%%", value)`, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "12.5%", r.Render(12.5, nil))
	assert.Equal(t, `fmt.Sprintf("%v%%", value)`, r.Source())
}

func TestCompileExpressionMentioningReturn(t *testing.T) {
	r, err := Compile(`fmt.Sprint(row["return_rate"])`, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.25", r.Render(nil, map[string]any{"return_rate": 0.25}))

	r, err = Compile(`"no return policy: " + fmt.Sprint(value)`, nil)
	require.NoError(t, err)
	assert.Equal(t, "no return policy: 7", r.Render(7, nil))
}

func TestHasReturn(t *testing.T) {
	assert.True(t, hasReturn(`if value == nil { return "" }; return "x"`))
	assert.False(t, hasReturn(`fmt.Sprint(row["return_rate"])`))
	assert.False(t, hasReturn(`returns + "x" // return later`))
}

func TestCompileBodyUsesRow(t *testing.T) {
	r, err := Compile(`
		name, _ := row["name"].(string)
		if value == nil {
			return strings.ToUpper(name)
		}
		return name + " (" + fmt.Sprint(value) + ")"
	`, nil)
	require.NoError(t, err)

	assert.Equal(t, "JOHN", r.Format(nil, datagrid.Record{"name": "John"}))
	assert.Equal(t, "Jane (41)", r.Format(41, datagrid.Record{"name": "Jane"}))
}

func TestCompileErrors(t *testing.T) {
	for _, src := range []string{"", "   ", "return 42", "undefinedFn(value)"} {
		_, err := Compile(src, nil)
		assert.ErrorIs(t, err, ErrCompile, "%q", src)
	}
}

func TestRenderPanicFallsBack(t *testing.T) {
	r, err := Compile(`value.(string)`, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "abc", r.Render("abc", nil))
	assert.Equal(t, "7", r.Render(7, nil))
}

type person struct {
	Name string
	Age  int
}

func TestFormatterTypedRows(t *testing.T) {
	r, err := Compile(`fmt.Sprint(row["name"], ":", value)`, nil)
	require.NoError(t, err)

	f := Formatter(r, func(p person) map[string]any { return map[string]any{"name": p.Name} })
	assert.Equal(t, "Ann:30", f.Format(30, person{Name: "Ann", Age: 30}))

	blind := Formatter[person](r, nil)
	assert.Equal(t, "<nil>:30", blind.Format(30, person{}))
}

func TestRenderConcurrent(t *testing.T) {
	r, err := Compile(`strconv.Itoa(value.(int) * 2)`, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, datagrid.String(i*2), r.Render(i, nil))
		}()
	}
	wg.Wait()
}
