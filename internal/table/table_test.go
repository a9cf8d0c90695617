package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONRecords_ColumnOrder(t *testing.T) {
	src := `[
		{"b": 1, "a": "x"},
		{"a": "y", "c": true}
	]`
	tbl, err := DecodeJSONRecords(strings.NewReader(src))
	require.NoError(t, err)

	// Columns follow first appearance, later keys append.
	assert.Equal(t, []string{"b", "a", "c"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())

	// First row padded with null for the late column.
	v, ok := tbl.Value(0, "c")
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestDecodeJSONRecords_Types(t *testing.T) {
	src := `[{"i": 3, "f": 1.5, "s": "hi", "b": false, "n": null}]`
	tbl, err := DecodeJSONRecords(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	i, _ := tbl.Value(0, "i")
	assert.Equal(t, int64(3), i)
	f, _ := tbl.Value(0, "f")
	assert.Equal(t, 1.5, f)
	s, _ := tbl.Value(0, "s")
	assert.Equal(t, "hi", s)
	b, _ := tbl.Value(0, "b")
	assert.Equal(t, false, b)
	n, _ := tbl.Value(0, "n")
	assert.Nil(t, n)
}

func TestDecodeJSONRecords_RejectsNonArray(t *testing.T) {
	_, err := DecodeJSONRecords(strings.NewReader(`{"a": 1}`))
	assert.Error(t, err)
}

func TestDecodeJSONRecords_RejectsNestedValues(t *testing.T) {
	_, err := DecodeJSONRecords(strings.NewReader(`[{"a": {"nested": 1}}]`))
	assert.Error(t, err)
}

func TestReadJSONRecords_MissingFile(t *testing.T) {
	_, err := ReadJSONRecords(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestProjectPreservesOrderAndRows(t *testing.T) {
	tbl := New("a", "b", "c")
	require.NoError(t, tbl.AppendRow([]any{int64(1), "x", true}))
	require.NoError(t, tbl.AppendRow([]any{int64(2), "y", false}))

	proj, err := tbl.Project("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, proj.Columns())
	assert.Equal(t, 2, proj.Len())
	assert.Equal(t, []any{true, int64(1)}, proj.Row(0))
}

func TestProject_UnknownColumn(t *testing.T) {
	tbl := New("a")
	_, err := tbl.Project("zzz")
	assert.Error(t, err)
}

func TestDistinct(t *testing.T) {
	tbl := New("x", "y")
	require.NoError(t, tbl.AppendRow([]any{"a", int64(1)}))
	require.NoError(t, tbl.AppendRow([]any{"a", int64(1)}))
	require.NoError(t, tbl.AppendRow([]any{"a", int64(2)}))
	require.NoError(t, tbl.AppendRow([]any{"a", nil}))
	require.NoError(t, tbl.AppendRow([]any{"a", nil}))

	d := tbl.Distinct()
	assert.Equal(t, 3, d.Len())
	// First occurrence wins, order preserved.
	assert.Equal(t, []any{"a", int64(1)}, d.Row(0))
	assert.Equal(t, []any{"a", int64(2)}, d.Row(1))
	assert.Equal(t, []any{"a", nil}, d.Row(2))
}

func TestDistinct_NeverIncreasesCardinality(t *testing.T) {
	tbl := New("x")
	for i := 0; i < 10; i++ {
		require.NoError(t, tbl.AppendRow([]any{int64(i % 3)}))
	}
	assert.LessOrEqual(t, tbl.Distinct().Len(), tbl.Len())
}

func TestKey_Disambiguates(t *testing.T) {
	// Null is not the empty string.
	assert.NotEqual(t, Key([]any{nil}), Key([]any{""}))
	// Typed values do not collide with their string renderings.
	assert.NotEqual(t, Key([]any{int64(1)}), Key([]any{"1"}))
	// Trailing whitespace is significant.
	assert.NotEqual(t, Key([]any{"A"}), Key([]any{"A "}))
	// Equal tuples encode equally.
	assert.Equal(t, Key([]any{"a", nil, int64(2)}), Key([]any{"a", nil, int64(2)}))
}

func TestAddColumn_PadsExistingRows(t *testing.T) {
	tbl := New("a")
	require.NoError(t, tbl.AppendRow([]any{"x"}))
	tbl.AddColumn("b")
	v, ok := tbl.Value(0, "b")
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := New("a")
	require.NoError(t, tbl.AppendRow([]any{"x"}))
	c := tbl.Clone()
	require.NoError(t, c.SetValue(0, "a", "changed"))

	orig, _ := tbl.Value(0, "a")
	assert.Equal(t, "x", orig)
}

func TestCSVRoundTrip(t *testing.T) {
	tbl := New("Name", "Quantity", "Net Price", "OrderDate", "Missing")
	require.NoError(t, tbl.AppendRow([]any{
		"Widget", int64(2), 9.99,
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), nil,
	}))
	require.NoError(t, tbl.AppendRow([]any{
		"Gadget", int64(1), 19.5,
		time.Date(2023, 6, 15, 13, 45, 0, 0, time.UTC), "present",
	}))

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, tbl.WriteCSV(path))

	back, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns(), back.Columns())
	assert.Equal(t, tbl.Len(), back.Len())

	// Date-only values render as plain dates, timestamps keep the clock.
	d, _ := back.Value(0, "OrderDate")
	assert.Equal(t, "2023-01-01", d)
	ts, _ := back.Value(1, "OrderDate")
	assert.Equal(t, "2023-06-15 13:45:00", ts)

	// Nulls become empty fields.
	m, _ := back.Value(0, "Missing")
	assert.Equal(t, "", m)

	// No index column sneaks in.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "Name,Quantity,Net Price,OrderDate,Missing\n"))
}

func TestAppendRow_LengthMismatch(t *testing.T) {
	tbl := New("a", "b")
	assert.Error(t, tbl.AppendRow([]any{"only one"}))
}
