package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode_AutoFallsBackToMarkdown(t *testing.T) {
	// A bytes.Buffer is not a TTY.
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestEffectiveMode_Explicit(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeJSON)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestNewRenderer_UnknownModeFallsBackToAuto(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, Mode("yaml"))
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestHeaderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &bytes.Buffer{}, ModeMarkdown)
	r.Header(2, "Gold")
	assert.Equal(t, "## Gold\n", buf.String())
}

func TestKeyValueMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &bytes.Buffer{}, ModeMarkdown)
	r.KeyValue("Rows", 42)
	assert.Equal(t, "**Rows:** 42\n", buf.String())
}

func TestWarnWritesToErrorStream(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeMarkdown)
	r.Warn("2 rows lost")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "2 rows lost")
}

func TestTableMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &bytes.Buffer{}, ModeMarkdown)
	r.Table([]string{"Table", "Rows"}, [][]string{{"dim_geo", "3"}})

	got := buf.String()
	assert.Contains(t, got, "dim_geo")
	assert.Contains(t, got, "|")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &bytes.Buffer{}, ModeJSON)
	require.NoError(t, r.JSON(map[string]int{"rows": 3}))

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["rows"])
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Title", FormatHeader(3, "Title"))
	assert.True(t, strings.HasPrefix(FormatKeyValue("k", "v"), "**k:**"))
}

func TestFromContext_Fallback(t *testing.T) {
	r := FromContext(context.Background())
	require.NotNil(t, r)
}
