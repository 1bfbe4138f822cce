package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/msgbus/pkg/api"
	"github.com/mithrel/msgbus/pkg/bus"
)

func TestWritePlainOps(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainOps(&buf, []bus.OpInfo{
		{Tag: "ping", Request: "struct {}", Response: "bool", Nullable: true},
	}, true))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "tag"))
	assert.Contains(t, lines[1], "ping")
	assert.Contains(t, lines[1], "true")
}

func TestWritePlainSuggestionsEscapes(t *testing.T) {
	var buf bytes.Buffer
	s := []api.Suggestion{{Item: api.Item{Namespace: "n", Name: "a\tb"}, Matched: "a\tb", Score: 3}}
	require.NoError(t, WritePlainSuggestions(&buf, s, false))
	assert.Contains(t, buf.String(), `a\tb`)
}

func TestWriteRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRaw(&buf, json.RawMessage(`{"a": 1}`), false))
	assert.Equal(t, "{\"a\":1}\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteRaw(&buf, nil, true))
	assert.Equal(t, "null\n", buf.String())

	assert.Error(t, WriteRaw(&buf, json.RawMessage(`{`), true))
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, []api.Item{{Namespace: "a", Name: "x"}, {Namespace: "a", Name: "y"}}))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestWriteStyledSuggestionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStyledSuggestions(&buf, nil))
	assert.Contains(t, buf.String(), "no matches")
}
