package jsonl

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestReadSkipsBlankLines(t *testing.T) {
	input := "{\"name\":\"a\",\"count\":1}\n\n  \n{\"name\":\"b\",\"count\":2}\n"

	items, err := Read[record](strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, record{Name: "a", Count: 1}, items[0])
	assert.Equal(t, record{Name: "b", Count: 2}, items[1])
}

func TestReadReportsLineNumber(t *testing.T) {
	input := "{\"name\":\"a\"}\nnot json\n"

	_, err := Read[record](strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.jsonl")
	items := []record{{Name: "a", Count: 1}, {Name: "b", Count: 2}, {Name: "c", Count: 3}}

	require.NoError(t, WriteFile(path, items))

	got, err := ReadFile[record](path)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestWriteEmptySlice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, WriteFile(path, []record(nil)))

	got, err := ReadFile[record](path)
	require.NoError(t, err)
	assert.Empty(t, got)
}
