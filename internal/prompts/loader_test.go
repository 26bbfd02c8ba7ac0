package prompts

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadText(t *testing.T) {
	path := writeFile(t, "prompts.txt", "first prompt\n\n  \nsecond prompt\n")

	prompts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first prompt", "second prompt"}, prompts)
}

func TestLoadJSONL(t *testing.T) {
	path := writeFile(t, "prompts.jsonl",
		`{"prompt":"first"}`+"\n"+`{"prompt":"second"}`+"\n")

	prompts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, prompts)
}

func TestLoadJSONLErrors(t *testing.T) {
	t.Run("malformed line", func(t *testing.T) {
		path := writeFile(t, "prompts.jsonl", `{"prompt":"ok"}`+"\nnot json\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("empty prompt", func(t *testing.T) {
		path := writeFile(t, "prompts.jsonl", `{"prompt":"  "}`+"\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty prompt")
	})
}

func TestLoadDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document><w:body>` +
		`<w:p><w:r><w:t>Capital of</w:t><w:t>France?</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Author of Romeo and Juliet?</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	prompts, err := Load(path)
	require.NoError(t, err)
	// One prompt per paragraph, not one prompt for the whole document.
	assert.Equal(t, []string{"Capital of France?", "Author of Romeo and Juliet?"}, prompts)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "prompts.csv", "a,b\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported prompt source")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
