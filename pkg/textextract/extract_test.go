package textextract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docxArchive(t *testing.T, documentXML string) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return bytes.NewReader(buf.Bytes())
}

func TestTextDocx(t *testing.T) {
	doc := `<?xml version="1.0"?><w:document><w:body><w:p><w:t>Hello</w:t><w:t>world</w:t></w:p></w:body></w:document>`
	r := docxArchive(t, doc)

	text, err := Text(r, r.Size(), ".docx")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestTextDocxParagraphs(t *testing.T) {
	doc := `<w:document><w:body>` +
		`<w:p><w:t>First</w:t><w:t>paragraph</w:t></w:p>` +
		`<w:p><w:t>Second paragraph</w:t></w:p>` +
		`<w:p></w:p>` +
		`</w:body></w:document>`
	r := docxArchive(t, doc)

	text, err := Text(r, r.Size(), ".docx")
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond paragraph", text)
}

func TestTextDocxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	r := bytes.NewReader(buf.Bytes())

	_, err = Text(r, r.Size(), "docx")
	assert.Error(t, err)
}

func TestTextTxt(t *testing.T) {
	r := bytes.NewReader([]byte("  plain text content\n"))

	text, err := Text(r, r.Size(), "txt")
	require.NoError(t, err)
	assert.Equal(t, "plain text content", text)
}

func TestTextUnsupported(t *testing.T) {
	r := bytes.NewReader([]byte("x"))

	_, err := Text(r, r.Size(), ".csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestStripXMLTags(t *testing.T) {
	assert.Equal(t, "a b c", stripXMLTags("<x>a</x><y>b</y>c"))
	assert.Equal(t, "", stripXMLTags("<only><tags/></only>"))
}
