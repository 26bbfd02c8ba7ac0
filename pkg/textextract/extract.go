// Package textextract pulls plain text out of the document formats
// accepted as prompt sources.
package textextract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// SupportedExts lists the file extensions Text understands.
func SupportedExts() []string {
	return []string{".pdf", ".docx", ".txt"}
}

// Text extracts the plain-text content of a document. ext is matched
// case-insensitively and may be given with or without the leading dot.
func Text(data io.ReaderAt, size int64, ext string) (string, error) {
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "pdf":
		return pdfText(data, size)
	case "docx":
		return docxText(data, size)
	case "txt":
		return txtText(data, size)
	default:
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
}

func pdfText(data io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages that fail to decode are skipped, not fatal.
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

func docxText(data io.ReaderAt, size int64) (string, error) {
	reader, err := zip.NewReader(data, size)
	if err != nil {
		return "", fmt.Errorf("open DOCX: %w", err)
	}

	for _, f := range reader.File {
		if filepath.Base(f.Name) != "document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		return stripXMLTags(string(content)), nil
	}
	return "", fmt.Errorf("document.xml not found in archive")
}

func txtText(data io.ReaderAt, size int64) (string, error) {
	buf := make([]byte, size)
	if _, err := data.ReadAt(buf, 0); err != nil && err != io.EOF {
		return "", fmt.Errorf("read TXT: %w", err)
	}
	return string(bytes.TrimSpace(buf)), nil
}

// stripXMLTags flattens document.xml into plain text, one line per
// w:p paragraph. Whitespace inside a paragraph is collapsed to single
// spaces; paragraph boundaries become newlines so callers that treat
// each line as a unit see one entry per paragraph.
func stripXMLTags(s string) string {
	var (
		paragraphs []string
		current    strings.Builder
		tag        strings.Builder
		inTag      bool
	)
	flush := func() {
		text := strings.Join(strings.Fields(current.String()), " ")
		current.Reset()
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			tag.Reset()
		case r == '>':
			inTag = false
			if tag.String() == "/w:p" {
				flush()
			} else {
				current.WriteRune(' ')
			}
		case inTag:
			tag.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return strings.Join(paragraphs, "\n")
}
