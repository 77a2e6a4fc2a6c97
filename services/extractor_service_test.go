package services

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextFromTXT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	text, err := ExtractTextFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtractTextUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50}, 0o644))

	_, err := ExtractTextFromFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractTextFromDOCX(t *testing.T) {
	path := writeTestDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := ExtractTextFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", text)
}

func TestExtractTextFromCorruptDOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip archive"), 0o644))

	_, err := ExtractTextFromFile(path)
	require.Error(t, err)
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, IsSupportedFile("a.pdf"))
	assert.True(t, IsSupportedFile("b.DOCX"))
	assert.True(t, IsSupportedFile("c.txt"))
	assert.True(t, IsSupportedFile("d.md"))
	assert.False(t, IsSupportedFile("e.png"))
	assert.False(t, IsSupportedFile("noext"))
}

func writeTestDOCX(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	entry, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = entry.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}
