package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships/>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_ByMimeType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		mimeType string
		want     string
	}{
		{"plain", []byte("Senior Go engineer\n\n  with   Kubernetes"), MimePlain, "Senior Go engineer\nwith Kubernetes"},
		{"plain with charset", []byte("Python developer"), "text/plain; charset=utf-8", "Python developer"},
		{"markdown", []byte("# Skills\n- Go\n- SQL"), MimeMarkdown, "Skills\nGo\nSQL"},
		{"markdown link", []byte("See my [portfolio](https://example.com/work)."), MimeMarkdown, "See my portfolio."},
		{"html", []byte(`<html><body><nav>Menu</nav><main><p>Distributed systems</p></main></body></html>`), MimeHTML, "Distributed systems"},
		{"sniffed html", []byte(`<html><body><main><p>Observability</p></main></body></html>`), "", "Observability"},
		{"sniffed plain", []byte("Platform engineer"), "application/octet-stream", "Platform engineer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Extract(context.Background(), tt.data, tt.mimeType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_Docx(t *testing.T) {
	data := buildDocx(t, "Experience", "Led R&amp;D platform team")

	got, err := New().Extract(context.Background(), data, MimeDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Experience\nLed R&D platform team", got)
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		mimeType string
		message  string
	}{
		{"unsupported", []byte("PK\x03\x04"), "application/zip", "unsupported file type"},
		{"invalid utf8", []byte{0xff, 0xfe, 0xfd}, MimePlain, "not valid UTF-8"},
		{"blank", []byte("   \n\t "), MimePlain, "no extractable text"},
		{"corrupt pdf", []byte("%PDF-1.4 not really a pdf"), MimePDF, "cannot read application/pdf"},
		{"corrupt docx", []byte("not a zip"), MimeDOCX, "DOCX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Extract(context.Background(), tt.data, tt.mimeType)
			require.Error(t, err)

			var extractErr *Error
			require.True(t, errors.As(err, &extractErr))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestExtract_TooLarge(t *testing.T) {
	d := &Documents{MaxFileSize: 8}

	_, err := d.Extract(context.Background(), []byte("more than eight bytes"), MimePlain)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, []byte("text"), MimePlain)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		fileName string
		data     []byte
		want     string
	}{
		{"resume.PDF", nil, MimePDF},
		{"resume.docx", nil, MimeDOCX},
		{"notes.md", nil, MimeMarkdown},
		{"job.htm", nil, MimeHTML},
		{"upload", []byte("%PDF-1.7\n"), MimePDF},
		{"upload", []byte("just words"), MimePlain},
	}
	for _, tt := range tests {
		t.Run(tt.fileName+"/"+tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMimeType(tt.fileName, tt.data))
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("text/plain; charset=utf-8"))
	assert.True(t, Supported(MimeDOCX))
	assert.False(t, Supported("image/png"))
	assert.False(t, Supported(""))
}
