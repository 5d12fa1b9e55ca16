// Package extract turns uploaded documents (plain text, Markdown, HTML, PDF
// and DOCX) into plain text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/yuin/goldmark"

	"github.com/jonathan/resume-matcher/internal/fetch"
)

// MaxFileSize is the largest document accepted, in bytes.
const MaxFileSize = 10 << 20

// Supported MIME types.
const (
	MimePlain    = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeHTML     = "text/html"
	MimePDF      = "application/pdf"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Extractor converts document bytes of a given MIME type to text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Documents is the default Extractor. The zero value is ready to use.
type Documents struct {
	// MaxFileSize overrides the package limit when positive.
	MaxFileSize int
}

// New returns the default extractor.
func New() *Documents {
	return &Documents{}
}

var extensionTypes = map[string]string{
	".txt":      MimePlain,
	".text":     MimePlain,
	".md":       MimeMarkdown,
	".markdown": MimeMarkdown,
	".html":     MimeHTML,
	".htm":      MimeHTML,
	".pdf":      MimePDF,
	".docx":     MimeDOCX,
}

// DetectMimeType resolves the MIME type of a document from its file name,
// falling back to content sniffing.
func DetectMimeType(fileName string, data []byte) string {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return t
	}
	return baseType(mimetype.Detect(data).String())
}

// Supported reports whether mimeType can be extracted.
func Supported(mimeType string) bool {
	switch baseType(mimeType) {
	case MimePlain, MimeMarkdown, MimeHTML, MimePDF, MimeDOCX:
		return true
	}
	return false
}

// Extract implements Extractor. An empty or generic mimeType is sniffed from
// the content.
func (d *Documents) Extract(ctx context.Context, data []byte, mimeType string) (text string, err error) {
	limit := MaxFileSize
	if d != nil && d.MaxFileSize > 0 {
		limit = d.MaxFileSize
	}

	mt := baseType(mimeType)
	if mt == "" || mt == "application/octet-stream" {
		mt = baseType(mimetype.Detect(data).String())
	}

	if len(data) > limit {
		return "", &Error{MimeType: mt, Message: fmt.Sprintf("file exceeds %d MB limit", limit>>20)}
	}
	if err := ctx.Err(); err != nil {
		return "", &Error{MimeType: mt, Message: "cancelled", Cause: err}
	}

	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &Error{MimeType: mt, Message: "malformed document", Cause: fmt.Errorf("%v", r)}
		}
	}()

	switch mt {
	case MimePlain:
		if !utf8.Valid(data) {
			return "", &Error{MimeType: mt, Message: "text is not valid UTF-8"}
		}
		text = string(data)
	case MimeMarkdown:
		if !utf8.Valid(data) {
			return "", &Error{MimeType: mt, Message: "text is not valid UTF-8"}
		}
		text, err = markdownText(data)
		if err != nil {
			return "", &Error{MimeType: mt, Message: "failed to render Markdown", Cause: err}
		}
	case MimeHTML:
		text, err = fetch.ExtractMainText(string(data), fetch.DefaultTextSelectors())
		if err != nil {
			return "", &Error{MimeType: mt, Message: "failed to parse HTML", Cause: err}
		}
	case MimePDF:
		text, err = pdfText(data)
		if err != nil {
			return "", &Error{MimeType: mt, Message: "failed to read PDF", Cause: err}
		}
	case MimeDOCX:
		text, err = docxText(data)
		if err != nil {
			return "", &Error{MimeType: mt, Message: "failed to read DOCX", Cause: err}
		}
	default:
		return "", &Error{MimeType: mt, Message: "unsupported file type"}
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return "", &Error{MimeType: mt, Message: "no extractable text"}
	}
	return text, nil
}

func baseType(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mt
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var xmlTag = regexp.MustCompile(`<[^>]+>`)

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer func() { _ = doc.Close() }()

	content := doc.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = strings.ReplaceAll(content, "<w:tab/>", "\t")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content), nil
}

// markdownText renders Markdown to HTML and keeps only the visible text, so
// link targets and markup never reach the keyword extractor.
func markdownText(data []byte) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(data, &buf); err != nil {
		return "", err
	}
	return fetch.ExtractMainText(buf.String(), nil)
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// ReadAll reads at most MaxFileSize+1 bytes from r so oversized uploads are
// rejected without buffering them whole.
func ReadAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, MaxFileSize+1))
}
