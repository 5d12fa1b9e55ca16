package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/resume-matcher/internal/extract"
)

// Document is a loaded resume or job description.
type Document struct {
	FileName string `json:"fileName"`
	Text     string `json:"text"`
}

func (d *Document) clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// DocumentInput is how a resume is supplied: TextInput or FileInput.
type DocumentInput interface {
	documentInput()
}

// JobDescriptionInput is how a job description is supplied: TextInput,
// FileInput or URLInput.
type JobDescriptionInput interface {
	jobDescriptionInput()
}

// TextInput is pasted text.
type TextInput struct {
	Text     string
	FileName string
}

// FileInput is an uploaded file. An empty MimeType is detected from the
// file name and content.
type FileInput struct {
	Data     []byte
	MimeType string
	FileName string
}

// URLInput is a job posting to fetch.
type URLInput struct {
	URL string
}

func (TextInput) documentInput()       {}
func (TextInput) jobDescriptionInput() {}
func (FileInput) documentInput()       {}
func (FileInput) jobDescriptionInput() {}
func (URLInput) jobDescriptionInput()  {}

// inputError is a resolution failure carrying the kind to record.
type inputError struct {
	kind ErrorKind
	msg  string
}

func (e *inputError) Error() string { return e.msg }

// resolve turns any input into a Document. label names the document in
// messages ("resume", "job description").
func (m *Manager) resolve(ctx context.Context, label string, in any) (doc *Document, err error) {
	defer recoverAs(ExtractionError, &err)

	switch v := in.(type) {
	case TextInput:
		if strings.TrimSpace(v.Text) == "" {
			return nil, &inputError{InputError, "The " + label + " text is empty."}
		}
		name := v.FileName
		if name == "" {
			name = "pasted-" + strings.ReplaceAll(label, " ", "-") + ".txt"
		}
		return &Document{FileName: name, Text: v.Text}, nil

	case FileInput:
		if m.extractor == nil {
			return nil, &inputError{ExtractionError, "File upload is not available."}
		}
		mimeType := v.MimeType
		if mimeType == "" {
			mimeType = extract.DetectMimeType(v.FileName, v.Data)
		}
		text, err := m.extractor.Extract(ctx, v.Data, mimeType)
		if err != nil {
			m.logger.Warn("extraction failed", "document", label, "file", v.FileName, "error", err)
			return nil, &inputError{ExtractionError, extractionMessage(label, v.FileName, err)}
		}
		return &Document{FileName: v.FileName, Text: text}, nil

	case URLInput:
		if m.fetcher == nil {
			return nil, &inputError{ExtractionError, "Fetching job postings by URL is not available."}
		}
		url := strings.TrimSpace(v.URL)
		if url == "" {
			return nil, &inputError{InputError, "The job posting URL is empty."}
		}
		text, err := m.fetcher.FetchText(ctx, url)
		if err != nil {
			m.logger.Warn("fetch failed", "url", url, "error", err)
			return nil, &inputError{ExtractionError, "Could not read the job posting at " + url + ": " + err.Error()}
		}
		return &Document{FileName: url, Text: text}, nil

	default:
		return nil, &inputError{InputError, "Unsupported " + label + " input."}
	}
}

// recoverAs converts a collaborator panic into a recorded failure so the
// busy flag is always released.
func recoverAs(kind ErrorKind, err *error) {
	if r := recover(); r != nil {
		*err = &inputError{kind, fmt.Sprintf("Unexpected failure: %v", r)}
	}
}

func extractionMessage(label, fileName string, err error) string {
	var exErr *extract.Error
	if errors.As(err, &exErr) {
		exErr.FileName = fileName
		return "Could not read the " + label + ": " + exErr.Error()
	}
	return "Could not read the " + label + ": " + err.Error()
}
