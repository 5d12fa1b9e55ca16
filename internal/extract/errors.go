package extract

import "fmt"

// Error reports a document that could not be turned into text.
type Error struct {
	FileName string
	MimeType string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	name := e.FileName
	if name == "" {
		name = e.MimeType
	}
	if e.Cause != nil {
		return fmt.Sprintf("cannot read %s: %s: %v", name, e.Message, e.Cause)
	}
	return fmt.Sprintf("cannot read %s: %s", name, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
