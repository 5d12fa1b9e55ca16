package store

import "fmt"

// Error reports a failed store operation.
type Error struct {
	Op    string // "get", "set", "remove", "open"
	Key   string
	Cause error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Cause)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
