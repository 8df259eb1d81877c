package zip

import "fmt"

// Error represents a failure to parse a ZIP archive: a missing or
// malformed end-of-central-directory record, an unreadable central
// directory header, an entry whose local header does not match its
// central directory record, or a named entry that does not exist.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("zip error: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("zip error: %s", e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(reason string) error             { return &Error{Reason: reason} }
func newWrappedError(reason string, err error) error { return &Error{Reason: reason, Err: err} }
