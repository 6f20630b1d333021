package loader

import (
	"errors"
	"fmt"

	"github.com/tsawler/docex/format"
)

// Sentinel errors matched with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptDocument   = errors.New("corrupt document")
)

// UnsupportedFormatError reports a file that failed validation: unknown
// extension, unreadable file, legacy binary content, or content of another
// format.
type UnsupportedFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *UnsupportedFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unsupported format: %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("unsupported format: %s: %s", e.Path, e.Reason)
}

func (e *UnsupportedFormatError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// CorruptDocumentError reports a file whose signature matched but which the
// format backend could not parse.
type CorruptDocumentError struct {
	Path   string
	Format format.Format
	Err    error
}

func (e *CorruptDocumentError) Error() string {
	return fmt.Sprintf("corrupt %s document %s: %v", e.Format, e.Path, e.Err)
}

func (e *CorruptDocumentError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCorruptDocument.
func (e *CorruptDocumentError) Is(target error) bool { return target == ErrCorruptDocument }
