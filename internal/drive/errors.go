package drive

import (
	"errors"
	"fmt"
)

// Kind names the high-level operation that failed.
type Kind string

const (
	KindConnection  Kind = "connection"
	KindRead        Kind = "read"
	KindWrite       Kind = "write"
	KindDelete      Kind = "delete"
	KindCopy        Kind = "copy"
	KindMove        Kind = "move"
	KindMetadata    Kind = "metadata"
	KindList        Kind = "list"
	KindUnsupported Kind = "unsupported"
)

// ErrUnsupported is the cause carried by every KindUnsupported error.
var ErrUnsupported = errors.New("operation not supported")

// Error reports a failed drive operation. Path is the location acted upon; for copy
// and move it is the source and Destination holds the target.
type Error struct {
	Kind        Kind
	Op          string
	Path        string
	Destination string
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var msg string
	switch e.Kind {
	case KindConnection:
		msg = fmt.Sprintf("drive: cannot connect to %s", e.Path)
	case KindRead:
		msg = fmt.Sprintf("drive: cannot read file %q", e.Path)
	case KindWrite:
		msg = fmt.Sprintf("drive: cannot write file %q", e.Path)
	case KindDelete:
		msg = fmt.Sprintf("drive: cannot delete file %q", e.Path)
	case KindCopy:
		msg = fmt.Sprintf("drive: cannot copy file from %q to %q", e.Path, e.Destination)
	case KindMove:
		msg = fmt.Sprintf("drive: cannot move file from %q to %q", e.Path, e.Destination)
	case KindMetadata:
		msg = fmt.Sprintf("drive: cannot get %s of %q", e.Op, e.Path)
	case KindList:
		msg = fmt.Sprintf("drive: cannot list directory %q", e.Path)
	case KindUnsupported:
		msg = fmt.Sprintf("drive: %s is not supported (%q)", e.Op, e.Path)
	default:
		msg = fmt.Sprintf("drive: %s %q failed", e.Op, e.Path)
	}

	if e.Err != nil && !(e.Kind == KindUnsupported && errors.Is(e.Err, ErrUnsupported)) {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the kind of the outermost drive error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a drive error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func newTransferError(kind Kind, op, source, destination string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: source, Destination: destination, Err: err}
}

func unsupported(op, location string) *Error {
	return &Error{Kind: KindUnsupported, Op: op, Path: location, Err: ErrUnsupported}
}
