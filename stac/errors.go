package stac

import (
	"errors"
	"fmt"
)

var (
	ErrNotSaved   = errors.New("document has not been saved")
	ErrMissingID  = errors.New("document has no id")
	ErrMalformed  = errors.New("malformed document")
	ErrNotFound   = errors.New("document not found")
	ErrNoLink     = errors.New("no such link")
	ErrRemoteHref = errors.New("remote href cannot be opened")
	ErrRootFixed  = errors.New("document already belongs to another root")
	ErrInvalid    = errors.New("invalid argument")
)

// Error is the single error kind returned by this package.
// Use errors.Is against the Err* sentinels to tell causes apart.
type Error struct {
	Op   string // operation, e.g. "open" or "add catalog"
	Path string // document filename, if known
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("stac: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("stac: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op, path string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Path: path, Err: err}
}
