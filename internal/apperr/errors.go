// Package apperr defines the error taxonomy shared across the application.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by store drivers when a document does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports caller-supplied input rejected before any remote
// call was made.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Validation wraps err as a ValidationError with a short description.
func Validation(msg string, err error) *ValidationError {
	return &ValidationError{Msg: msg, Err: err}
}

// RemoteError wraps a document-store or transport failure.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Remote wraps err as a RemoteError for the named operation.
func Remote(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Err: err}
}

// UploadError wraps a blob-store failure. An upload failure is a
// precondition failure for any document write that depends on the asset.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Upload wraps err as an UploadError for the given blob path.
func Upload(path string, err error) *UploadError {
	return &UploadError{Path: path, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpload reports whether err is (or wraps) an UploadError.
func IsUpload(err error) bool {
	var ue *UploadError
	return errors.As(err, &ue)
}
