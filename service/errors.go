package service

import (
	"errors"
	"strings"
)

var (
	ErrInvalidEntityType    = errors.New("invalid or missing entity_type")
	ErrInvalidEntityID      = errors.New("missing or invalid entity_id")
	ErrEntityNotFound       = errors.New("entity not found")
	ErrInvalidPurpose       = errors.New("invalid purpose")
	ErrNoFilesProvided      = errors.New("no files uploaded")
	ErrTooManyFiles         = errors.New("too many files")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrStorageMisconfigured = errors.New("object storage misconfigured")
	ErrNotFound             = errors.New("media not found")
	ErrInvalidKey           = errors.New("invalid media key")
	ErrNoSortItems          = errors.New("items is required")
)

// BestEffortError collects failures of cleanup steps that must not fail the
// request. Callers log it and carry on.
type BestEffortError struct {
	Op   string
	Errs []error
}

func (e *BestEffortError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return e.Op + ": " + strings.Join(msgs, "; ")
}

func (e *BestEffortError) Unwrap() []error {
	return e.Errs
}

func (e *BestEffortError) add(err error) {
	if err != nil {
		e.Errs = append(e.Errs, err)
	}
}

// orNil keeps a typed nil pointer from turning into a non-nil error.
func (e *BestEffortError) orNil() *BestEffortError {
	if e == nil || len(e.Errs) == 0 {
		return nil
	}
	return e
}
