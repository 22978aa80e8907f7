package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrSessionNotFound     = errors.New("review session not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadInFlight      = errors.New("an upload is already in progress")
	ErrUploadTimeout       = errors.New("extraction timed out")
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrMaskedExtraction    = errors.New("extraction service reported success but returned an error record")
	ErrNotReviewing        = errors.New("session has no record under review")
	ErrSubmitInFlight      = errors.New("a submission is already in progress")
	ErrSubmitFailed        = errors.New("correction submission failed")
	ErrValidationFailed    = errors.New("record validation failed")
	ErrLineItemIndex       = errors.New("line item index out of range")
	ErrInvalidFieldPath    = errors.New("invalid field path")
	ErrInvalidPreviewOp    = errors.New("unknown preview operation")
)

// FieldErrors maps a field path (canonical dotted form) to a human-readable
// validation message. It satisfies error so services can return it directly.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	paths := make([]string, 0, len(e))
	for p := range e {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return "validation failed: " + strings.Join(paths, ", ")
}
