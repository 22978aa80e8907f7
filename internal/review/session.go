// Package review implements the invoice review workflow: upload
// orchestration against the extraction service, the editable record with
// its clean/dirty/saving lifecycle, and the document preview state.
package review

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"invoiceview/internal/domain"
)

// Step is the top-level position in the two-step workflow.
type Step string

const (
	StepUpload Step = "upload"
	StepReview Step = "review"
)

// UploadStatus is the lifecycle of the current upload attempt.
type UploadStatus string

const (
	UploadIdle      UploadStatus = "idle"
	UploadRunning   UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadFailed    UploadStatus = "failed"
)

// FormState is the review form lifecycle. Clean means the record matches
// the last saved baseline, Dirty means it has unsaved edits, Saving means a
// submission is in flight.
type FormState string

const (
	FormClean  FormState = "clean"
	FormDirty  FormState = "dirty"
	FormSaving FormState = "saving"
)

// UploadState tracks the in-flight or last upload attempt.
type UploadState struct {
	Status   UploadStatus
	Progress int
	FileName string
	Error    string
}

// FormStatus tracks the review form lifecycle and its last failure.
type FormStatus struct {
	State FormState
	// Error is the retryable submission failure message, if any.
	Error string
	// FieldErrors holds per-field validation failures from the last
	// rejected edit or submit.
	FieldErrors domain.FieldErrors
}

// Session is one invoice review in progress. All fields are guarded by mu;
// the service and the background upload goroutines are the only writers.
type Session struct {
	mu sync.Mutex

	ID   uuid.UUID
	Step Step

	Upload UploadState
	Form   FormStatus

	// InvoiceID and FilePath come from the extraction service once an
	// upload completes.
	InvoiceID string
	FilePath  string

	Record           *domain.InvoiceRecord
	WarningDismissed bool
	Preview          ViewTransform

	CreatedAt time.Time
	UpdatedAt time.Time

	// cancelUpload aborts the in-flight extraction call. Nil unless
	// Upload.Status is UploadRunning.
	cancelUpload context.CancelFunc
	// uploadToken distinguishes the current upload attempt from stale
	// goroutines that finish after a cancel or reset.
	uploadToken uint64
	// epoch increments on reset so in-flight operations that release mu
	// around a network call (submit, refresh) can tell their session was
	// replaced underneath them and drop their result.
	epoch uint64
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		Step:      StepUpload,
		Upload:    UploadState{Status: UploadIdle},
		Form:      FormStatus{State: FormClean},
		Preview:   DefaultViewTransform(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// resetLocked returns the session to a pristine upload step. Callers must
// hold mu and have already cancelled any in-flight upload.
func (s *Session) resetLocked(now time.Time) {
	s.epoch++
	s.Step = StepUpload
	s.Upload = UploadState{Status: UploadIdle}
	s.Form = FormStatus{State: FormClean}
	s.InvoiceID = ""
	s.FilePath = ""
	s.Record = nil
	s.WarningDismissed = false
	s.Preview = DefaultViewTransform()
	s.UpdatedAt = now
}
