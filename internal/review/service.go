package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoiceview/internal/config"
	"invoiceview/internal/domain"
	"invoiceview/internal/port"
)

// UploadInput is the DTO for document upload requests.
type UploadInput struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// SubmitInput carries optional reviewer metadata along with a submission.
type SubmitInput struct {
	UserID string
	Notes  string
}

// Service defines the review workflow contract.
type Service interface {
	Create(ctx context.Context) *SessionView
	Get(ctx context.Context, id uuid.UUID) (*SessionView, error)
	StartUpload(ctx context.Context, id uuid.UUID, input UploadInput) (*SessionView, error)
	CancelUpload(ctx context.Context, id uuid.UUID) (*SessionView, error)
	Reset(ctx context.Context, id uuid.UUID) (*SessionView, error)
	ApplyDraft(ctx context.Context, id uuid.UUID, draft *domain.RecordDraft) (*SessionView, error)
	RefreshRecord(ctx context.Context, id uuid.UUID) (*SessionView, error)
	AppendLineItem(ctx context.Context, id uuid.UUID) (*SessionView, error)
	RemoveLineItem(ctx context.Context, id uuid.UUID, index int) (*SessionView, error)
	Submit(ctx context.Context, id uuid.UUID, input SubmitInput) (*SessionView, error)
	DismissWarning(ctx context.Context, id uuid.UUID) (*SessionView, error)
	TransformPreview(ctx context.Context, id uuid.UUID, op PreviewOp) (*SessionView, error)
	ExportRecord(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, string, error)
}

type service struct {
	store  *Store
	client port.ExtractionClient

	uploadCfg           config.UploadConfig
	progress            config.ProgressConfig
	confidenceThreshold float64
	assetBaseURL        string
}

// NewService creates the review workflow service.
func NewService(store *Store, client port.ExtractionClient, cfg *config.Config) Service {
	return &service{
		store:               store,
		client:              client,
		uploadCfg:           cfg.Upload,
		progress:            cfg.Progress,
		confidenceThreshold: cfg.Review.ConfidenceThreshold,
		assetBaseURL:        cfg.Extraction.AssetBaseURL,
	}
}

func (s *service) Create(ctx context.Context) *SessionView {
	sess := s.store.Create(time.Now())
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.viewLocked(sess)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.viewLocked(sess), nil
}

// StartUpload validates the document, kicks off the extraction call in the
// background and returns immediately. Progress is simulated while the call
// runs; the client polls Get to observe completion.
func (s *service) StartUpload(ctx context.Context, id uuid.UUID, input UploadInput) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	data, contentType, err := s.validateAndRead(input)
	if err != nil {
		return nil, err
	}
	fileName := input.Header.Filename

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Upload.Status == UploadRunning {
		return nil, domain.ErrUploadInFlight
	}

	// The extraction call must outlive the upload request, so it runs on
	// a detached context bounded only by the configured budget.
	uploadCtx, cancel := context.WithTimeout(context.Background(), s.uploadCfg.Timeout)
	sess.uploadToken++
	token := sess.uploadToken
	sess.cancelUpload = cancel

	sess.Step = StepUpload
	sess.Upload = UploadState{
		Status:   UploadRunning,
		Progress: s.progress.Start,
		FileName: fileName,
	}
	sess.Form = FormStatus{State: FormClean}
	sess.UpdatedAt = time.Now()

	log.Printf("reviewService.StartUpload: session %s uploading %s (%s, %d bytes)",
		sess.ID, fileName, contentType, len(data))

	go s.tickProgress(uploadCtx, sess, token)
	go s.runExtraction(uploadCtx, cancel, sess, token, fileName, contentType, data)

	return s.viewLocked(sess), nil
}

// validateAndRead enforces the upload constraints and slurps the file.
func (s *service) validateAndRead(input UploadInput) ([]byte, string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, "", domain.ErrUnsupportedFileType
	}

	maxBytes := s.uploadCfg.MaxFileSizeBytes()
	if input.Header.Size > maxBytes {
		return nil, "", domain.ErrFileTooLarge
	}

	// Magic-byte check: the extension alone is not trusted.
	head := make([]byte, 512)
	n, err := input.File.Read(head)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("reading file header: %w", err)
	}
	detected := http.DetectContentType(head[:n])
	if _, valid := domain.AllowedContentTypes[detected]; !valid {
		return nil, "", domain.ErrUnsupportedFileType
	}

	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("seeking file: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(input.File, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", domain.ErrFileTooLarge
	}

	return data, domain.AllowedFileTypes[fileType], nil
}

// tickProgress advances the simulated progress bar while the extraction
// call is in flight. It never reaches the ceiling's far side; completion is
// what sets 100.
func (s *service) tickProgress(ctx context.Context, sess *Session, token uint64) {
	tick := s.progress.Tick
	if tick <= 0 {
		tick = 300 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sess.mu.Lock()
			if sess.uploadToken != token || sess.Upload.Status != UploadRunning {
				sess.mu.Unlock()
				return
			}
			next := sess.Upload.Progress + s.progress.Step
			if next > s.progress.Ceiling {
				next = s.progress.Ceiling
			}
			sess.Upload.Progress = next
			sess.mu.Unlock()
		}
	}
}

func (s *service) runExtraction(ctx context.Context, cancel context.CancelFunc, sess *Session, token uint64, fileName, contentType string, data []byte) {
	defer cancel()

	result, err := s.client.Extract(ctx, fileName, contentType, data)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// A cancel or reset invalidated this attempt while the call was in
	// flight; its result must not leak into the session.
	if sess.uploadToken != token || sess.Upload.Status != UploadRunning {
		return
	}
	sess.UpdatedAt = time.Now()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", domain.ErrUploadTimeout, s.uploadCfg.Timeout)
		}
		log.Printf("reviewService.runExtraction: session %s extraction failed: %v", sess.ID, err)
		sess.Upload.Status = UploadFailed
		sess.Upload.Progress = 0
		sess.Upload.Error = err.Error()
		return
	}

	log.Printf("reviewService.runExtraction: session %s extracted invoice %s", sess.ID, result.InvoiceID)

	sess.Upload = UploadState{Status: UploadCompleted, Progress: 100, FileName: sess.Upload.FileName}
	sess.Step = StepReview
	sess.InvoiceID = result.InvoiceID
	sess.FilePath = result.FilePath
	sess.Record = result.Record
	sess.Form = FormStatus{State: FormClean}
	sess.WarningDismissed = false
	sess.Preview = DefaultViewTransform()
	sess.cancelUpload = nil
}

// CancelUpload aborts an in-flight upload and returns the session to the
// idle upload step. Cancelling an idle session is a no-op.
func (s *service) CancelUpload(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Upload.Status == UploadRunning {
		s.abortUploadLocked(sess)
		sess.Upload = UploadState{Status: UploadIdle}
		sess.UpdatedAt = time.Now()
	}
	return s.viewLocked(sess), nil
}

// abortUploadLocked invalidates the current upload attempt. Callers must
// hold sess.mu.
func (s *service) abortUploadLocked(sess *Session) {
	sess.uploadToken++
	if sess.cancelUpload != nil {
		sess.cancelUpload()
		sess.cancelUpload = nil
	}
}

// Reset discards everything and returns the session to a pristine upload
// step, cancelling any in-flight upload first.
func (s *service) Reset(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.abortUploadLocked(sess)
	sess.resetLocked(time.Now())
	return s.viewLocked(sess), nil
}

// ApplyDraft validates the submitted form values and replaces the record.
// Invalid drafts leave the previous record untouched and surface per-field
// errors; the caller gets the updated view either way.
func (s *service) ApplyDraft(ctx context.Context, id uuid.UUID, draft *domain.RecordDraft) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepReview || sess.Record == nil {
		return nil, domain.ErrNotReviewing
	}
	if sess.Form.State == FormSaving {
		return nil, domain.ErrSubmitInFlight
	}

	rec, fieldErrs := draft.Validate()
	sess.UpdatedAt = time.Now()
	if fieldErrs != nil {
		sess.Form.State = FormDirty
		sess.Form.FieldErrors = fieldErrs
		return s.viewLocked(sess), domain.ErrValidationFailed
	}

	// Flags are computed upstream and survive edits untouched.
	rec.Flags = sess.Record.Flags
	rec.LowConfidenceFields = pruneStalePaths(sess.Record.LowConfidenceFields, len(rec.LineItems))

	sess.Record = rec
	sess.Form = FormStatus{State: FormDirty}
	return s.viewLocked(sess), nil
}

// pruneStalePaths keeps only the low-confidence entries that still resolve
// against a record with lineItemCount rows.
func pruneStalePaths(raw []string, lineItemCount int) []string {
	kept := make([]string, 0, len(raw))
	for _, entry := range raw {
		p, err := domain.ParseFieldPath(entry)
		if err != nil {
			continue
		}
		if p.Scope == domain.ScopeLineItem && p.Index >= lineItemCount {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

// RefreshRecord re-fetches the stored extraction result and makes it the
// working record again, discarding any unsaved edits.
func (s *service) RefreshRecord(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.Step != StepReview || sess.InvoiceID == "" {
		sess.mu.Unlock()
		return nil, domain.ErrNotReviewing
	}
	if sess.Form.State == FormSaving {
		sess.mu.Unlock()
		return nil, domain.ErrSubmitInFlight
	}
	invoiceID := sess.InvoiceID
	epoch := sess.epoch
	sess.mu.Unlock()

	rec, fetchErr := s.client.GetInvoice(ctx, invoiceID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.epoch != epoch || sess.Step != StepReview {
		return s.viewLocked(sess), domain.ErrNotReviewing
	}
	if fetchErr != nil {
		log.Printf("reviewService.RefreshRecord: session %s fetch of invoice %s failed: %v", sess.ID, invoiceID, fetchErr)
		return s.viewLocked(sess), fetchErr
	}

	log.Printf("reviewService.RefreshRecord: session %s reloaded invoice %s", sess.ID, invoiceID)
	sess.Record = rec
	sess.Form = FormStatus{State: FormClean}
	sess.WarningDismissed = false
	sess.UpdatedAt = time.Now()
	return s.viewLocked(sess), nil
}

// AppendLineItem adds an empty row to the record.
func (s *service) AppendLineItem(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepReview || sess.Record == nil {
		return nil, domain.ErrNotReviewing
	}
	if sess.Form.State == FormSaving {
		return nil, domain.ErrSubmitInFlight
	}

	sess.Record.LineItems = append(sess.Record.LineItems, domain.LineItem{})
	sess.Record.Normalize()
	sess.Form = FormStatus{State: FormDirty}
	sess.UpdatedAt = time.Now()
	return s.viewLocked(sess), nil
}

// RemoveLineItem deletes the row at index. Low-confidence entries pointing
// at the removed row or any row after it are pruned; the rows shift, so
// those entries would otherwise highlight the wrong fields.
func (s *service) RemoveLineItem(ctx context.Context, id uuid.UUID, index int) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepReview || sess.Record == nil {
		return nil, domain.ErrNotReviewing
	}
	if sess.Form.State == FormSaving {
		return nil, domain.ErrSubmitInFlight
	}
	if index < 0 || index >= len(sess.Record.LineItems) {
		return nil, domain.ErrLineItemIndex
	}

	items := sess.Record.LineItems
	sess.Record.LineItems = append(items[:index], items[index+1:]...)

	kept := make([]string, 0, len(sess.Record.LowConfidenceFields))
	for _, entry := range sess.Record.LowConfidenceFields {
		p, err := domain.ParseFieldPath(entry)
		if err != nil {
			continue
		}
		if p.Scope == domain.ScopeLineItem && p.Index >= index {
			continue
		}
		kept = append(kept, entry)
	}
	sess.Record.LowConfidenceFields = kept

	sess.Form = FormStatus{State: FormDirty}
	sess.UpdatedAt = time.Now()
	return s.viewLocked(sess), nil
}

// Submit sends the full current record to the extraction service's
// corrections endpoint. The form is locked in the saving state for the
// duration; on failure the edits survive and the form returns to dirty
// with a retryable error.
func (s *service) Submit(ctx context.Context, id uuid.UUID, input SubmitInput) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.Step != StepReview || sess.Record == nil {
		sess.mu.Unlock()
		return nil, domain.ErrNotReviewing
	}
	if sess.Form.State == FormSaving {
		sess.mu.Unlock()
		return nil, domain.ErrSubmitInFlight
	}
	if len(sess.Form.FieldErrors) > 0 {
		view := s.viewLocked(sess)
		sess.mu.Unlock()
		return view, domain.ErrValidationFailed
	}

	sess.Form = FormStatus{State: FormSaving}
	invoiceID := sess.InvoiceID
	record := sess.Record.Clone()
	epoch := sess.epoch
	sess.mu.Unlock()

	submitCtx := ctx
	if s.uploadCfg.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		submitCtx, cancel = context.WithTimeout(ctx, s.uploadCfg.SubmitTimeout)
		defer cancel()
	}
	submitErr := s.client.SubmitCorrections(submitCtx, port.CorrectionInput{
		InvoiceID: invoiceID,
		Record:    record,
		UserID:    input.UserID,
		Notes:     input.Notes,
	})

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// A reset landed while the call was in flight; the session is back at
	// a pristine upload step and this outcome no longer applies to it.
	if sess.epoch != epoch || sess.Form.State != FormSaving {
		log.Printf("reviewService.Submit: session %s reset during submission, dropping result", sess.ID)
		return s.viewLocked(sess), domain.ErrNotReviewing
	}
	sess.UpdatedAt = time.Now()

	if submitErr != nil {
		log.Printf("reviewService.Submit: session %s submission failed: %v", sess.ID, submitErr)
		sess.Form = FormStatus{State: FormDirty, Error: "saving corrections failed, please retry"}
		if !errors.Is(submitErr, domain.ErrSubmitFailed) {
			submitErr = fmt.Errorf("%w: %v", domain.ErrSubmitFailed, submitErr)
		}
		return s.viewLocked(sess), submitErr
	}

	log.Printf("reviewService.Submit: session %s corrections saved for invoice %s", sess.ID, invoiceID)
	sess.Form = FormStatus{State: FormClean}
	return s.viewLocked(sess), nil
}

// DismissWarning hides the low-confidence banner and field highlights for
// the current record.
func (s *service) DismissWarning(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepReview || sess.Record == nil {
		return nil, domain.ErrNotReviewing
	}
	sess.WarningDismissed = true
	sess.UpdatedAt = time.Now()
	return s.viewLocked(sess), nil
}

// TransformPreview applies a zoom/pan/rotate/reset operation to the
// document preview.
func (s *service) TransformPreview(ctx context.Context, id uuid.UUID, op PreviewOp) (*SessionView, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	next, err := ApplyPreviewOp(sess.Preview, op)
	if err != nil {
		return nil, err
	}
	sess.Preview = next
	sess.UpdatedAt = time.Now()
	return s.viewLocked(sess), nil
}

// ExportRecord returns a copy of the current record for file export, along
// with the extraction service's invoice id for naming.
func (s *service) ExportRecord(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, string, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.Step != StepReview || sess.Record == nil {
		return nil, "", domain.ErrNotReviewing
	}
	return sess.Record.Clone(), sess.InvoiceID, nil
}
