package port

import (
	"context"

	"invoiceview/internal/domain"
)

// ExtractionResult is the extraction service's response to a document
// upload.
type ExtractionResult struct {
	InvoiceID string
	FilePath  string
	Record    *domain.InvoiceRecord
}

// CorrectionInput carries a reviewed record back to the extraction service.
type CorrectionInput struct {
	InvoiceID string
	Record    *domain.InvoiceRecord
	UserID    string
	Notes     string
}

// ExtractionClient abstracts the AI extraction HTTP API. It is the only
// transport to that service; nothing else in the codebase talks to it
// directly.
type ExtractionClient interface {
	// Extract uploads a document and returns the structured result. A
	// response the service masks as a success but fills with an error
	// sentinel is surfaced as domain.ErrMaskedExtraction, never as data.
	Extract(ctx context.Context, fileName, contentType string, fileBytes []byte) (*ExtractionResult, error)

	// GetInvoice fetches a previously extracted record by its service-side id.
	GetInvoice(ctx context.Context, invoiceID string) (*domain.InvoiceRecord, error)

	// SubmitCorrections posts the reviewed record for feedback collection.
	SubmitCorrections(ctx context.Context, input CorrectionInput) error

	// Health pings the service's health endpoint.
	Health(ctx context.Context) error
}
