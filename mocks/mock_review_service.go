package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"invoiceview/internal/domain"
	"invoiceview/internal/review"
)

// MockReviewService is a mock implementation of review.Service.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Create(ctx context.Context) *review.SessionView {
	args := m.Called(ctx)
	return args.Get(0).(*review.SessionView)
}

func (m *MockReviewService) Get(ctx context.Context, id uuid.UUID) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id))
}

func (m *MockReviewService) StartUpload(ctx context.Context, id uuid.UUID, input review.UploadInput) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id, input))
}

func (m *MockReviewService) CancelUpload(ctx context.Context, id uuid.UUID) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id))
}

func (m *MockReviewService) Reset(ctx context.Context, id uuid.UUID) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id))
}

func (m *MockReviewService) ApplyDraft(ctx context.Context, id uuid.UUID, draft *domain.RecordDraft) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id, draft))
}

func (m *MockReviewService) RefreshRecord(ctx context.Context, id uuid.UUID) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id))
}

func (m *MockReviewService) AppendLineItem(ctx context.Context, id uuid.UUID) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id))
}

func (m *MockReviewService) RemoveLineItem(ctx context.Context, id uuid.UUID, index int) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id, index))
}

func (m *MockReviewService) Submit(ctx context.Context, id uuid.UUID, input review.SubmitInput) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id, input))
}

func (m *MockReviewService) DismissWarning(ctx context.Context, id uuid.UUID) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id))
}

func (m *MockReviewService) TransformPreview(ctx context.Context, id uuid.UUID, op review.PreviewOp) (*review.SessionView, error) {
	return viewResult(m.Called(ctx, id, op))
}

func (m *MockReviewService) ExportRecord(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, string, error) {
	args := m.Called(ctx, id)
	var rec *domain.InvoiceRecord
	if args.Get(0) != nil {
		rec = args.Get(0).(*domain.InvoiceRecord)
	}
	return rec, args.String(1), args.Error(2)
}

func viewResult(args mock.Arguments) (*review.SessionView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.SessionView), args.Error(1)
}
