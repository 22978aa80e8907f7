package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoiceview/internal/domain"
	"invoiceview/internal/port"
)

// MockExtractionClient is a mock implementation of port.ExtractionClient.
type MockExtractionClient struct {
	mock.Mock
}

func (m *MockExtractionClient) Extract(ctx context.Context, fileName, contentType string, fileBytes []byte) (*port.ExtractionResult, error) {
	args := m.Called(ctx, fileName, contentType, fileBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractionResult), args.Error(1)
}

func (m *MockExtractionClient) GetInvoice(ctx context.Context, invoiceID string) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}

func (m *MockExtractionClient) SubmitCorrections(ctx context.Context, input port.CorrectionInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockExtractionClient) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
