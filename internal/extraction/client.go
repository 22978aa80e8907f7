// Package extraction implements the HTTP client for the AI invoice
// extraction service.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"invoiceview/internal/config"
	"invoiceview/internal/domain"
	"invoiceview/internal/port"
)

// maskedInvoicePrefix marks records the extraction service fabricates when
// its own pipeline fails: it still answers success=true but stamps the
// invoice number with this prefix and fills the error field. Such a record
// must never be shown as real data.
const maskedInvoicePrefix = "ERROR-"

// Client implements port.ExtractionClient against the extraction service's
// REST API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates an extraction API client from config.
func NewClient(cfg *config.ExtractionConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// uploadResponse models the service's upload and fetch envelopes.
type uploadResponse struct {
	Success   bool                  `json:"success"`
	InvoiceID string                `json:"invoice_id"`
	FilePath  string                `json:"file_path"`
	Data      *domain.InvoiceRecord `json:"data"`
	Error     string                `json:"error"`
}

// Extract uploads a document as multipart form data and decodes the
// structured result.
func (c *Client) Extract(ctx context.Context, fileName, contentType string, fileBytes []byte) (*port.ExtractionResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := fw.Write(fileBytes); err != nil {
		return nil, fmt.Errorf("writing file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	body, err := c.post(ctx, "/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var resp uploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling upload response: %w", err)
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "no error detail provided"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrExtractionFailed, msg)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: success response carried no data", domain.ErrExtractionFailed)
	}
	if masked(resp.Data, resp.Error) {
		msg := resp.Error
		if msg == "" && resp.Data.InvoiceNumber != nil {
			msg = *resp.Data.InvoiceNumber
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrMaskedExtraction, msg)
	}

	resp.Data.Normalize()
	return &port.ExtractionResult{
		InvoiceID: resp.InvoiceID,
		FilePath:  resp.FilePath,
		Record:    resp.Data,
	}, nil
}

// masked detects the service's error-in-success disguise.
func masked(rec *domain.InvoiceRecord, errMsg string) bool {
	if errMsg != "" {
		return true
	}
	return rec.InvoiceNumber != nil && strings.HasPrefix(*rec.InvoiceNumber, maskedInvoicePrefix)
}

// GetInvoice fetches a stored extraction result by id. Unlike the upload
// endpoint, this one returns the record bare, with no envelope around it.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*domain.InvoiceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/invoice/"+url.PathEscape(invoiceID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var rec domain.InvoiceRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling invoice %s: %w", invoiceID, err)
	}
	if masked(&rec, "") {
		return nil, fmt.Errorf("%w: invoice %s", domain.ErrMaskedExtraction, invoiceID)
	}

	rec.Normalize()
	return &rec, nil
}

// SubmitCorrections posts the reviewed record as multipart form data, the
// shape the service's feedback endpoint expects.
func (c *Client) SubmitCorrections(ctx context.Context, input port.CorrectionInput) error {
	corrected, err := json.Marshal(input.Record)
	if err != nil {
		return fmt.Errorf("marshaling corrected record: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"invoice_id":     input.InvoiceID,
		"corrected_data": string(corrected),
	}
	if input.UserID != "" {
		fields["user_id"] = input.UserID
	}
	if input.Notes != "" {
		fields["correction_notes"] = input.Notes
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return fmt.Errorf("writing form field %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	// The service acks with the stored correction object; a 2xx status is
	// the contract, the body shape is its own business.
	if _, err := c.post(ctx, "/corrections", mw.FormDataContentType(), &buf); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubmitFailed, err)
	}
	return nil
}

// Health pings the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling extraction service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("extraction service unhealthy (status %d)", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling extraction service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service error (status %d): %s", resp.StatusCode, truncate(string(body), 500))
	}
	return body, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
