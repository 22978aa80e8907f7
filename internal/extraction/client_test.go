package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceview/internal/config"
	"invoiceview/internal/domain"
	"invoiceview/internal/port"
)

func newTestClient(serverURL string) *Client {
	return NewClient(&config.ExtractionConfig{BaseURL: serverURL, TimeoutSecs: 5})
}

func successEnvelope() map[string]any {
	return map[string]any{
		"success":    true,
		"invoice_id": "inv-42",
		"file_path":  "/uploads/inv-42.pdf",
		"data": map[string]any{
			"invoice_number":            "INV-2024-001",
			"invoice_number_confidence": 0.95,
			"subtotal":                  100.0,
			"subtotal_confidence":       0.4,
			"total":                     118.0,
			"vendor":                    map[string]any{"name": "Acme Corp"},
			"line_items": []map[string]any{
				{"description": "Widget", "quantity": 2.0, "unit_price": 50.0},
			},
			"low_confidence_fields": []string{"subtotal"},
		},
	}
}

func TestExtract_Success(t *testing.T) {
	var gotPath, gotFileName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(successEnvelope())
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	result, err := client.Extract(context.Background(), "invoice.pdf", "application/pdf", []byte("%PDF-1.4 test"))
	require.NoError(t, err)

	assert.Equal(t, "/upload", gotPath)
	assert.Equal(t, "invoice.pdf", gotFileName)
	assert.Equal(t, "inv-42", result.InvoiceID)
	assert.Equal(t, "/uploads/inv-42.pdf", result.FilePath)
	assert.Equal(t, "INV-2024-001", *result.Record.InvoiceNumber)
	assert.Equal(t, []string{"subtotal"}, result.Record.LowConfidenceFields)

	// absent confidences are normalized to full confidence
	assert.Equal(t, 1.0, *result.Record.TotalConfidence)
	assert.Equal(t, 1.0, *result.Record.Vendor.NameConfidence)
	// provided confidences survive
	assert.Equal(t, 0.4, *result.Record.SubtotalConfidence)
}

func TestExtract_FailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "error": "unreadable scan"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Extract(context.Background(), "invoice.pdf", "application/pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Contains(t, err.Error(), "unreadable scan")
}

func TestExtract_MaskedErrorByInvoiceNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := map[string]any{
			"success": true,
			"data":    map[string]any{"invoice_number": "ERROR-could not parse document"},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(env)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Extract(context.Background(), "invoice.pdf", "application/pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, domain.ErrMaskedExtraction)
	assert.Contains(t, err.Error(), "could not parse document")
}

func TestExtract_MaskedErrorByErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env := map[string]any{
			"success": true,
			"error":   "model quota exceeded",
			"data":    map[string]any{"invoice_number": "INV-1"},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(env)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Extract(context.Background(), "invoice.pdf", "application/pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, domain.ErrMaskedExtraction)
	assert.Contains(t, err.Error(), "model quota exceeded")
}

func TestExtract_SuccessWithoutData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Extract(context.Background(), "invoice.pdf", "application/pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestExtract_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Extract(context.Background(), "invoice.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGetInvoice_Success(t *testing.T) {
	// the fetch endpoint returns the record bare, not wrapped in the
	// upload envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoice/inv-42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"invoice_number":      "INV-2024-001",
			"subtotal":            100.0,
			"subtotal_confidence": 0.4,
			"total":               118.0,
			"vendor":              map[string]any{"name": "Acme Corp"},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	rec, err := client.GetInvoice(context.Background(), "inv-42")
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-001", *rec.InvoiceNumber)
	assert.Equal(t, 0.4, *rec.SubtotalConfidence)
	// absent confidences are normalized to full confidence
	assert.Equal(t, 1.0, *rec.TotalConfidence)
}

func TestGetInvoice_MaskedRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"invoice_number": "ERROR-extraction pipeline failed",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.GetInvoice(context.Background(), "inv-42")
	assert.ErrorIs(t, err, domain.ErrMaskedExtraction)
}

func TestSubmitCorrections_SendsFormFields(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		form = map[string]string{}
		for name, values := range r.MultipartForm.Value {
			form[name] = values[0]
		}
		// the ack is the stored correction object, no success key
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"invoice_id": "inv-42", "correction_timestamp": "2024-03-15T10:00:00Z"}`))
	}))
	defer srv.Close()

	rec := &domain.InvoiceRecord{
		InvoiceNumber: domain.StringPtr("INV-2024-001"),
		Total:         domain.FloatPtr(118),
	}
	rec.Normalize()

	client := newTestClient(srv.URL)
	err := client.SubmitCorrections(context.Background(), port.CorrectionInput{
		InvoiceID: "inv-42",
		Record:    rec,
		UserID:    "reviewer-7",
		Notes:     "fixed the total",
	})
	require.NoError(t, err)

	assert.Equal(t, "inv-42", form["invoice_id"])
	assert.Equal(t, "reviewer-7", form["user_id"])
	assert.Equal(t, "fixed the total", form["correction_notes"])

	var sent domain.InvoiceRecord
	require.NoError(t, json.Unmarshal([]byte(form["corrected_data"]), &sent))
	assert.Equal(t, "INV-2024-001", *sent.InvoiceNumber)
	assert.Equal(t, 118.0, *sent.Total)
	assert.Equal(t, 1.0, *sent.TotalConfidence)
}

func TestSubmitCorrections_OmitsEmptyOptionalFields(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		form = r.MultipartForm.Value
		_, _ = w.Write([]byte(`{"invoice_id": "inv-42"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.SubmitCorrections(context.Background(), port.CorrectionInput{
		InvoiceID: "inv-42",
		Record:    &domain.InvoiceRecord{},
	})
	require.NoError(t, err)

	assert.NotContains(t, form, "user_id")
	assert.NotContains(t, form, "correction_notes")
}

func TestSubmitCorrections_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "Invoice not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.SubmitCorrections(context.Background(), port.CorrectionInput{
		InvoiceID: "gone",
		Record:    &domain.InvoiceRecord{},
	})
	assert.ErrorIs(t, err, domain.ErrSubmitFailed)
	assert.Contains(t, err.Error(), "Invoice not found")
}

func TestHealth(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	assert.NoError(t, client.Health(context.Background()))

	healthy = false
	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient(&config.ExtractionConfig{BaseURL: "http://extractor.local/api/"})
	assert.Equal(t, "http://extractor.local/api", client.baseURL)
}
