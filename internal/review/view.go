package review

import (
	"path/filepath"
	"strings"
	"time"

	"invoiceview/internal/domain"
)

// UploadView is the wire form of UploadState.
type UploadView struct {
	Status   UploadStatus `json:"status"`
	Progress int          `json:"progress"`
	FileName string       `json:"file_name,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// FormView is the wire form of FormStatus.
type FormView struct {
	State       FormState          `json:"state"`
	Error       string             `json:"error,omitempty"`
	FieldErrors domain.FieldErrors `json:"field_errors,omitempty"`
}

// DocumentView describes what the preview pane should render.
type DocumentView struct {
	// Kind is "pdf", "image" or "placeholder". Placeholder means the
	// extraction service returned no file path, so there is nothing to
	// render but the review itself still works.
	Kind string `json:"kind"`
	URL  string `json:"url,omitempty"`
}

// SessionView is the full client-facing snapshot of a review session.
type SessionView struct {
	ID               string                `json:"id"`
	Step             Step                  `json:"step"`
	Upload           UploadView            `json:"upload"`
	Form             FormView              `json:"form"`
	InvoiceID        string                `json:"invoice_id,omitempty"`
	Record           *domain.InvoiceRecord `json:"record,omitempty"`
	NeedsReview      []string              `json:"needs_review"`
	WarningDismissed bool                  `json:"warning_dismissed"`
	Document         *DocumentView         `json:"document,omitempty"`
	Preview          ViewTransform         `json:"preview"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// viewLocked snapshots the session. Callers must hold sess.mu.
func (s *service) viewLocked(sess *Session) *SessionView {
	view := &SessionView{
		ID:     sess.ID.String(),
		Step:   sess.Step,
		Upload: UploadView(sess.Upload),
		Form: FormView{
			State:       sess.Form.State,
			Error:       sess.Form.Error,
			FieldErrors: sess.Form.FieldErrors,
		},
		InvoiceID:        sess.InvoiceID,
		Record:           sess.Record,
		NeedsReview:      []string{},
		WarningDismissed: sess.WarningDismissed,
		Preview:          sess.Preview,
		CreatedAt:        sess.CreatedAt,
		UpdatedAt:        sess.UpdatedAt,
	}

	if sess.Record != nil {
		view.Document = documentView(sess.FilePath, s.assetBaseURL)
		if !sess.WarningDismissed {
			view.NeedsReview = needsReview(sess.Record, s.confidenceThreshold)
		}
	}
	return view
}

// documentView maps the extraction service's stored file path to a preview
// descriptor. An empty path degrades to a placeholder rather than an error.
func documentView(filePath, assetBaseURL string) *DocumentView {
	if filePath == "" {
		return &DocumentView{Kind: "placeholder"}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	kind := "pdf"
	if ok && fileType.IsImage() {
		kind = "image"
	}

	url := strings.TrimRight(assetBaseURL, "/") + "/" + strings.TrimLeft(filePath, "/")
	return &DocumentView{Kind: kind, URL: url}
}

// needsReview returns the canonical paths a reviewer should double-check:
// the union of what the extraction service flagged and every field whose
// confidence sits at or below the threshold. Paths come back in record
// field order, so the list is stable across calls.
func needsReview(rec *domain.InvoiceRecord, threshold float64) []string {
	flagged := make(map[string]bool)
	for _, p := range rec.LowConfidencePaths() {
		flagged[p.String()] = true
	}

	low := func(conf *float64) bool {
		return conf != nil && *conf <= threshold
	}

	var out []string
	add := func(path string, conf *float64) {
		if flagged[path] || low(conf) {
			out = append(out, path)
		}
	}

	add("invoice_number", rec.InvoiceNumberConfidence)
	add("invoice_date", rec.InvoiceDateConfidence)
	add("due_date", rec.DueDateConfidence)
	add("purchase_order_number", rec.PurchaseOrderNumberConfidence)
	add("currency", rec.CurrencyConfidence)
	add("subtotal", rec.SubtotalConfidence)
	add("tax", rec.TaxConfidence)
	add("shipping", rec.ShippingConfidence)
	add("total", rec.TotalConfidence)
	add("amount_due", rec.AmountDueConfidence)
	add("additional_information", rec.AdditionalInformationConfidence)

	add("vendor.name", rec.Vendor.NameConfidence)
	add("vendor.address", rec.Vendor.AddressConfidence)
	add("vendor.phone", rec.Vendor.PhoneConfidence)
	add("vendor.email", rec.Vendor.EmailConfidence)
	add("vendor.tax_id", rec.Vendor.TaxIDConfidence)

	add("customer.name", rec.Customer.NameConfidence)
	add("customer.address", rec.Customer.AddressConfidence)
	add("customer.phone", rec.Customer.PhoneConfidence)
	add("customer.email", rec.Customer.EmailConfidence)
	add("customer.account_number", rec.Customer.AccountNumberConfidence)

	for i := range rec.LineItems {
		it := &rec.LineItems[i]
		p := domain.FieldPath{Scope: domain.ScopeLineItem, Index: i}
		for _, f := range []struct {
			field string
			conf  *float64
		}{
			{"description", it.DescriptionConfidence},
			{"quantity", it.QuantityConfidence},
			{"unit_price", it.UnitPriceConfidence},
			{"total_price", it.TotalPriceConfidence},
			{"product_code", it.ProductCodeConfidence},
			{"tax_rate", it.TaxRateConfidence},
			{"category", it.CategoryConfidence},
		} {
			p.Field = f.field
			add(p.String(), f.conf)
		}
	}

	if out == nil {
		out = []string{}
	}
	return out
}
