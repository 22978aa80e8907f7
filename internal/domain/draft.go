package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RecordDraft is the editable form shape of an InvoiceRecord. Everything
// arrives as free text: numeric fields are validated and converted by
// Validate rather than by the JSON decoder, so a stray "12,5" comes back as
// a field-level error instead of a decode failure for the whole request.
type RecordDraft struct {
	InvoiceNumber         *string         `json:"invoice_number"`
	InvoiceDate           *string         `json:"invoice_date"`
	DueDate               *string         `json:"due_date"`
	PurchaseOrderNumber   *string         `json:"purchase_order_number"`
	Currency              *string         `json:"currency"`
	Subtotal              *string         `json:"subtotal"`
	Tax                   *string         `json:"tax"`
	Shipping              *string         `json:"shipping"`
	Total                 *string         `json:"total"`
	AmountDue             *string         `json:"amount_due"`
	Vendor                VendorDraft     `json:"vendor"`
	Customer              CustomerDraft   `json:"customer"`
	LineItems             []LineItemDraft `json:"line_items"`
	AdditionalInformation *string         `json:"additional_information"`
}

type VendorDraft struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	TaxID   *string `json:"tax_id"`
}

type CustomerDraft struct {
	Name          *string `json:"name"`
	Address       *string `json:"address"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	AccountNumber *string `json:"account_number"`
}

type LineItemDraft struct {
	Description *string `json:"description"`
	Quantity    *string `json:"quantity"`
	UnitPrice   *string `json:"unit_price"`
	TotalPrice  *string `json:"total_price"`
	ProductCode *string `json:"product_code"`
	TaxRate     *string `json:"tax_rate"`
	Category    *string `json:"category"`
}

// cleanText trims the value and treats an all-whitespace entry as cleared.
func cleanText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// parseNumber converts a raw form value to a float. Cleared values are
// valid and come back nil. Anything that does not parse as a finite number
// is recorded in errs under path.
func parseNumber(s *string, path string, errs FieldErrors) *float64 {
	t := cleanText(s)
	if t == nil {
		return nil
	}
	v, err := strconv.ParseFloat(*t, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		errs[path] = "must be a number"
		return nil
	}
	return &v
}

// Validate converts the draft into a record, collecting field-level errors
// for every numeric value that does not parse. When any error is present the
// returned record is nil. The produced record carries no confidence scores;
// Normalize fills them in at full confidence since every value has been
// through human review.
func (d *RecordDraft) Validate() (*InvoiceRecord, FieldErrors) {
	errs := FieldErrors{}

	rec := &InvoiceRecord{
		InvoiceNumber:       cleanText(d.InvoiceNumber),
		InvoiceDate:         cleanText(d.InvoiceDate),
		DueDate:             cleanText(d.DueDate),
		PurchaseOrderNumber: cleanText(d.PurchaseOrderNumber),
		Currency:            cleanText(d.Currency),
		Subtotal:            parseNumber(d.Subtotal, "subtotal", errs),
		Tax:                 parseNumber(d.Tax, "tax", errs),
		Shipping:            parseNumber(d.Shipping, "shipping", errs),
		Total:               parseNumber(d.Total, "total", errs),
		AmountDue:           parseNumber(d.AmountDue, "amount_due", errs),
		Vendor: VendorInfo{
			Name:    cleanText(d.Vendor.Name),
			Address: cleanText(d.Vendor.Address),
			Phone:   cleanText(d.Vendor.Phone),
			Email:   cleanText(d.Vendor.Email),
			TaxID:   cleanText(d.Vendor.TaxID),
		},
		Customer: CustomerInfo{
			Name:          cleanText(d.Customer.Name),
			Address:       cleanText(d.Customer.Address),
			Phone:         cleanText(d.Customer.Phone),
			Email:         cleanText(d.Customer.Email),
			AccountNumber: cleanText(d.Customer.AccountNumber),
		},
		AdditionalInformation: cleanText(d.AdditionalInformation),
		LineItems:             make([]LineItem, 0, len(d.LineItems)),
	}

	for i, li := range d.LineItems {
		prefix := fmt.Sprintf("%s.%d.", ScopeLineItem, i)
		rec.LineItems = append(rec.LineItems, LineItem{
			Description: cleanText(li.Description),
			Quantity:    parseNumber(li.Quantity, prefix+"quantity", errs),
			UnitPrice:   parseNumber(li.UnitPrice, prefix+"unit_price", errs),
			TotalPrice:  parseNumber(li.TotalPrice, prefix+"total_price", errs),
			ProductCode: cleanText(li.ProductCode),
			TaxRate:     parseNumber(li.TaxRate, prefix+"tax_rate", errs),
			Category:    cleanText(li.Category),
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	rec.Normalize()
	return rec, nil
}
