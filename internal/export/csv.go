// Package export renders a reviewed invoice record as CSV or an Excel
// workbook for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoiceview/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// summaryColumns defines the single summary row's header.
var summaryColumns = []string{
	"Invoice Number",
	"Invoice Date",
	"Due Date",
	"PO Number",
	"Currency",
	"Subtotal",
	"Tax",
	"Shipping",
	"Total",
	"Amount Due",
	"Vendor Name",
	"Vendor Tax ID",
	"Customer Name",
	"Customer Account",
	"Line Item Count",
	"Additional Information",
}

// lineItemColumns defines the per-row header for the line item section.
var lineItemColumns = []string{
	"#",
	"Description",
	"Quantity",
	"Unit Price",
	"Total Price",
	"Product Code",
	"Tax Rate",
	"Category",
}

// WriteCSV renders the record as a two-section CSV: a summary row followed
// by one row per line item.
func WriteCSV(w io.Writer, rec *domain.InvoiceRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(summaryColumns); err != nil {
		return err
	}
	if err := cw.Write(summaryRow(rec)); err != nil {
		return err
	}
	if err := cw.Write(nil); err != nil {
		return err
	}
	if err := cw.Write(lineItemColumns); err != nil {
		return err
	}
	for i := range rec.LineItems {
		if err := cw.Write(lineItemRow(i, &rec.LineItems[i])); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func summaryRow(rec *domain.InvoiceRecord) []string {
	return []string{
		text(rec.InvoiceNumber),
		text(rec.InvoiceDate),
		text(rec.DueDate),
		text(rec.PurchaseOrderNumber),
		text(rec.Currency),
		money(rec.Subtotal),
		money(rec.Tax),
		money(rec.Shipping),
		money(rec.Total),
		money(rec.AmountDue),
		text(rec.Vendor.Name),
		text(rec.Vendor.TaxID),
		text(rec.Customer.Name),
		text(rec.Customer.AccountNumber),
		strconv.Itoa(len(rec.LineItems)),
		text(rec.AdditionalInformation),
	}
}

func lineItemRow(i int, it *domain.LineItem) []string {
	return []string{
		strconv.Itoa(i + 1),
		text(it.Description),
		number(it.Quantity),
		money(it.UnitPrice),
		money(it.TotalPrice),
		text(it.ProductCode),
		number(it.TaxRate),
		text(it.Category),
	}
}

func text(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func number(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans an invoice identifier for use in
// Content-Disposition. Replaces non-alphanumeric chars (except - _) with _,
// collapses consecutive underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized download filename:
// {sanitized_name}_{YYYY-MM-DD}.{ext}. Empty names fall back to "invoice".
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "invoice"
	}
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
