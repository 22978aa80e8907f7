package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invoiceview/internal/domain"
)

const (
	summarySheet  = "Summary"
	lineItemSheet = "Line Items"
)

// WriteExcel renders the record as a two-sheet workbook: a field/value
// summary and a line item table.
func WriteExcel(w io.Writer, rec *domain.InvoiceRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("renaming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(lineItemSheet); err != nil {
		return fmt.Errorf("creating line item sheet: %w", err)
	}

	if err := writeSummarySheet(f, rec); err != nil {
		return err
	}
	if err := writeLineItemSheet(f, rec); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, rec *domain.InvoiceRecord) error {
	rows := []struct {
		label string
		value interface{}
	}{
		{"Invoice Number", cellText(rec.InvoiceNumber)},
		{"Invoice Date", cellText(rec.InvoiceDate)},
		{"Due Date", cellText(rec.DueDate)},
		{"PO Number", cellText(rec.PurchaseOrderNumber)},
		{"Currency", cellText(rec.Currency)},
		{"Subtotal", cellNumber(rec.Subtotal)},
		{"Tax", cellNumber(rec.Tax)},
		{"Shipping", cellNumber(rec.Shipping)},
		{"Total", cellNumber(rec.Total)},
		{"Amount Due", cellNumber(rec.AmountDue)},
		{"Vendor Name", cellText(rec.Vendor.Name)},
		{"Vendor Address", cellText(rec.Vendor.Address)},
		{"Vendor Phone", cellText(rec.Vendor.Phone)},
		{"Vendor Email", cellText(rec.Vendor.Email)},
		{"Vendor Tax ID", cellText(rec.Vendor.TaxID)},
		{"Customer Name", cellText(rec.Customer.Name)},
		{"Customer Address", cellText(rec.Customer.Address)},
		{"Customer Account", cellText(rec.Customer.AccountNumber)},
		{"Line Item Count", len(rec.LineItems)},
		{"Additional Information", cellText(rec.AdditionalInformation)},
	}

	for i, r := range rows {
		rowNum := i + 1
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("A%d", rowNum), r.label); err != nil {
			return fmt.Errorf("writing summary row %d: %w", rowNum, err)
		}
		if err := f.SetCellValue(summarySheet, fmt.Sprintf("B%d", rowNum), r.value); err != nil {
			return fmt.Errorf("writing summary row %d: %w", rowNum, err)
		}
	}

	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}
	return f.SetColWidth(summarySheet, "B", "B", 40)
}

func writeLineItemSheet(f *excelize.File, rec *domain.InvoiceRecord) error {
	for col, header := range lineItemColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("naming header cell: %w", err)
		}
		if err := f.SetCellValue(lineItemSheet, cell, header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i := range rec.LineItems {
		it := &rec.LineItems[i]
		values := []interface{}{
			i + 1,
			cellText(it.Description),
			cellNumber(it.Quantity),
			cellNumber(it.UnitPrice),
			cellNumber(it.TotalPrice),
			cellText(it.ProductCode),
			cellNumber(it.TaxRate),
			cellText(it.Category),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("naming cell: %w", err)
			}
			if err := f.SetCellValue(lineItemSheet, cell, v); err != nil {
				return fmt.Errorf("writing line item %d: %w", i, err)
			}
		}
	}
	return nil
}

func cellText(v *string) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func cellNumber(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
