package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoiceview/internal/domain"
)

func exportRecord() *domain.InvoiceRecord {
	rec := &domain.InvoiceRecord{
		InvoiceNumber: domain.StringPtr("INV-2024-001"),
		InvoiceDate:   domain.StringPtr("2024-03-15"),
		Currency:      domain.StringPtr("USD"),
		Subtotal:      domain.FloatPtr(100),
		Tax:           domain.FloatPtr(18),
		Total:         domain.FloatPtr(118),
		Vendor: domain.VendorInfo{
			Name:  domain.StringPtr("Acme Corp"),
			TaxID: domain.StringPtr("TAX-99"),
		},
		Customer: domain.CustomerInfo{
			Name:          domain.StringPtr("Globex Inc"),
			AccountNumber: domain.StringPtr("ACC-7"),
		},
		LineItems: []domain.LineItem{
			{
				Description: domain.StringPtr("Widget"),
				Quantity:    domain.FloatPtr(2),
				UnitPrice:   domain.FloatPtr(50),
				TotalPrice:  domain.FloatPtr(100),
			},
			{
				Description: domain.StringPtr("Delivery, express"),
				Quantity:    domain.FloatPtr(1.5),
			},
		},
	}
	rec.Normalize()
	return rec
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportRecord()))

	reader := csv.NewReader(&buf)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	// the blank separator line is skipped by the reader, leaving the
	// summary header, its row, the line item header and 2 rows
	require.Len(t, rows, 5)

	assert.Equal(t, summaryColumns, rows[0])
	summary := rows[1]
	assert.Equal(t, "INV-2024-001", summary[0])
	assert.Equal(t, "2024-03-15", summary[1])
	assert.Equal(t, "USD", summary[4])
	assert.Equal(t, "100.00", summary[5])
	assert.Equal(t, "118.00", summary[8])
	assert.Equal(t, "Acme Corp", summary[10])
	assert.Equal(t, "Globex Inc", summary[12])
	assert.Equal(t, "2", summary[14])

	assert.Equal(t, lineItemColumns, rows[2])
	first := rows[3]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "Widget", first[1])
	assert.Equal(t, "2", first[2])
	assert.Equal(t, "50.00", first[3])

	// a comma in the description must survive quoting
	second := rows[4]
	assert.Equal(t, "Delivery, express", second[1])
	assert.Equal(t, "1.5", second[2])
}

func TestWriteCSV_EmptyFieldsStayBlank(t *testing.T) {
	rec := &domain.InvoiceRecord{}
	rec.Normalize()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rec))

	reader := csv.NewReader(&buf)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	summary := rows[1]
	assert.Equal(t, "", summary[0])
	assert.Equal(t, "", summary[5])
	assert.Equal(t, "0", summary[14])
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, exportRecord()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Line Items"}, f.GetSheetList())

	got, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-001", got)

	got, err = f.GetCellValue("Line Items", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Widget", got)

	got, err = f.GetCellValue("Line Items", "D2")
	require.NoError(t, err)
	assert.Equal(t, "50", got)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "INV-2024-001", "INV-2024-001"},
		{"spaces and slashes", "inv / march 2024", "inv_march_2024"},
		{"collapses underscores", "a___b", "a_b"},
		{"strips edge underscores", "!!invoice!!", "invoice"},
		{"empty", "", ""},
		{"truncates", strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	date := time.Now().Format("2006-01-02")
	assert.Equal(t, "INV-1_"+date+".csv", BuildFilename("INV-1", "csv"))
	assert.Equal(t, "invoice_"+date+".xlsx", BuildFilename("", "xlsx"))
	assert.Equal(t, "invoice_"+date+".csv", BuildFilename("???", "csv"))
}
