package domain

// VendorInfo holds the extracted vendor block of an invoice. Every value is
// optional; each carries a sibling confidence score in [0,1].
type VendorInfo struct {
	Name              *string  `json:"name"`
	NameConfidence    *float64 `json:"name_confidence"`
	Address           *string  `json:"address"`
	AddressConfidence *float64 `json:"address_confidence"`
	Phone             *string  `json:"phone"`
	PhoneConfidence   *float64 `json:"phone_confidence"`
	Email             *string  `json:"email"`
	EmailConfidence   *float64 `json:"email_confidence"`
	TaxID             *string  `json:"tax_id"`
	TaxIDConfidence   *float64 `json:"tax_id_confidence"`
}

// CustomerInfo holds the extracted bill-to block of an invoice.
type CustomerInfo struct {
	Name                    *string  `json:"name"`
	NameConfidence          *float64 `json:"name_confidence"`
	Address                 *string  `json:"address"`
	AddressConfidence       *float64 `json:"address_confidence"`
	Phone                   *string  `json:"phone"`
	PhoneConfidence         *float64 `json:"phone_confidence"`
	Email                   *string  `json:"email"`
	EmailConfidence         *float64 `json:"email_confidence"`
	AccountNumber           *string  `json:"account_number"`
	AccountNumberConfidence *float64 `json:"account_number_confidence"`
}

// LineItem is a single billed row on the invoice.
type LineItem struct {
	Description           *string  `json:"description"`
	DescriptionConfidence *float64 `json:"description_confidence"`
	Quantity              *float64 `json:"quantity"`
	QuantityConfidence    *float64 `json:"quantity_confidence"`
	UnitPrice             *float64 `json:"unit_price"`
	UnitPriceConfidence   *float64 `json:"unit_price_confidence"`
	TotalPrice            *float64 `json:"total_price"`
	TotalPriceConfidence  *float64 `json:"total_price_confidence"`
	ProductCode           *string  `json:"product_code"`
	ProductCodeConfidence *float64 `json:"product_code_confidence"`
	TaxRate               *float64 `json:"tax_rate"`
	TaxRateConfidence     *float64 `json:"tax_rate_confidence"`
	Category              *string  `json:"category"`
	CategoryConfidence    *float64 `json:"category_confidence"`
}

// Flags are document-level signals computed by the extraction service.
// They are informational only; nothing downstream branches on them except
// the review warning banner.
type Flags struct {
	ConfidenceWarning   bool `json:"confidence_warning"`
	MultiPageInvoice    bool `json:"multi_page_invoice"`
	DiscrepancyDetected bool `json:"discrepancy_detected"`
}

// InvoiceRecord is the structured extraction result for one invoice
// document. The wire shape mirrors the extraction service's JSON: flat
// scalar fields with "<field>_confidence" siblings, nested vendor and
// customer blocks, and a dotted-path list of low-confidence fields.
type InvoiceRecord struct {
	InvoiceNumber                   *string      `json:"invoice_number"`
	InvoiceNumberConfidence         *float64     `json:"invoice_number_confidence"`
	InvoiceDate                     *string      `json:"invoice_date"`
	InvoiceDateConfidence           *float64     `json:"invoice_date_confidence"`
	DueDate                         *string      `json:"due_date"`
	DueDateConfidence               *float64     `json:"due_date_confidence"`
	PurchaseOrderNumber             *string      `json:"purchase_order_number"`
	PurchaseOrderNumberConfidence   *float64     `json:"purchase_order_number_confidence"`
	Currency                        *string      `json:"currency"`
	CurrencyConfidence              *float64     `json:"currency_confidence"`
	Subtotal                        *float64     `json:"subtotal"`
	SubtotalConfidence              *float64     `json:"subtotal_confidence"`
	Tax                             *float64     `json:"tax"`
	TaxConfidence                   *float64     `json:"tax_confidence"`
	Shipping                        *float64     `json:"shipping"`
	ShippingConfidence              *float64     `json:"shipping_confidence"`
	Total                           *float64     `json:"total"`
	TotalConfidence                 *float64     `json:"total_confidence"`
	AmountDue                       *float64     `json:"amount_due"`
	AmountDueConfidence             *float64     `json:"amount_due_confidence"`
	Vendor                          VendorInfo   `json:"vendor"`
	Customer                        CustomerInfo `json:"customer"`
	LineItems                       []LineItem   `json:"line_items"`
	AdditionalInformation           *string      `json:"additional_information"`
	AdditionalInformationConfidence *float64     `json:"additional_information_confidence"`
	Flags                           Flags        `json:"flags"`
	LowConfidenceFields             []string     `json:"low_confidence_fields"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }

func defaultConfidence(pp **float64) {
	if *pp == nil {
		*pp = FloatPtr(1.0)
	}
}

// Normalize materializes the optional parts of the record so callers can
// treat it uniformly: nil slices become empty, and any missing confidence
// score defaults to 1.0, matching the extraction service's own defaults.
// Normalize is idempotent; calling it twice changes nothing.
func (r *InvoiceRecord) Normalize() {
	if r.LineItems == nil {
		r.LineItems = []LineItem{}
	}
	if r.LowConfidenceFields == nil {
		r.LowConfidenceFields = []string{}
	}

	defaultConfidence(&r.InvoiceNumberConfidence)
	defaultConfidence(&r.InvoiceDateConfidence)
	defaultConfidence(&r.DueDateConfidence)
	defaultConfidence(&r.PurchaseOrderNumberConfidence)
	defaultConfidence(&r.CurrencyConfidence)
	defaultConfidence(&r.SubtotalConfidence)
	defaultConfidence(&r.TaxConfidence)
	defaultConfidence(&r.ShippingConfidence)
	defaultConfidence(&r.TotalConfidence)
	defaultConfidence(&r.AmountDueConfidence)
	defaultConfidence(&r.AdditionalInformationConfidence)

	defaultConfidence(&r.Vendor.NameConfidence)
	defaultConfidence(&r.Vendor.AddressConfidence)
	defaultConfidence(&r.Vendor.PhoneConfidence)
	defaultConfidence(&r.Vendor.EmailConfidence)
	defaultConfidence(&r.Vendor.TaxIDConfidence)

	defaultConfidence(&r.Customer.NameConfidence)
	defaultConfidence(&r.Customer.AddressConfidence)
	defaultConfidence(&r.Customer.PhoneConfidence)
	defaultConfidence(&r.Customer.EmailConfidence)
	defaultConfidence(&r.Customer.AccountNumberConfidence)

	for i := range r.LineItems {
		it := &r.LineItems[i]
		defaultConfidence(&it.DescriptionConfidence)
		defaultConfidence(&it.QuantityConfidence)
		defaultConfidence(&it.UnitPriceConfidence)
		defaultConfidence(&it.TotalPriceConfidence)
		defaultConfidence(&it.ProductCodeConfidence)
		defaultConfidence(&it.TaxRateConfidence)
		defaultConfidence(&it.CategoryConfidence)
	}
}

// Clone returns a copy of the record with its own slices, safe to hand out
// while the original keeps being edited. Pointer fields are shared; edits
// replace pointers rather than writing through them.
func (r *InvoiceRecord) Clone() *InvoiceRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.LineItems != nil {
		cp.LineItems = make([]LineItem, len(r.LineItems))
		copy(cp.LineItems, r.LineItems)
	}
	if r.LowConfidenceFields != nil {
		cp.LowConfidenceFields = make([]string, len(r.LowConfidenceFields))
		copy(cp.LowConfidenceFields, r.LowConfidenceFields)
	}
	return &cp
}

// LowConfidencePaths parses the record's low_confidence_fields into typed
// paths. Entries that do not parse or no longer resolve against the current
// record shape are dropped.
func (r *InvoiceRecord) LowConfidencePaths() []FieldPath {
	paths := make([]FieldPath, 0, len(r.LowConfidenceFields))
	for _, raw := range r.LowConfidenceFields {
		p, err := ParseFieldPath(raw)
		if err != nil {
			continue
		}
		if !p.ResolvesIn(r) {
			continue
		}
		paths = append(paths, p)
	}
	return paths
}
