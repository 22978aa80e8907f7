package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldScope identifies which part of an InvoiceRecord a FieldPath points
// into.
type FieldScope string

const (
	ScopeRoot     FieldScope = "root"
	ScopeVendor   FieldScope = "vendor"
	ScopeCustomer FieldScope = "customer"
	ScopeLineItem FieldScope = "line_items"
)

// FieldPath is a typed reference to a single editable field of an
// InvoiceRecord. The extraction service reports low-confidence fields as
// loose strings ("vendor.tax_id", "line_items[2].unit_price"); parsing them
// into FieldPath up front means the rest of the code never string-matches
// paths.
type FieldPath struct {
	Scope FieldScope
	// Index is the line item position. Only meaningful when Scope is
	// ScopeLineItem; -1 otherwise.
	Index int
	Field string
}

var rootFields = map[string]bool{
	"invoice_number":         true,
	"invoice_date":           true,
	"due_date":               true,
	"purchase_order_number":  true,
	"currency":               true,
	"subtotal":               true,
	"tax":                    true,
	"shipping":               true,
	"total":                  true,
	"amount_due":             true,
	"additional_information": true,
}

var vendorFields = map[string]bool{
	"name":    true,
	"address": true,
	"phone":   true,
	"email":   true,
	"tax_id":  true,
}

var customerFields = map[string]bool{
	"name":           true,
	"address":        true,
	"phone":          true,
	"email":          true,
	"account_number": true,
}

var lineItemFields = map[string]bool{
	"description":  true,
	"quantity":     true,
	"unit_price":   true,
	"total_price":  true,
	"product_code": true,
	"tax_rate":     true,
	"category":     true,
}

var bracketNormalizer = strings.NewReplacer("[", ".", "]", "")

// ParseFieldPath parses a dotted or bracketed path string. Both
// "line_items.2.unit_price" and "line_items[2].unit_price" are accepted.
func ParseFieldPath(s string) (FieldPath, error) {
	norm := bracketNormalizer.Replace(strings.TrimSpace(s))
	if norm == "" {
		return FieldPath{}, fmt.Errorf("%w: empty path", ErrInvalidFieldPath)
	}

	parts := strings.Split(norm, ".")
	switch {
	case len(parts) == 1:
		if !rootFields[parts[0]] {
			return FieldPath{}, fmt.Errorf("%w: unknown field %q", ErrInvalidFieldPath, parts[0])
		}
		return FieldPath{Scope: ScopeRoot, Index: -1, Field: parts[0]}, nil

	case len(parts) == 2 && parts[0] == string(ScopeVendor):
		if !vendorFields[parts[1]] {
			return FieldPath{}, fmt.Errorf("%w: unknown vendor field %q", ErrInvalidFieldPath, parts[1])
		}
		return FieldPath{Scope: ScopeVendor, Index: -1, Field: parts[1]}, nil

	case len(parts) == 2 && parts[0] == string(ScopeCustomer):
		if !customerFields[parts[1]] {
			return FieldPath{}, fmt.Errorf("%w: unknown customer field %q", ErrInvalidFieldPath, parts[1])
		}
		return FieldPath{Scope: ScopeCustomer, Index: -1, Field: parts[1]}, nil

	case len(parts) == 3 && parts[0] == string(ScopeLineItem):
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 {
			return FieldPath{}, fmt.Errorf("%w: bad line item index %q", ErrInvalidFieldPath, parts[1])
		}
		if !lineItemFields[parts[2]] {
			return FieldPath{}, fmt.Errorf("%w: unknown line item field %q", ErrInvalidFieldPath, parts[2])
		}
		return FieldPath{Scope: ScopeLineItem, Index: idx, Field: parts[2]}, nil
	}
	return FieldPath{}, fmt.Errorf("%w: %q", ErrInvalidFieldPath, s)
}

// String renders the path in the canonical dotted form.
func (p FieldPath) String() string {
	switch p.Scope {
	case ScopeRoot:
		return p.Field
	case ScopeLineItem:
		return fmt.Sprintf("%s.%d.%s", p.Scope, p.Index, p.Field)
	default:
		return fmt.Sprintf("%s.%s", p.Scope, p.Field)
	}
}

// ResolvesIn reports whether the path points at a field that exists in r.
// For line item paths this bounds-checks the index against the current
// slice, so a path left over from a removed row stops resolving.
func (p FieldPath) ResolvesIn(r *InvoiceRecord) bool {
	if r == nil {
		return false
	}
	switch p.Scope {
	case ScopeRoot:
		return rootFields[p.Field]
	case ScopeVendor:
		return vendorFields[p.Field]
	case ScopeCustomer:
		return customerFields[p.Field]
	case ScopeLineItem:
		return lineItemFields[p.Field] && p.Index >= 0 && p.Index < len(r.LineItems)
	}
	return false
}
