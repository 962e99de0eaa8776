package core

import (
	"strings"
	"time"

	"bookstore/internal/feed"
)

// sentinelCustomerName marks the deliberately corrupted customer fixture in
// the snapshot, analogous to the BAD_DATE order-date fixture.
const sentinelCustomerName = "INVALID_CUSTOMER"

// Rejection reasons. These are the exact strings written to the log.
const (
	reasonMissingISBN         = "missing ISBN"
	reasonInvalidCustomer     = "invalid customer name"
	reasonUnparseableDate     = "unparseable order date"
	reasonNonPositiveQuantity = "non-positive quantity"
)

// dateLayouts are the accepted locale-invariant date formats, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseDate parses a snapshot date string, assuming UTC for date-only values.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// validateBook returns the rejection reason for a book, or "" if acceptable.
func validateBook(b feed.Book) string {
	if strings.TrimSpace(b.ISBN) == "" {
		return reasonMissingISBN
	}
	return ""
}

// validateOrder checks an order wholesale: a sentinel customer name or an
// unparseable date rejects the order and all of its items. When both rules
// are violated the reasons are joined in evaluation order, so the rejection
// log entry is deterministic.
func validateOrder(o feed.Order) (time.Time, string) {
	var reasons []string

	if o.Customer != nil && o.Customer.Name == sentinelCustomerName {
		reasons = append(reasons, reasonInvalidCustomer)
	}

	date, ok := parseDate(o.Date)
	if !ok {
		reasons = append(reasons, reasonUnparseableDate)
	}

	return date, strings.Join(reasons, "; ")
}

// validateItem returns the rejection reason for an order item, or "" if
// acceptable. Rejection is per-item: siblings and the parent order are
// unaffected.
func validateItem(i feed.OrderItem) string {
	if i.Quantity <= 0 {
		return reasonNonPositiveQuantity
	}
	return ""
}
