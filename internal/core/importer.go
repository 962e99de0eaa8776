package core

import (
	"context"
	"fmt"
	"time"

	"bookstore/internal/feed"
	"bookstore/internal/store"
)

// validOrder pairs an accepted order with its parsed date.
type validOrder struct {
	order feed.Order
	date  time.Time
}

// importDocument replaces the entire dataset with the accepted subset of doc.
//
// Schema recreation and every insert run in one transaction: malformed
// records are skipped and logged, but any storage error rolls the whole
// reset back, leaving the previous dataset untouched. Insertion follows
// dependency order: authors, books, customers (derived from valid orders),
// orders with their items, payments.
func (s *Service) importDocument(ctx context.Context, doc *feed.Document, rejects *RejectionLog) (ImportCounts, error) {
	var counts ImportCounts

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return counts, err
	}
	defer tx.Rollback()

	if err := store.RecreateSchema(ctx, tx); err != nil {
		return counts, fmt.Errorf("recreate schema: %w", err)
	}

	// Authors are independent and not validated; dangling references from
	// books are tolerated on read instead.
	for _, a := range doc.Authors {
		rec := store.AuthorRecord{
			ID:      a.ID,
			Name:    a.Name,
			Bio:     optional(a.Bio),
			Country: optional(a.Country),
		}
		if err := store.InsertAuthor(ctx, tx, rec); err != nil {
			return counts, fmt.Errorf("insert author %s: %w", a.ID, err)
		}
		counts.Authors++
	}

	for _, b := range doc.Books {
		if reason := validateBook(b); reason != "" {
			rejects.Add(KindBook, reason, b)
			continue
		}
		rec := store.BookRecord{
			ISBN:     b.ISBN,
			Title:    b.Title,
			AuthorID: optional(b.AuthorID),
			Category: b.Category(),
			Price:    b.Price,
			Stock:    b.Stock(),
		}
		if err := store.InsertBook(ctx, tx, rec); err != nil {
			return counts, fmt.Errorf("insert book %s: %w", b.ISBN, err)
		}
		counts.Books++
	}

	// Validate orders up front: customers are derived only from orders that
	// passed, and a rejected order never contributes items or payments.
	var accepted []validOrder
	for _, o := range doc.Orders {
		date, reason := validateOrder(o)
		if reason != "" {
			rejects.Add(KindOrder, reason, o)
			continue
		}
		accepted = append(accepted, validOrder{order: o, date: date})
	}

	// Distinct customers, first occurrence wins.
	seen := make(map[string]bool)
	for _, vo := range accepted {
		c := vo.order.Customer
		if c == nil || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		rec := store.CustomerRecord{ID: c.ID, Name: c.Name, Email: c.Email}
		if err := store.InsertCustomer(ctx, tx, rec); err != nil {
			return counts, fmt.Errorf("insert customer %s: %w", c.ID, err)
		}
		counts.Customers++
	}

	for _, vo := range accepted {
		o := vo.order
		rec := store.OrderRecord{
			ID:        o.ID,
			OrderDate: vo.date,
			Status:    o.Status,
		}
		if o.Customer != nil {
			rec.CustomerID = &o.Customer.ID
		}
		if err := store.InsertOrder(ctx, tx, rec); err != nil {
			return counts, fmt.Errorf("insert order %s: %w", o.ID, err)
		}
		counts.Orders++

		for _, item := range o.Items {
			if reason := validateItem(item); reason != "" {
				rejects.Add(KindOrderItem, reason, item)
				continue
			}
			itemRec := store.OrderItemRecord{
				OrderID:   o.ID,
				BookISBN:  item.ISBN,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Discount:  item.DiscountRate(),
			}
			if err := store.InsertOrderItem(ctx, tx, itemRec); err != nil {
				return counts, fmt.Errorf("insert item for order %s: %w", o.ID, err)
			}
			counts.Items++
		}
	}

	// Payments come in two shapes: nested under a (valid) order, and the
	// top-level list. Both land in the same table; duplicate IDs between the
	// two sources are a constraint violation and abort the reset.
	for _, vo := range accepted {
		p := vo.order.Payment
		if p == nil {
			continue
		}
		rec := store.PaymentRecord{
			ID:          p.ID,
			OrderID:     vo.order.ID,
			Amount:      p.Amount,
			Method:      optional(p.Method),
			Status:      p.ResolvedStatus(),
			PaymentDate: optionalDate(p.Date),
		}
		if err := store.InsertPayment(ctx, tx, rec); err != nil {
			return counts, fmt.Errorf("insert payment %s: %w", p.ID, err)
		}
		counts.Payments++
	}
	for _, p := range doc.Payments {
		rec := store.PaymentRecord{
			ID:          p.ID,
			OrderID:     p.OrderID,
			Amount:      p.Amount,
			Method:      optional(p.Method),
			Status:      p.ResolvedStatus(),
			PaymentDate: optionalDate(p.Date),
		}
		if err := store.InsertPayment(ctx, tx, rec); err != nil {
			return counts, fmt.Errorf("insert payment %s: %w", p.ID, err)
		}
		counts.Payments++
	}

	if err := tx.Commit(); err != nil {
		return counts, fmt.Errorf("commit: %w", err)
	}
	return counts, nil
}

// optional maps "" to NULL.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// optionalDate maps empty or unparseable date strings to NULL. Payment dates
// are tolerated, not validated; only order dates reject their record.
func optionalDate(s string) *time.Time {
	if t, ok := parseDate(s); ok {
		return &t
	}
	return nil
}
