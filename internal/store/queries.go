package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// BookRow is one catalog entry. Author is resolved via LEFT JOIN, so a book
// with a dangling author reference still lists (with a nil author).
type BookRow struct {
	ISBN     string  `db:"isbn" json:"isbn"`
	Title    string  `db:"title" json:"title"`
	Author   *string `db:"author" json:"author,omitempty"`
	Category *string `db:"category" json:"category,omitempty"`
	Price    float64 `db:"price" json:"price"`
	Stock    int     `db:"stock" json:"stock"`
}

// ListBooks returns the catalog ordered by title, optionally filtered by a
// case-insensitive substring match on title or author name.
func (s *Store) ListBooks(ctx context.Context, search string) ([]BookRow, error) {
	query := `
		SELECT b.isbn, b.title, a.name AS author, b.category, b.price, b.stock
		FROM books b
		LEFT JOIN authors a ON b.author_id = a.id`
	args := []any{}

	if search != "" {
		query += ` WHERE b.title LIKE ? OR a.name LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY b.title`

	books := []BookRow{}
	if err := s.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// Restock adds amount to a book's stock and returns the number of rows
// updated (zero when the ISBN is unknown).
func (s *Store) Restock(ctx context.Context, isbn string, amount int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET stock = stock + ? WHERE isbn = ?`, amount, isbn)
	if err != nil {
		return 0, fmt.Errorf("restock %s: %w", isbn, err)
	}
	return res.RowsAffected()
}

// OrderRow is one order listing entry. PaymentStatus is the status of the
// first payment recorded for the order, when any exists.
type OrderRow struct {
	ID            string    `db:"id" json:"id"`
	Customer      *string   `db:"customer" json:"customer,omitempty"`
	OrderDate     time.Time `db:"order_date" json:"orderDate"`
	Status        *string   `db:"status" json:"status,omitempty"`
	PaymentStatus *string   `db:"payment_status" json:"paymentStatus,omitempty"`
}

// ListOrders returns all orders, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]OrderRow, error) {
	query := `
		SELECT o.id, c.name AS customer, o.order_date, o.status,
		       (SELECT p.status FROM payments p WHERE p.order_id = o.id LIMIT 1) AS payment_status
		FROM orders o
		LEFT JOIN customers c ON o.customer_id = c.id
		ORDER BY o.order_date DESC`

	orders := []OrderRow{}
	if err := s.db.SelectContext(ctx, &orders, query); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// OrderItemRow is one line of an order, with the subtotal computed using the
// fractional discount rate: quantity * unit_price * (1 - discount).
type OrderItemRow struct {
	Title     string  `db:"title" json:"title"`
	Quantity  int     `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unitPrice"`
	Discount  float64 `db:"discount" json:"discount"`
	Subtotal  float64 `db:"subtotal" json:"subtotal"`
}

// OrderItems returns the items of one order.
func (s *Store) OrderItems(ctx context.Context, orderID string) ([]OrderItemRow, error) {
	query := `
		SELECT b.title, oi.quantity, oi.unit_price, oi.discount,
		       (oi.quantity * oi.unit_price * (1 - oi.discount)) AS subtotal
		FROM order_items oi
		JOIN books b ON oi.book_isbn = b.isbn
		WHERE oi.order_id = ?`

	items := []OrderItemRow{}
	if err := s.db.SelectContext(ctx, &items, query, orderID); err != nil {
		return nil, fmt.Errorf("order items %s: %w", orderID, err)
	}
	return items, nil
}

// OrderTotal returns the sum of an order's item subtotals, 0 when it has none.
func (s *Store) OrderTotal(ctx context.Context, orderID string) (float64, error) {
	var total float64
	err := s.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(quantity * unit_price * (1 - discount)), 0)
		 FROM order_items WHERE order_id = ?`, orderID)
	if err != nil {
		return 0, fmt.Errorf("order total %s: %w", orderID, err)
	}
	return total, nil
}

// TotalCapturedSales sums the amounts of captured ('successful') payments.
func (s *Store) TotalCapturedSales(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'successful'`)
	if err != nil {
		return 0, fmt.Errorf("total sales: %w", err)
	}
	return total, nil
}

// LowStockBook is a catalog entry under the stock threshold.
type LowStockBook struct {
	Title string `db:"title" json:"title"`
	Stock int    `db:"stock" json:"stock"`
}

// LowStockBooks returns books with stock strictly below the threshold.
func (s *Store) LowStockBooks(ctx context.Context, threshold int) ([]LowStockBook, error) {
	books := []LowStockBook{}
	err := s.db.SelectContext(ctx, &books,
		`SELECT title, stock FROM books WHERE stock < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("low stock books: %w", err)
	}
	return books, nil
}

// BestSellerRow is the single best-selling title by total quantity sold.
type BestSellerRow struct {
	Title     string `db:"title" json:"title"`
	TotalSold int    `db:"total_sold" json:"totalSold"`
}

// BestSeller returns the best-selling book, or nil when nothing has sold.
// Ties break arbitrarily on the first match, like the report always has.
func (s *Store) BestSeller(ctx context.Context) (*BestSellerRow, error) {
	var row BestSellerRow
	err := s.db.GetContext(ctx, &row, `
		SELECT b.title, SUM(oi.quantity) AS total_sold
		FROM order_items oi
		JOIN books b ON oi.book_isbn = b.isbn
		GROUP BY b.title
		ORDER BY total_sold DESC
		LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("best seller: %w", err)
	}
	return &row, nil
}
