// Package feed downloads and decodes the bookstore snapshot document.
//
// The snapshot is a single JSON file shaped as
// { store, authors[], books[], orders[], payments[] }. Two incompatible
// field layouts circulate for books (flat stock vs nested stockInfo) and
// payments (nested under an order vs a top-level list); the types here are
// the superset of both, with accessors that resolve the variants once so
// downstream code never sees them.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxSnapshotSize caps the download size (the fixture is well under 1MB).
const maxSnapshotSize = 32 * 1024 * 1024

// Document is the root of the snapshot.
type Document struct {
	Store    Store     `json:"store"`
	Authors  []Author  `json:"authors"`
	Books    []Book    `json:"books"`
	Orders   []Order   `json:"orders"`
	Payments []Payment `json:"payments"`
}

// Store is read-only metadata; name and currency feed the report header.
type Store struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Currency  string     `json:"currency"`
	Address   Address    `json:"address"`
	Employees []Employee `json:"employees"`
}

type Address struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

type Employee struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	HiredAt string `json:"hiredAt"`
}

type Author struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Bio     string `json:"bio"`
	Country string `json:"country"`
}

// Book carries both observed stock layouts; use Stock to read it.
type Book struct {
	ISBN       string   `json:"isbn"`
	Title      string   `json:"title"`
	AuthorID   string   `json:"authorId"`
	Price      float64  `json:"price"`
	StockCount int      `json:"stock"`
	StockInfo  *struct {
		Stock int `json:"stock"`
	} `json:"stockInfo"`
	Categories []string `json:"categories"`
}

// Stock resolves the two stock layouts; the nested form wins when present.
func (b Book) Stock() int {
	if b.StockInfo != nil {
		return b.StockInfo.Stock
	}
	return b.StockCount
}

// Category returns the first category, or nil when the list is empty.
func (b Book) Category() *string {
	if len(b.Categories) == 0 {
		return nil
	}
	return &b.Categories[0]
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderItem struct {
	ISBN      string   `json:"isbn"`
	Quantity  int      `json:"qty"`
	UnitPrice float64  `json:"unitPrice"`
	Discount  *float64 `json:"discount"`
}

// DiscountRate returns the fractional discount, defaulting to 0 when absent.
func (i OrderItem) DiscountRate() float64 {
	if i.Discount == nil {
		return 0
	}
	return *i.Discount
}

// OrderPayment is the per-order nested payment variant.
type OrderPayment struct {
	ID       string  `json:"id"`
	Method   string  `json:"method"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
	Captured bool    `json:"captured"`
	Date     string  `json:"date"`
}

// ResolvedStatus reports the persisted payment status.
func (p OrderPayment) ResolvedStatus() string {
	return resolveStatus(p.Status, p.Captured)
}

// Order keeps the date as a raw string; fixtures deliberately ship
// unparseable values (BAD_DATE) that validation must catch.
type Order struct {
	ID       string        `json:"id"`
	Date     string        `json:"date"`
	Customer *Customer     `json:"customer"`
	Items    []OrderItem   `json:"items"`
	Payment  *OrderPayment `json:"payment"`
	Status   string        `json:"status"`
}

// Payment is the top-level payment list variant.
type Payment struct {
	ID       string  `json:"id"`
	OrderID  string  `json:"orderId"`
	Method   string  `json:"method"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
	Captured bool    `json:"captured"`
	Date     string  `json:"date"`
}

// ResolvedStatus reports the persisted payment status.
func (p Payment) ResolvedStatus() string {
	return resolveStatus(p.Status, p.Captured)
}

// resolveStatus gives an explicit status precedence over the captured flag.
func resolveStatus(status string, captured bool) string {
	if status != "" {
		return status
	}
	if captured {
		return "successful"
	}
	return "pending"
}

// Decode parses a snapshot document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &doc, nil
}

// Client downloads the snapshot from its fixed URL.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a snapshot client for the given URL.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// Download fetches the raw snapshot bytes. A non-2xx response is an error;
// no data has been touched at this point, so the caller simply surfaces it.
func (c *Client) Download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download snapshot: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("read snapshot body: %w", err)
	}
	return data, nil
}
