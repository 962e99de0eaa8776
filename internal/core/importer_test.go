package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/feed"
	"bookstore/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestService opens a fresh SQLite store in a temp dir. The feed client is
// nil; import tests feed documents in directly.
func newTestService(t *testing.T) *Service {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "bookstore.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{}
	cfg.Store.RejectLogPath = filepath.Join(dir, "invalid_bookstore.txt")
	cfg.Store.ReportPath = filepath.Join(dir, "sales_report.txt")
	cfg.Store.ResetTimeout = time.Minute

	return NewService(st, nil, cfg)
}

func discount(v float64) *float64 { return &v }

// validDocument is a small but complete snapshot exercising every table.
func validDocument() *feed.Document {
	return &feed.Document{
		Store: feed.Store{ID: "S1", Name: "Corner Books", Currency: "USD"},
		Authors: []feed.Author{
			{ID: "A1", Name: "Ann Author"},
			{ID: "A2", Name: "Bob Writer", Bio: "prolific"},
		},
		Books: []feed.Book{
			{ISBN: "978-1", Title: "Alpha", AuthorID: "A1", Price: 10.0, StockCount: 4},
			{ISBN: "978-2", Title: "Beta", AuthorID: "A2", Price: 20.0, StockCount: 12},
		},
		Orders: []feed.Order{
			{
				ID:       "O1",
				Date:     "2024-02-01",
				Customer: &feed.Customer{ID: "C1", Name: "Casey", Email: "c@example.com"},
				Items: []feed.OrderItem{
					{ISBN: "978-1", Quantity: 3, UnitPrice: 10.0, Discount: discount(0.1)},
					{ISBN: "978-2", Quantity: 1, UnitPrice: 20.0},
				},
				Payment: &feed.OrderPayment{ID: "P1", Method: "card", Amount: 47.0, Status: "successful"},
				Status:  "shipped",
			},
			{
				ID:       "O2",
				Date:     "2024-02-03",
				Customer: &feed.Customer{ID: "C2", Name: "Drew"},
				Items: []feed.OrderItem{
					{ISBN: "978-2", Quantity: 2, UnitPrice: 20.0},
				},
			},
		},
		Payments: []feed.Payment{
			{ID: "P2", OrderID: "O2", Method: "cash", Amount: 40.0, Captured: true},
		},
	}
}

func TestImportDocument(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	rejects := &RejectionLog{}
	counts, err := s.importDocument(ctx, validDocument(), rejects)
	require.NoError(t, err)

	assert.Equal(t, ImportCounts{
		Authors:   2,
		Books:     2,
		Customers: 2,
		Orders:    2,
		Items:     3,
		Payments:  2,
	}, counts)
	assert.Zero(t, rejects.Len())

	books, err := s.ListBooks(ctx, "")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Alpha", books[0].Title)
	require.NotNil(t, books[0].Author)
	assert.Equal(t, "Ann Author", *books[0].Author)

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	// Newest first.
	assert.Equal(t, "O2", orders[0].ID)
	require.NotNil(t, orders[0].PaymentStatus)
	assert.Equal(t, "successful", *orders[0].PaymentStatus)
}

func TestImportSubtotalUsesFractionalDiscount(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.importDocument(ctx, validDocument(), &RejectionLog{})
	require.NoError(t, err)

	items, err := s.OrderItems(ctx, "O1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	// 3 * 10.00 at 10% off.
	assert.InDelta(t, 27.0, items[0].Subtotal, 0.001)
	assert.InDelta(t, 20.0, items[1].Subtotal, 0.001)

	total, err := s.OrderTotal(ctx, "O1")
	require.NoError(t, err)
	assert.InDelta(t, 47.0, total, 0.001)
}

func TestImportRejectsBooksIndividually(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	doc := validDocument()
	doc.Books = append(doc.Books, feed.Book{Title: "No ISBN", Price: 5.0})

	rejects := &RejectionLog{}
	counts, err := s.importDocument(ctx, doc, rejects)
	require.NoError(t, err)

	assert.Equal(t, 2, counts.Books)
	require.Equal(t, 1, rejects.Len())
	assert.Equal(t, KindBook, rejects.Entries()[0].Kind)
	assert.Equal(t, "missing ISBN", rejects.Entries()[0].Reason)
}

func TestImportRejectsOrdersWholesale(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	doc := validDocument()
	doc.Orders = append(doc.Orders,
		feed.Order{
			ID:       "O3",
			Date:     "BAD_DATE",
			Customer: &feed.Customer{ID: "C3", Name: "Eve"},
			Items:    []feed.OrderItem{{ISBN: "978-1", Quantity: 1, UnitPrice: 10.0}},
			Payment:  &feed.OrderPayment{ID: "P9", Amount: 10.0, Captured: true},
		},
		feed.Order{
			ID:       "O4",
			Date:     "2024-02-05",
			Customer: &feed.Customer{ID: "C4", Name: "INVALID_CUSTOMER"},
			Items:    []feed.OrderItem{{ISBN: "978-2", Quantity: 1, UnitPrice: 20.0}},
		},
	)

	rejects := &RejectionLog{}
	counts, err := s.importDocument(ctx, doc, rejects)
	require.NoError(t, err)

	// Only the two valid orders land; the rejected ones contribute no items,
	// no payments and no derived customers.
	assert.Equal(t, 2, counts.Orders)
	assert.Equal(t, 2, counts.Customers)
	assert.Equal(t, 3, counts.Items)
	assert.Equal(t, 2, counts.Payments)
	assert.Equal(t, 2, rejects.Len())

	items, err := s.OrderItems(ctx, "O3")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestImportRejectsItemsIndividually(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	doc := validDocument()
	doc.Orders[0].Items = append(doc.Orders[0].Items,
		feed.OrderItem{ISBN: "978-1", Quantity: 0, UnitPrice: 10.0})

	rejects := &RejectionLog{}
	counts, err := s.importDocument(ctx, doc, rejects)
	require.NoError(t, err)

	// The zero-quantity item is dropped; its siblings and the order survive.
	assert.Equal(t, 2, counts.Orders)
	assert.Equal(t, 3, counts.Items)
	require.Equal(t, 1, rejects.Len())
	assert.Equal(t, KindOrderItem, rejects.Entries()[0].Kind)

	items, err := s.OrderItems(ctx, "O1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestImportDeduplicatesCustomers(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	doc := validDocument()
	// Same customer ID with a different name later in the file.
	doc.Orders = append(doc.Orders, feed.Order{
		ID:       "O3",
		Date:     "2024-02-06",
		Customer: &feed.Customer{ID: "C1", Name: "Casey Renamed"},
	})

	counts, err := s.importDocument(ctx, doc, &RejectionLog{})
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Customers)
	assert.Equal(t, 3, counts.Orders)

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	for _, o := range orders {
		if o.ID == "O3" {
			require.NotNil(t, o.Customer)
			// First occurrence wins.
			assert.Equal(t, "Casey", *o.Customer)
		}
	}
}

func TestImportIsIdempotent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first, err := s.importDocument(ctx, validDocument(), &RejectionLog{})
	require.NoError(t, err)
	second, err := s.importDocument(ctx, validDocument(), &RejectionLog{})
	require.NoError(t, err)

	assert.Equal(t, first, second)

	books, err := s.ListBooks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestImportRollbackPreservesPriorDataset(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.importDocument(ctx, validDocument(), &RejectionLog{})
	require.NoError(t, err)

	// The nested payment and the top-level list share an ID; the primary key
	// violation must abort the whole reset.
	bad := validDocument()
	bad.Payments = append(bad.Payments, feed.Payment{ID: "P1", OrderID: "O1", Amount: 1.0})

	_, err = s.importDocument(ctx, bad, &RejectionLog{})
	require.Error(t, err)

	books, err := s.ListBooks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, books, 2)

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestImportRollbackOnFreshStore(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	bad := validDocument()
	bad.Authors = append(bad.Authors, feed.Author{ID: "A1", Name: "Duplicate"})

	_, err := s.importDocument(ctx, bad, &RejectionLog{})
	require.Error(t, err)

	books, err := s.ListBooks(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, books)

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestImportSearchFiltersByTitleOrAuthor(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.importDocument(ctx, validDocument(), &RejectionLog{})
	require.NoError(t, err)

	byTitle, err := s.ListBooks(ctx, "Alph")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "Alpha", byTitle[0].Title)

	byAuthor, err := s.ListBooks(ctx, "Bob")
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Beta", byAuthor[0].Title)

	none, err := s.ListBooks(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRestock(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.importDocument(ctx, validDocument(), &RejectionLog{})
	require.NoError(t, err)

	require.NoError(t, s.Restock(ctx, "978-1", 10))

	books, err := s.ListBooks(ctx, "Alpha")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 14, books[0].Stock)

	assert.ErrorIs(t, s.Restock(ctx, "978-1", 0), ErrInvalidAmount)
	assert.ErrorIs(t, s.Restock(ctx, "978-1", -5), ErrInvalidAmount)
	assert.ErrorIs(t, s.Restock(ctx, "missing", 10), ErrBookNotFound)
}
