package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// schemaDDL creates the six tables of the normalized schema. It is written
// with IF NOT EXISTS so it serves both the ensure-on-open path and the
// recreate-on-reset path (which drops first).
const schemaDDL = `
CREATE TABLE IF NOT EXISTS authors (
	id      TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	bio     TEXT,
	country TEXT
);
CREATE TABLE IF NOT EXISTS books (
	isbn      TEXT PRIMARY KEY,
	title     TEXT NOT NULL,
	author_id TEXT,
	category  TEXT,
	price     REAL NOT NULL,
	stock     INTEGER NOT NULL,
	FOREIGN KEY(author_id) REFERENCES authors(id)
);
CREATE TABLE IF NOT EXISTS customers (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL,
	email TEXT
);
CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	customer_id TEXT,
	order_date  TIMESTAMP NOT NULL,
	status      TEXT,
	FOREIGN KEY(customer_id) REFERENCES customers(id)
);
CREATE TABLE IF NOT EXISTS order_items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id   TEXT,
	book_isbn  TEXT,
	quantity   INTEGER NOT NULL,
	unit_price REAL NOT NULL,
	discount   REAL NOT NULL,
	FOREIGN KEY(order_id) REFERENCES orders(id),
	FOREIGN KEY(book_isbn) REFERENCES books(isbn)
);
CREATE TABLE IF NOT EXISTS payments (
	id           TEXT PRIMARY KEY,
	order_id     TEXT,
	amount       REAL NOT NULL,
	method       TEXT,
	status       TEXT NOT NULL,
	payment_date TIMESTAMP,
	FOREIGN KEY(order_id) REFERENCES orders(id)
);`

// dropDDL removes the tables in reverse dependency order.
const dropDDL = `
DROP TABLE IF EXISTS payments;
DROP TABLE IF EXISTS order_items;
DROP TABLE IF EXISTS orders;
DROP TABLE IF EXISTS customers;
DROP TABLE IF EXISTS books;
DROP TABLE IF EXISTS authors;`

// RecreateSchema drops and recreates all tables inside the reset
// transaction. SQLite DDL is transactional, so a rollback restores the
// previous dataset in full.
func RecreateSchema(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, dropDDL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return err
	}
	return nil
}

// AuthorRecord is a row of the authors table.
type AuthorRecord struct {
	ID      string  `db:"id"`
	Name    string  `db:"name"`
	Bio     *string `db:"bio"`
	Country *string `db:"country"`
}

// BookRecord is a row of the books table.
type BookRecord struct {
	ISBN     string  `db:"isbn"`
	Title    string  `db:"title"`
	AuthorID *string `db:"author_id"`
	Category *string `db:"category"`
	Price    float64 `db:"price"`
	Stock    int     `db:"stock"`
}

// CustomerRecord is a row of the customers table.
type CustomerRecord struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

// OrderRecord is a row of the orders table.
type OrderRecord struct {
	ID         string    `db:"id"`
	CustomerID *string   `db:"customer_id"`
	OrderDate  time.Time `db:"order_date"`
	Status     string    `db:"status"`
}

// OrderItemRecord is a row of the order_items table.
type OrderItemRecord struct {
	OrderID   string  `db:"order_id"`
	BookISBN  string  `db:"book_isbn"`
	Quantity  int     `db:"quantity"`
	UnitPrice float64 `db:"unit_price"`
	Discount  float64 `db:"discount"`
}

// PaymentRecord is a row of the payments table.
type PaymentRecord struct {
	ID          string     `db:"id"`
	OrderID     string     `db:"order_id"`
	Amount      float64    `db:"amount"`
	Method      *string    `db:"method"`
	Status      string     `db:"status"`
	PaymentDate *time.Time `db:"payment_date"`
}

// InsertAuthor inserts one author row.
func InsertAuthor(ctx context.Context, ext sqlx.ExtContext, a AuthorRecord) error {
	_, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO authors (id, name, bio, country) VALUES (:id, :name, :bio, :country)`, a)
	return err
}

// InsertBook inserts one book row.
func InsertBook(ctx context.Context, ext sqlx.ExtContext, b BookRecord) error {
	_, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO books (isbn, title, author_id, category, price, stock)
		 VALUES (:isbn, :title, :author_id, :category, :price, :stock)`, b)
	return err
}

// InsertCustomer inserts one customer row.
func InsertCustomer(ctx context.Context, ext sqlx.ExtContext, c CustomerRecord) error {
	_, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO customers (id, name, email) VALUES (:id, :name, :email)`, c)
	return err
}

// InsertOrder inserts one order row.
func InsertOrder(ctx context.Context, ext sqlx.ExtContext, o OrderRecord) error {
	_, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO orders (id, customer_id, order_date, status)
		 VALUES (:id, :customer_id, :order_date, :status)`, o)
	return err
}

// InsertOrderItem inserts one order item row.
func InsertOrderItem(ctx context.Context, ext sqlx.ExtContext, i OrderItemRecord) error {
	_, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO order_items (order_id, book_isbn, quantity, unit_price, discount)
		 VALUES (:order_id, :book_isbn, :quantity, :unit_price, :discount)`, i)
	return err
}

// InsertPayment inserts one payment row.
func InsertPayment(ctx context.Context, ext sqlx.ExtContext, p PaymentRecord) error {
	_, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO payments (id, order_id, amount, method, status, payment_date)
		 VALUES (:id, :order_id, :amount, :method, :status, :payment_date)`, p)
	return err
}
