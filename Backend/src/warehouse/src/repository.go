package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // driver 100% Go
)

type Repository struct {
	DB *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	// busy_timeout to avoid "database is locked" under concurrent callers
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout=5000&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(2 * time.Minute)
	db.SetMaxOpenConns(1)

	r := &Repository{DB: db}
	if err := r.migrate(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS shelf_stock(
  book_id      TEXT NOT NULL,
  shelf_id     TEXT NOT NULL,
  copies       INTEGER NOT NULL CHECK(copies >= 0),
  updated_unix INTEGER NOT NULL,
  PRIMARY KEY(book_id, shelf_id)
);
CREATE TABLE IF NOT EXISTS orders(
  id           TEXT PRIMARY KEY,
  created_unix INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL,
  book_id  TEXT NOT NULL,
  qty      INTEGER NOT NULL CHECK(qty >= 1),
  PRIMARY KEY(order_id, book_id),
  FOREIGN KEY(order_id) REFERENCES orders(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_stock_book ON shelf_stock(book_id);
`
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

func (r *Repository) Close() error { return r.DB.Close() }

// querier is satisfied by both *sql.DB and *sql.Tx so the single-key reads
// and writes can run standalone or inside a fulfilment transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// --- shelf stock ledger ---

// GetCopies returns every shelf holding at least one copy of the book.
func (r *Repository) GetCopies(ctx context.Context, bookID string) (map[string]int64, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT shelf_id, copies FROM shelf_stock WHERE book_id=? AND copies > 0`, bookID)
	if err != nil { return nil, err }
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		row := ShelfStock{BookID: bookID}
		if err := rows.Scan(&row.ShelfID, &row.Copies); err != nil { return nil, err }
		out[row.ShelfID] = row.Copies
	}
	return out, rows.Err()
}

func (r *Repository) GetCopiesOnShelf(ctx context.Context, bookID, shelfID string) (int64, error) {
	return copiesOnShelf(ctx, r.DB, bookID, shelfID)
}

func copiesOnShelf(ctx context.Context, q querier, bookID, shelfID string) (int64, error) {
	var copies int64
	err := q.QueryRowContext(ctx,
		`SELECT copies FROM shelf_stock WHERE book_id=? AND shelf_id=?`, bookID, shelfID).
		Scan(&copies)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil { return 0, err }
	return copies, nil
}

// SetCopiesOnShelf writes the absolute count for one (book, shelf) key.
// Last write wins; no cross-key coordination happens here.
func (r *Repository) SetCopiesOnShelf(ctx context.Context, bookID, shelfID string, copies int64) error {
	if copies < 0 {
		return ErrInvalidArgument{Reason: "can't place less than 0 books on a shelf"}
	}
	if bookID == "" {
		return ErrInvalidArgument{Reason: "empty book id"}
	}
	return setCopiesOnShelf(ctx, r.DB, bookID, shelfID, copies)
}

func setCopiesOnShelf(ctx context.Context, q querier, bookID, shelfID string, copies int64) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO shelf_stock(book_id, shelf_id, copies, updated_unix)
VALUES(?,?,?,?)
ON CONFLICT(book_id, shelf_id) DO UPDATE SET
  copies=excluded.copies,
  updated_unix=excluded.updated_unix`,
		bookID, shelfID, copies, nowUnix())
	return err
}

// --- order book ---

// CreateOrder stores a new pending order and returns its generated id.
func (r *Repository) CreateOrder(ctx context.Context, books map[string]int64) (string, error) {
	if len(books) == 0 {
		return "", ErrInvalidArgument{Reason: "an order needs at least one book"}
	}
	for book, qty := range books {
		if book == "" {
			return "", ErrInvalidArgument{Reason: "empty book id in order"}
		}
		if qty < 1 {
			return "", ErrInvalidArgument{Reason: "order quantity for " + book + " must be at least 1"}
		}
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil { return "", err }
	defer func() { _ = tx.Rollback() }()

	orderID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders(id, created_unix) VALUES(?,?)`, orderID, nowUnix()); err != nil {
		return "", err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO order_items(order_id, book_id, qty) VALUES(?,?,?)`)
	if err != nil { return "", err }
	defer stmt.Close()

	for book, qty := range books {
		if _, err := stmt.ExecContext(ctx, orderID, book, qty); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil { return "", err }
	return orderID, nil
}

// GetOrder returns the required quantities per book, or a nil map when the
// order does not exist. A missing order is not an error at this layer.
func (r *Repository) GetOrder(ctx context.Context, orderID string) (map[string]int64, error) {
	return orderBooks(ctx, r.DB, orderID)
}

func orderBooks(ctx context.Context, q querier, orderID string) (map[string]int64, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM orders WHERE id=?`, orderID).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil { return nil, err }

	rows, err := q.QueryContext(ctx,
		`SELECT book_id, qty FROM order_items WHERE order_id=?`, orderID)
	if err != nil { return nil, err }
	defer rows.Close()

	books := map[string]int64{}
	for rows.Next() {
		var book string
		var qty int64
		if err := rows.Scan(&book, &qty); err != nil { return nil, err }
		books[book] = qty
	}
	return books, rows.Err()
}

func (r *Repository) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT o.id, i.book_id, i.qty
FROM orders o JOIN order_items i ON i.order_id = o.id
ORDER BY o.created_unix, o.id`)
	if err != nil { return nil, err }
	defer rows.Close()

	var out []Order
	index := map[string]int{}
	for rows.Next() {
		var id, book string
		var qty int64
		if err := rows.Scan(&id, &book, &qty); err != nil { return nil, err }
		pos, ok := index[id]
		if !ok {
			pos = len(out)
			index[id] = pos
			out = append(out, Order{ID: id, Books: map[string]int64{}})
		}
		out[pos].Books[book] = qty
	}
	return out, rows.Err()
}

// RemoveOrder deletes an order. Removing an unknown id is a no-op.
func (r *Repository) RemoveOrder(ctx context.Context, orderID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM orders WHERE id=?`, orderID)
	return err
}

// --- fulfilment ---

// Fulfil retires an order by removing its books from the shelves named in the
// plan. All checks and writes run inside one transaction: either the order is
// gone and every touched shelf holds its new count, or nothing changed.
func (r *Repository) Fulfil(ctx context.Context, orderID string, plan []FulfilmentLine) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil { return err }
	defer func() { _ = tx.Rollback() }()

	// 1) the order must still exist
	required, err := orderBooks(ctx, tx, orderID)
	if err != nil { return err }
	if required == nil {
		return ErrOrderNotFound{OrderID: orderID}
	}

	// 2) conservation: removed quantities must match the order book by book
	removed := map[string]int64{}
	for _, ln := range plan {
		if ln.Copies < 0 {
			return ErrInvalidArgument{Reason: "plan quantities must not be negative"}
		}
		if _, ok := required[ln.BookID]; !ok {
			return ErrForeignBook{OrderID: orderID, BookID: ln.BookID}
		}
		removed[ln.BookID] += ln.Copies
	}
	for book, want := range required {
		if removed[book] != want {
			return ErrQuantityMismatch{BookID: book, Want: want, Got: removed[book]}
		}
	}

	// 3) sufficiency against a single snapshot. Lines are aggregated per
	// (book, shelf) first so a plan repeating a shelf can't go below zero.
	type shelfKey struct{ book, shelf string }
	deltas := map[shelfKey]int64{}
	var keys []shelfKey
	for _, ln := range plan {
		k := shelfKey{ln.BookID, ln.ShelfID}
		if _, seen := deltas[k]; !seen {
			keys = append(keys, k)
		}
		deltas[k] += ln.Copies
	}

	left := make(map[shelfKey]int64, len(keys))
	for _, k := range keys {
		cur, err := copiesOnShelf(ctx, tx, k.book, k.shelf)
		if err != nil { return err }
		if cur < deltas[k] {
			return ErrInsufficientStock{BookID: k.book, ShelfID: k.shelf, Want: deltas[k], Avail: cur}
		}
		left[k] = cur - deltas[k]
	}

	// 4) retire the order, then write every new count
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id=?`, orderID); err != nil {
		return err
	}
	for _, k := range keys {
		if err := setCopiesOnShelf(ctx, tx, k.book, k.shelf, left[k]); err != nil {
			return err
		}
	}
	return tx.Commit()
}
