package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"conditional_orderbook/internal/core"
	apperrors "conditional_orderbook/pkg/errors"
)

// Prices and quantities are stored as TEXT so decimal values survive the
// round trip exactly.
const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id       TEXT PRIMARY KEY,
	pair     TEXT NOT NULL,
	side     TEXT NOT NULL,
	price    TEXT NOT NULL,
	quantity TEXT NOT NULL,
	status   TEXT NOT NULL,
	created  INTEGER NOT NULL,
	updated  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_pair_status ON orders (pair, status);
`

// SQLiteRepository implements core.IOrderRepository on SQLite
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Enable WAL mode for crash recovery
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(ordersSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, req core.NewOrderRequest) (core.Order, error) {
	order := core.NewOrder(req)

	query := `INSERT INTO orders (id, pair, side, price, quantity, status, created, updated)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.Pair, string(order.Side),
		order.Price.String(), order.Quantity.String(),
		string(order.Status), order.Created, order.Updated,
	)
	if err != nil {
		return core.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	return order, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (core.Order, error) {
	query := `SELECT id, pair, side, price, quantity, status, created, updated
	          FROM orders WHERE id = ?`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Order{}, apperrors.ErrOrderNotFound
		}
		return core.Order{}, fmt.Errorf("failed to read order: %w", err)
	}
	return order, nil
}

func (r *SQLiteRepository) List(ctx context.Context, q core.ListOrdersQuery) ([]core.Order, error) {
	query := `SELECT id, pair, side, price, quantity, status, created, updated FROM orders`
	var conds []string
	var args []interface{}

	if q.Pair != "" {
		conds = append(conds, "pair = ?")
		args = append(args, q.Pair)
	}
	if q.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(q.Status))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created, id"

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, offset)
	} else if offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET; -1 means unlimited
		query += " LIMIT -1 OFFSET ?"
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []core.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

func (r *SQLiteRepository) SetStatus(ctx context.Context, id string, status core.OrderStatus) (core.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated = ? WHERE id = ?`,
		string(status), core.NowMillis(), id,
	)
	if err != nil {
		return core.Order{}, fmt.Errorf("failed to update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Order{}, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return core.Order{}, apperrors.ErrOrderNotFound
	}

	order, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT id, pair, side, price, quantity, status, created, updated FROM orders WHERE id = ?`, id))
	if err != nil {
		return core.Order{}, fmt.Errorf("failed to read updated order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Order{}, fmt.Errorf("failed to commit status update: %w", err)
	}
	return order, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrOrderNotFound
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (core.Order, error) {
	var (
		order        core.Order
		side, status string
		price, qty   string
	)
	if err := row.Scan(&order.ID, &order.Pair, &side, &price, &qty, &status, &order.Created, &order.Updated); err != nil {
		return core.Order{}, err
	}

	priceDec, err := decimal.NewFromString(price)
	if err != nil {
		return core.Order{}, fmt.Errorf("corrupt price column: %w", err)
	}
	qtyDec, err := decimal.NewFromString(qty)
	if err != nil {
		return core.Order{}, fmt.Errorf("corrupt quantity column: %w", err)
	}

	order.Side = core.OrderSide(side)
	order.Status = core.OrderStatus(status)
	order.Price = priceDec
	order.Quantity = qtyDec
	return order, nil
}
