package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/scoop/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (customer_id, created_at, status)
	VALUES ($1, $2, $3) RETURNING id`

	insertOrderLineSQL = `INSERT INTO order_lines (order_id, flavor_id, quantity) VALUES ($1, $2, $3)`

	getOrderSQL = `SELECT id, customer_id, created_at, status FROM orders WHERE id = $1`

	getOrderLinesSQL = `SELECT flavor_id, quantity FROM order_lines WHERE order_id = $1 ORDER BY id`

	listOrdersByCustomerSQL = `SELECT id, customer_id, created_at, status FROM orders
	WHERE customer_id = $1
	ORDER BY created_at DESC, id DESC`

	listOrdersSQL = `SELECT o.id, o.customer_id, o.created_at, o.status, c.name, c.email, c.phone
	FROM orders o
	JOIN customers c ON c.id = o.customer_id
	WHERE ($1::text = '' OR o.status = $1::text)
	ORDER BY o.created_at DESC, o.id DESC
	LIMIT $2 OFFSET $3`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Store = (*OrderRepository)(nil)

// OrderRepository implements order.Store backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// InTx runs fn in a database transaction. The transaction commits when fn
// returns nil and is rolled back otherwise, including on context
// cancellation.
func (r *OrderRepository) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&orderTx{tx: tx})
	})
}

type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) InsertOrder(ctx context.Context, customerID int64, createdAt time.Time, status order.Status) (int64, error) {
	var id int64
	if err := t.tx.QueryRow(ctx, insertOrderSQL, customerID, createdAt, string(status)).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting order: %w", err)
	}
	return id, nil
}

// InsertLines sends all lines in one batch. Any failing line aborts the
// enclosing transaction.
func (t *orderTx) InsertLines(ctx context.Context, orderID int64, lines []order.Line) error {
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(insertOrderLineSQL, orderID, l.FlavorID, l.Quantity)
	}
	br := t.tx.SendBatch(ctx, batch)
	for i := range lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("inserting order line %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing line batch: %w", err)
	}
	return nil
}

// GetOrder returns an order header.
func (r *OrderRepository) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return &o, nil
}

// GetLines returns the lines of an order in insertion order.
func (r *OrderRepository) GetLines(ctx context.Context, orderID int64) ([]order.Line, error) {
	rows, err := r.pool.Query(ctx, getOrderLinesSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("getting lines of order %d: %w", orderID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var l order.Line
		err := row.Scan(&l.FlavorID, &l.Quantity)
		return l, err
	})
}

// ListByCustomer returns the customer's orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByCustomerSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of customer %d: %w", customerID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// List returns a page of orders joined with their customers, newest first.
func (r *OrderRepository) List(ctx context.Context, f order.ListFilter) ([]order.Summary, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, f.Status, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Summary, error) {
		var (
			s      order.Summary
			status string
		)
		err := row.Scan(&s.ID, &s.CustomerID, &s.CreatedAt, &status,
			&s.CustomerName, &s.CustomerEmail, &s.CustomerPhone)
		s.Status = order.Status(status)
		return s, err
	})
}

// UpdateStatus sets the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status of order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.CreatedAt, &status)
	o.Status = order.Status(status)
	return o, err
}
