package order

import (
	"context"
	"time"
)

// Order is an order header. Lines are stored separately and never change
// after creation.
type Order struct {
	ID         int64
	CustomerID int64
	CreatedAt  time.Time
	Status     Status
}

// Line is one flavor and quantity entry within an order.
type Line struct {
	FlavorID int64
	Quantity int
}

// Summary is an order header joined with the owning customer's display
// fields, used by the administrative listing.
type Summary struct {
	Order
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// ListFilter selects a page of orders. An empty Status matches every order.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// Detail is an order header with its lines priced at current flavor prices.
type Detail struct {
	Order
	Quote Quote
}

// Store is durable storage for orders and their lines.
type Store interface {
	// InTx runs fn inside one atomic unit of work. The unit commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetOrder(ctx context.Context, id int64) (*Order, error)
	GetLines(ctx context.Context, orderID int64) ([]Line, error)
	// ListByCustomer returns the customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	// List returns a page of orders, newest first.
	List(ctx context.Context, filter ListFilter) ([]Summary, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// Tx is the write side of Store, available only inside InTx.
type Tx interface {
	InsertOrder(ctx context.Context, customerID int64, createdAt time.Time, status Status) (int64, error)
	InsertLines(ctx context.Context, orderID int64, lines []Line) error
}
