package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/scoop/internal/domain/customer"
)

const (
	customerColumns = `id, name, email, phone, password_hash, created_at`

	getCustomerByIDSQL    = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	getCustomerByEmailSQL = `SELECT ` + customerColumns + ` FROM customers WHERE lower(email) = lower($1)`

	createCustomerSQL = `INSERT INTO customers (name, email, phone, password_hash)
	VALUES ($1, $2, $3, $4) RETURNING id, created_at`

	updateCustomerProfileSQL = `UPDATE customers SET name = $2, phone = $3 WHERE id = $1`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetByID returns a customer by id.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	return r.getOne(ctx, getCustomerByIDSQL, id)
}

// GetByEmail returns a customer by email, compared case-insensitively.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	return r.getOne(ctx, getCustomerByEmailSQL, email)
}

func (r *CustomerRepository) getOne(ctx context.Context, query string, arg any) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("getting customer %v: %w", arg, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %v: %w", arg, err)
	}
	return &c, nil
}

// Create inserts c and fills its ID and CreatedAt.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	err := r.pool.QueryRow(ctx, createCustomerSQL, c.Name, c.Email, c.Phone, c.PasswordHash).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return customer.ErrEmailTaken
		}
		return fmt.Errorf("creating customer: %w", err)
	}
	return nil
}

// UpdateProfile changes the customer's name and phone.
func (r *CustomerRepository) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	tag, err := r.pool.Exec(ctx, updateCustomerProfileSQL, id, name, phone)
	if err != nil {
		return fmt.Errorf("updating customer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PasswordHash, &c.CreatedAt)
	return c, err
}
