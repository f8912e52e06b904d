package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/scoop/internal/domain/flavor"
)

const (
	flavorColumns = `id, name, description, price, COALESCE(image, '')`

	listFlavorsSQL     = `SELECT ` + flavorColumns + ` FROM flavors ORDER BY id`
	getFlavorByIDSQL   = `SELECT ` + flavorColumns + ` FROM flavors WHERE id = $1`
	getFlavorsByIDsSQL = `SELECT ` + flavorColumns + ` FROM flavors WHERE id = ANY($1)`

	createFlavorSQL = `INSERT INTO flavors (name, description, price, image)
	VALUES ($1, $2, $3, NULLIF($4, '')) RETURNING id`

	updateFlavorSQL = `UPDATE flavors SET name = $2, description = $3, price = $4, image = NULLIF($5, '')
	WHERE id = $1`

	deleteFlavorSQL = `DELETE FROM flavors WHERE id = $1`

	upsertFlavorByNameSQL = `INSERT INTO flavors (name, description, price, image)
	VALUES ($1, $2, $3, NULLIF($4, ''))
	ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, price = EXCLUDED.price,
		image = EXCLUDED.image
	RETURNING id`
)

var _ flavor.Repository = (*FlavorRepository)(nil)

// FlavorRepository implements flavor.Repository backed by PostgreSQL.
type FlavorRepository struct {
	pool *pgxpool.Pool
}

// NewFlavorRepository returns a FlavorRepository that uses the given pool.
func NewFlavorRepository(pool *pgxpool.Pool) *FlavorRepository {
	return &FlavorRepository{pool: pool}
}

// List returns the whole catalog ordered by id.
func (r *FlavorRepository) List(ctx context.Context) ([]flavor.Flavor, error) {
	rows, err := r.pool.Query(ctx, listFlavorsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing flavors: %w", err)
	}
	return pgx.CollectRows(rows, scanFlavor)
}

// GetByID returns a single flavor.
func (r *FlavorRepository) GetByID(ctx context.Context, id int64) (*flavor.Flavor, error) {
	rows, err := r.pool.Query(ctx, getFlavorByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting flavor %d: %w", id, err)
	}
	f, err := pgx.CollectExactlyOneRow(rows, scanFlavor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, flavor.ErrNotFound
		}
		return nil, fmt.Errorf("getting flavor %d: %w", id, err)
	}
	return &f, nil
}

// GetByIDs returns the flavors matching any of ids in one round trip.
func (r *FlavorRepository) GetByIDs(ctx context.Context, ids []int64) ([]flavor.Flavor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, getFlavorsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting flavors by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanFlavor)
}

// Create inserts f and sets its ID.
func (r *FlavorRepository) Create(ctx context.Context, f *flavor.Flavor) error {
	err := r.pool.QueryRow(ctx, createFlavorSQL, f.Name, f.Description, f.Price, f.Image).Scan(&f.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return flavor.ErrDuplicateName
		}
		return fmt.Errorf("creating flavor: %w", err)
	}
	return nil
}

// Update replaces every field of the flavor identified by f.ID.
func (r *FlavorRepository) Update(ctx context.Context, f *flavor.Flavor) error {
	tag, err := r.pool.Exec(ctx, updateFlavorSQL, f.ID, f.Name, f.Description, f.Price, f.Image)
	if err != nil {
		if isUniqueViolation(err) {
			return flavor.ErrDuplicateName
		}
		return fmt.Errorf("updating flavor %d: %w", f.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return flavor.ErrNotFound
	}
	return nil
}

// Delete removes a flavor. Order lines keep the flavor alive through a
// restricting foreign key.
func (r *FlavorRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteFlavorSQL, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return flavor.ErrInUse
		}
		return fmt.Errorf("deleting flavor %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return flavor.ErrNotFound
	}
	return nil
}

// UpsertByName inserts f or updates the flavor with the same name, setting
// f.ID either way.
func (r *FlavorRepository) UpsertByName(ctx context.Context, f *flavor.Flavor) error {
	err := r.pool.QueryRow(ctx, upsertFlavorByNameSQL, f.Name, f.Description, f.Price, f.Image).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("upserting flavor %q: %w", f.Name, err)
	}
	return nil
}

func scanFlavor(row pgx.CollectableRow) (flavor.Flavor, error) {
	var f flavor.Flavor
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Price, &f.Image)
	return f, err
}
