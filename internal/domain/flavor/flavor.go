package flavor

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested flavor does not exist.
	ErrNotFound = errors.New("flavor not found")
	// ErrDuplicateName is returned when another flavor already uses the name.
	ErrDuplicateName = errors.New("flavor with this name already exists")
	// ErrInUse is returned when deleting a flavor that existing orders reference.
	ErrInUse = errors.New("flavor is referenced by existing orders")
)

// InvalidError describes a flavor that fails field validation.
type InvalidError struct {
	Field  string
	Reason string
}

func (e *InvalidError) Error() string {
	return e.Field + ": " + e.Reason
}

// Flavor is a sellable ice-cream product.
type Flavor struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	// Image is an optional relative image path; empty when unset.
	Image string
}

// New builds a Flavor from user input, rejecting blank text fields and
// non-positive prices. Prices are kept at two-place precision.
func New(name, description string, price decimal.Decimal, image string) (Flavor, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	switch {
	case name == "":
		return Flavor{}, &InvalidError{Field: "name", Reason: "required"}
	case description == "":
		return Flavor{}, &InvalidError{Field: "description", Reason: "required"}
	case !price.IsPositive():
		return Flavor{}, &InvalidError{Field: "price", Reason: "must be a positive number"}
	}
	return Flavor{
		Name:        name,
		Description: description,
		Price:       price.Round(2),
		Image:       strings.TrimSpace(image),
	}, nil
}

// Repository defines persistence operations for the flavor catalog.
type Repository interface {
	List(ctx context.Context) ([]Flavor, error)
	GetByID(ctx context.Context, id int64) (*Flavor, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Flavor, error)
	Create(ctx context.Context, f *Flavor) error
	Update(ctx context.Context, f *Flavor) error
	// Delete removes a flavor. It returns ErrInUse when order lines
	// still reference it.
	Delete(ctx context.Context, id int64) error
}
