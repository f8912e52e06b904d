package order

import (
	"context"
	"math"

	"github.com/go-faster/errors"

	"github.com/xenking/scoop/internal/domain/customer"
	"github.com/xenking/scoop/internal/domain/flavor"
)

// CustomerFinder resolves customers by id.
type CustomerFinder interface {
	GetByID(ctx context.Context, id int64) (*customer.Customer, error)
}

// FlavorFinder resolves flavors in batches. Missing ids are simply absent
// from the result.
type FlavorFinder interface {
	GetByIDs(ctx context.Context, ids []int64) ([]flavor.Flavor, error)
}

// MaxQuantity is the largest quantity a single line may carry. It matches
// the INTEGER column lines are stored in.
const MaxQuantity = math.MaxInt32

// Validator checks a proposed order against reference data. It never writes.
type Validator struct {
	customers CustomerFinder
	flavors   FlavorFinder
}

// NewValidator creates a Validator.
func NewValidator(customers CustomerFinder, flavors FlavorFinder) *Validator {
	return &Validator{customers: customers, flavors: flavors}
}

// Validate checks that the customer exists, that there is at least one
// line, and then walks the lines in input order: each must carry a quantity
// in [1, MaxQuantity] and reference an existing flavor. The first offending
// line is reported. Flavors are resolved in one batch before the walk.
func (v *Validator) Validate(ctx context.Context, customerID int64, lines []Line) error {
	if err := v.checkCustomer(ctx, customerID); err != nil {
		return err
	}
	if len(lines) == 0 {
		return ErrEmptyOrder
	}

	known, err := v.lookupFlavors(ctx, lines)
	if err != nil {
		return err
	}
	for i, l := range lines {
		if l.Quantity <= 0 || l.Quantity > MaxQuantity {
			return &InvalidLineError{Index: i, FlavorID: l.FlavorID, Quantity: l.Quantity}
		}
		if _, ok := known[l.FlavorID]; !ok {
			return &UnknownFlavorError{FlavorID: l.FlavorID}
		}
	}
	return nil
}

func (v *Validator) checkCustomer(ctx context.Context, id int64) error {
	if _, err := v.customers.GetByID(ctx, id); err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return persistence("find customer", err)
	}
	return nil
}

// lookupFlavors fetches the distinct flavors referenced by lines in one call.
func (v *Validator) lookupFlavors(ctx context.Context, lines []Line) (map[int64]flavor.Flavor, error) {
	ids := distinctFlavorIDs(lines)
	fetched, err := v.flavors.GetByIDs(ctx, ids)
	if err != nil {
		return nil, persistence("find flavors", err)
	}
	byID := make(map[int64]flavor.Flavor, len(fetched))
	for _, f := range fetched {
		byID[f.ID] = f
	}
	return byID, nil
}

func distinctFlavorIDs(lines []Line) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.FlavorID]; ok {
			continue
		}
		seen[l.FlavorID] = struct{}{}
		ids = append(ids, l.FlavorID)
	}
	return ids
}
