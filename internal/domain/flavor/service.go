package flavor

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Input carries the writable fields of a flavor.
type Input struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
}

// Service implements catalog management on top of a Repository.
type Service struct {
	repo Repository
}

// NewService creates a catalog Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the catalog ordered by name.
func (s *Service) List(ctx context.Context) ([]Flavor, error) {
	return s.repo.List(ctx)
}

// Get returns a single flavor.
func (s *Service) Get(ctx context.Context, id int64) (*Flavor, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates the input and stores a new flavor.
func (s *Service) Create(ctx context.Context, in Input) (*Flavor, error) {
	f, err := New(in.Name, in.Description, in.Price, in.Image)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &f); err != nil {
		return nil, errors.Wrap(err, "create flavor")
	}
	return &f, nil
}

// Update replaces every writable field of an existing flavor.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Flavor, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	f, err := New(in.Name, in.Description, in.Price, in.Image)
	if err != nil {
		return nil, err
	}
	f.ID = id
	if err := s.repo.Update(ctx, &f); err != nil {
		return nil, errors.Wrapf(err, "update flavor %d", id)
	}
	return &f, nil
}

// Delete removes a flavor that no order references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
