package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() (*Validator, *fakeCustomers, *fakeFlavors) {
	customers := newFakeCustomers(7)
	flavors := newFakeFlavors(
		testFlavor(1, "Vanilla", "5.50"),
		testFlavor(2, "Chocolate", "3.25"),
	)
	return NewValidator(customers, flavors), customers, flavors
}

func TestValidator_Valid(t *testing.T) {
	v, _, flavors := newTestValidator()
	err := v.Validate(context.Background(), 7, []Line{
		{FlavorID: 1, Quantity: 2},
		{FlavorID: 2, Quantity: 1},
		{FlavorID: 1, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, flavors.calls, "flavors must be resolved in one batch")
}

func TestValidator_CustomerCheckedFirst(t *testing.T) {
	v, _, flavors := newTestValidator()
	err := v.Validate(context.Background(), 99, nil)
	require.ErrorIs(t, err, ErrCustomerNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Zero(t, flavors.calls)
}

func TestValidator_EmptyOrder(t *testing.T) {
	v, _, _ := newTestValidator()
	err := v.Validate(context.Background(), 7, []Line{})
	require.ErrorIs(t, err, ErrEmptyOrder)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestValidator_InvalidLine(t *testing.T) {
	v, _, flavors := newTestValidator()
	err := v.Validate(context.Background(), 7, []Line{
		{FlavorID: 1, Quantity: 1},
		{FlavorID: 2, Quantity: 0},
		{FlavorID: 1, Quantity: -3},
	})
	var lineErr *InvalidLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Index)
	assert.Equal(t, int64(2), lineErr.FlavorID)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, 1, flavors.calls)
}

func TestValidator_QuantityAboveMax(t *testing.T) {
	v, _, _ := newTestValidator()

	require.NoError(t, v.Validate(context.Background(), 7, []Line{{FlavorID: 1, Quantity: MaxQuantity}}))

	err := v.Validate(context.Background(), 7, []Line{
		{FlavorID: 1, Quantity: 1},
		{FlavorID: 2, Quantity: MaxQuantity + 1},
	})
	var lineErr *InvalidLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.Index)
	assert.Equal(t, MaxQuantity+1, lineErr.Quantity)
	assert.Contains(t, err.Error(), "must not exceed")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestValidator_FirstOffendingLineWins(t *testing.T) {
	v, _, _ := newTestValidator()

	err := v.Validate(context.Background(), 7, []Line{
		{FlavorID: 99, Quantity: 1},
		{FlavorID: 1, Quantity: 0},
	})
	var unknown *UnknownFlavorError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, int64(99), unknown.FlavorID)

	err = v.Validate(context.Background(), 7, []Line{
		{FlavorID: 1, Quantity: 0},
		{FlavorID: 99, Quantity: 1},
	})
	var lineErr *InvalidLineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 0, lineErr.Index)
}

func TestValidator_UnknownFlavorReportsFirstInInputOrder(t *testing.T) {
	v, _, _ := newTestValidator()
	err := v.Validate(context.Background(), 7, []Line{
		{FlavorID: 1, Quantity: 1},
		{FlavorID: 42, Quantity: 1},
		{FlavorID: 41, Quantity: 1},
	})
	var unknown *UnknownFlavorError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, int64(42), unknown.FlavorID)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestValidator_StorageFailures(t *testing.T) {
	t.Run("Customers", func(t *testing.T) {
		v, customers, _ := newTestValidator()
		customers.err = errors.New("connection refused")
		err := v.Validate(context.Background(), 7, []Line{{FlavorID: 1, Quantity: 1}})
		var pe *PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, KindPersistence, KindOf(err))
	})
	t.Run("Flavors", func(t *testing.T) {
		v, _, flavors := newTestValidator()
		flavors.err = errors.New("connection refused")
		err := v.Validate(context.Background(), 7, []Line{{FlavorID: 1, Quantity: 1}})
		var pe *PersistenceError
		require.ErrorAs(t, err, &pe)
	})
}
