package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/scoop/internal/domain/flavor"
)

func TestPrice(t *testing.T) {
	q, err := Price(
		[]Line{{FlavorID: 1, Quantity: 2}, {FlavorID: 2, Quantity: 1}},
		[]flavor.Flavor{testFlavor(1, "Vanilla", "5.50"), testFlavor(2, "Chocolate", "3.25")},
	)
	require.NoError(t, err)
	require.Len(t, q.Lines, 2)

	assert.Equal(t, "Vanilla", q.Lines[0].FlavorName)
	assert.Equal(t, "11.00", q.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, "3.25", q.Lines[1].Subtotal.StringFixed(2))
	assert.Equal(t, "14.25", q.TotalString())
}

func TestPrice_TotalIsSumOfSubtotals(t *testing.T) {
	flavors := []flavor.Flavor{
		testFlavor(1, "A", "0.10"),
		testFlavor(2, "B", "0.20"),
		testFlavor(3, "C", "19.99"),
	}
	lines := []Line{
		{FlavorID: 1, Quantity: 3},
		{FlavorID: 2, Quantity: 7},
		{FlavorID: 3, Quantity: 11},
		{FlavorID: 1, Quantity: 1},
	}
	q, err := Price(lines, flavors)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, l := range q.Lines {
		sum = sum.Add(l.Subtotal)
	}
	assert.True(t, sum.Equal(q.Total), "sum %s != total %s", sum, q.Total)
	assert.Equal(t, "221.69", q.TotalString())
}

func TestPrice_Empty(t *testing.T) {
	q, err := Price(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, q.Lines)
	assert.Equal(t, "0.00", q.TotalString())
}

func TestPrice_MissingFlavor(t *testing.T) {
	_, err := Price([]Line{{FlavorID: 5, Quantity: 1}}, nil)
	require.Error(t, err)
}
