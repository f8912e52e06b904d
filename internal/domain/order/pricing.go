package order

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/scoop/internal/domain/flavor"
)

// PricedLine is an order line with the flavor's current price applied.
type PricedLine struct {
	FlavorID          int64
	FlavorName        string
	FlavorDescription string
	FlavorImage       string
	UnitPrice         decimal.Decimal
	Quantity          int
	Subtotal          decimal.Decimal
}

// Quote is the priced view of an order's lines.
type Quote struct {
	Lines []PricedLine
	Total decimal.Decimal
}

// TotalString formats the total with exactly two decimal digits.
func (q Quote) TotalString() string {
	return q.Total.StringFixed(2)
}

// Price computes per-line subtotals and the order total from the flavors'
// current prices. Prices are read live, so the quote of a historical order
// follows later catalog price changes.
func Price(lines []Line, flavors []flavor.Flavor) (Quote, error) {
	byID := make(map[int64]flavor.Flavor, len(flavors))
	for _, f := range flavors {
		byID[f.ID] = f
	}

	q := Quote{
		Lines: make([]PricedLine, 0, len(lines)),
		Total: decimal.Zero,
	}
	for _, l := range lines {
		f, ok := byID[l.FlavorID]
		if !ok {
			return Quote{}, errors.Errorf("flavor %d referenced by order line is missing", l.FlavorID)
		}
		subtotal := f.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		q.Lines = append(q.Lines, PricedLine{
			FlavorID:          f.ID,
			FlavorName:        f.Name,
			FlavorDescription: f.Description,
			FlavorImage:       f.Image,
			UnitPrice:         f.Price,
			Quantity:          l.Quantity,
			Subtotal:          subtotal.Round(2),
		})
		q.Total = q.Total.Add(subtotal)
	}
	q.Total = q.Total.Round(2)
	return q, nil
}
