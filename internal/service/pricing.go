package service

import "github.com/iliyamo/cinema-screenings/internal/model"

// PriceTable looks up the price of a seat type in minor currency units.
type PriceTable interface {
	Price(t model.SeatType) (int64, bool)
}

// FixedPrices is a PriceTable backed by a map.
type FixedPrices map[model.SeatType]int64

// DefaultPrices is the price list used when nothing else is configured.
var DefaultPrices = FixedPrices{
	model.SeatDiscounted: 2000,
	model.SeatStandard:   3000,
}

// Price implements PriceTable.
func (p FixedPrices) Price(t model.SeatType) (int64, bool) {
	v, ok := p[t]
	return v, ok
}
