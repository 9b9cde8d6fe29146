package orderbook

import "github.com/shopspring/decimal"

// PriceKey normalizes an incoming price before it is used as a level key.
type PriceKey func(price float64) float64

// ExactKey keeps prices bit-for-bit. A delta that references a price which is
// not exactly equal to a stored one is treated as a new level.
func ExactKey(price float64) float64 {
	return price
}

// QuantizedKey rounds prices to the given number of decimal places, so that
// 100.1 and 100.10000000000001 address the same level.
func QuantizedKey(places int32) PriceKey {
	return func(price float64) float64 {
		return decimal.NewFromFloat(price).Round(places).InexactFloat64()
	}
}
