package extractor

import "lobevents/orderbook"

// MidOf returns (best bid + best ask) / 2 of the current book.
func MidOf(book orderbook.Repo) Mid {
	bid, ok := book.BestPrice(orderbook.Bid)
	if !ok {
		return Mid{}
	}
	ask, ok := book.BestPrice(orderbook.Ask)
	if !ok {
		return Mid{}
	}
	return Mid{Value: (bid + ask) / 2, Valid: true}
}

// MidTracker gates records on mid-price changes. Records whose mid is
// undefined or equal to the last surfaced one are dropped together with
// their events.
type MidTracker struct {
	last Mid
}

// Observe reports whether a message with mid m should be surfaced and, if so,
// remembers m as the last surfaced mid.
func (t *MidTracker) Observe(m Mid) bool {
	if !m.Valid {
		return false
	}
	if t.last.Valid && t.last.Value == m.Value {
		return false
	}
	t.last = m
	return true
}

func (t *MidTracker) Last() Mid {
	return t.last
}
