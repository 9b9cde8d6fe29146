package extractor

import "lobevents/orderbook"

// Classifier applies delta levels to a book and derives an event per level.
//
// Levels are classified one at a time against the partially updated book, so
// the order of levels within a message can move a later level across the
// depth horizon.
type Classifier struct {
	book     orderbook.Repo
	maxDepth int
}

func NewClassifier(book orderbook.Repo, maxDepth int) *Classifier {
	return &Classifier{book: book, maxDepth: maxDepth}
}

// ApplyDelta applies asks first, then bids, each in message order.
func (c *Classifier) ApplyDelta(index int, asks, bids []orderbook.Level) []Event {
	events := make([]Event, 0, len(asks)+len(bids))
	for _, l := range asks {
		if e, ok := c.Apply(index, orderbook.Ask, l.Price, l.Volume); ok {
			events = append(events, e)
		}
	}
	for _, l := range bids {
		if e, ok := c.Apply(index, orderbook.Bid, l.Price, l.Volume); ok {
			events = append(events, e)
		}
	}
	return events
}

// Apply sets one level and returns its event, if any is visible.
func (c *Classifier) Apply(index int, side orderbook.Side, price, volume float64) (Event, bool) {
	mid := MidOf(c.book)

	// A removed level has no rank afterwards, so take it now.
	removedDepth := -1
	if volume <= 0 {
		volume = 0
		if d, err := c.book.RankWithin(side, price, c.maxDepth); err == nil {
			removedDepth = d
		}
	}

	previous := c.book.ApplyLevel(side, price, volume)

	e := Event{Index: index, PreviousVolume: previous, MidPrice: mid}
	switch {
	case volume == previous:
		return Event{}, false
	case volume == 0:
		e.Kind, e.Volume, e.Depth = marketKind(side), previous, removedDepth
	case volume > previous:
		e.Kind, e.Volume = addedKind(side), volume-previous
	default:
		e.Kind, e.Volume = canceledKind(side), previous-volume
	}

	if volume > 0 {
		d, err := c.book.RankWithin(side, price, c.maxDepth)
		if err != nil {
			return Event{}, false
		}
		e.Depth = d
	}
	if e.Depth < 0 || e.Depth >= c.maxDepth {
		return Event{}, false
	}

	e.Price = c.book.Key(price)
	e.VolumeChangeNormalized = 1
	if previous > 0 {
		e.VolumeChangeNormalized = e.Volume / previous
	}
	return e, true
}
