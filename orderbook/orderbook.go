package orderbook

import (
	"errors"
	"fmt"

	rbt "github.com/emirpasic/gods/trees/redblacktree"
)

var ErrUndefinedRank = errors.New("price not present on side")

var _ Repo = (*OrderBook)(nil)

type Repo interface {
	Key(price float64) float64
	ApplySnapshot(s Snapshot)
	ApplyLevel(side Side, price, volume float64) float64
	RankOf(side Side, price float64) (int, error)
	RankWithin(side Side, price float64, limit int) (int, error)
	BestPrice(side Side) (float64, bool)
}

// OrderBook keeps both sides of a single book. It is not safe for concurrent use.
type OrderBook struct {
	bids *bookSide
	asks *bookSide
	key  PriceKey
}

type bookSide struct {
	tree    *rbt.Tree
	volumes map[float64]float64
}

type Option func(*OrderBook)

func WithPriceKey(key PriceKey) Option {
	return func(o *OrderBook) {
		if key != nil {
			o.key = key
		}
	}
}

func New(opts ...Option) *OrderBook {
	o := &OrderBook{
		bids: newBookSide(BidComparator),
		asks: newBookSide(AskComparator),
		key:  ExactKey,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func newBookSide(cmp func(a, b interface{}) int) *bookSide {
	return &bookSide{
		tree:    rbt.NewWith(cmp),
		volumes: make(map[float64]float64),
	}
}

// Key returns the price as it is stored in the book.
func (o *OrderBook) Key(price float64) float64 {
	return o.key(price)
}

// ApplySnapshot replaces both sides. Levels without volume are omitted and a
// repeated price keeps its last volume.
func (o *OrderBook) ApplySnapshot(s Snapshot) {
	o.bids = newBookSide(BidComparator)
	o.asks = newBookSide(AskComparator)
	for _, b := range s.Bids {
		o.bids.set(o.key(b.Price), b.Volume)
	}
	for _, a := range s.Asks {
		o.asks.set(o.key(a.Price), a.Volume)
	}
}

// ApplyLevel sets the volume at price and returns the volume that was there
// before, 0 if the level was absent. A volume of 0 removes the level.
func (o *OrderBook) ApplyLevel(side Side, price, volume float64) float64 {
	s := o.side(side)
	price = o.key(price)
	previous := s.volumes[price]
	s.set(price, volume)
	return previous
}

// RankOf returns the 0-based depth of price on side: highest bid and lowest
// ask are at depth 0.
func (o *OrderBook) RankOf(side Side, price float64) (int, error) {
	return o.RankWithin(side, price, -1)
}

// RankWithin is RankOf capped at limit: a level at depth >= limit reports
// limit, and the walk stops there. A negative limit means no cap.
func (o *OrderBook) RankWithin(side Side, price float64, limit int) (int, error) {
	s := o.side(side)
	price = o.key(price)
	if _, ok := s.volumes[price]; !ok {
		return 0, fmt.Errorf("%s %v: %w", side, price, ErrUndefinedRank)
	}
	rank := 0
	it := s.tree.Iterator()
	for it.Next() {
		if rank == limit || it.Key().(float64) == price {
			break
		}
		rank++
	}
	return rank, nil
}

func (o *OrderBook) BestPrice(side Side) (float64, bool) {
	node := o.side(side).tree.Left()
	if node == nil {
		return 0, false
	}
	return node.Key.(float64), true
}

// Volume returns the resting volume at price, 0 when the level is absent.
func (o *OrderBook) Volume(side Side, price float64) float64 {
	return o.side(side).volumes[o.key(price)]
}

func (o *OrderBook) Len(side Side) int {
	return len(o.side(side).volumes)
}

// Levels lists a side best price first.
func (o *OrderBook) Levels(side Side) []Level {
	s := o.side(side)
	levels := make([]Level, 0, len(s.volumes))
	it := s.tree.Iterator()
	for it.Next() {
		price := it.Key().(float64)
		levels = append(levels, Level{Price: price, Volume: s.volumes[price]})
	}
	return levels
}

func (o *OrderBook) side(side Side) *bookSide {
	switch side {
	case Bid:
		return o.bids
	case Ask:
		return o.asks
	default:
		panic(fmt.Sprintf("orderbook: unknown side %q", side))
	}
}

func (s *bookSide) set(price, volume float64) {
	if volume <= 0 {
		if _, ok := s.volumes[price]; ok {
			s.tree.Remove(price)
			delete(s.volumes, price)
		}
		return
	}
	if _, ok := s.volumes[price]; !ok {
		s.tree.Put(price, nil)
	}
	s.volumes[price] = volume
}

func AskComparator(a, b interface{}) int {
	aAsserted := a.(float64)
	bAsserted := b.(float64)
	switch {
	case aAsserted > bAsserted:
		return 1
	case aAsserted < bAsserted:
		return -1
	default:
		return 0
	}
}

func BidComparator(a, b interface{}) int {
	return -AskComparator(a, b)
}
