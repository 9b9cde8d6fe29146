package extractor

import (
	"go.uber.org/zap"

	"lobevents/feed"
	"lobevents/orderbook"
)

const DefaultMaxDepth = 50

// Record is one surfaced message: its index, the events it produced and the
// mid-price after it was applied.
type Record struct {
	Index    int     `json:"index"`
	Events   []Event `json:"events"`
	MidPrice float64 `json:"mid_price"`
}

// Observer receives processing counts. metrics.Recorder implements it.
type Observer interface {
	ObserveMessage(kind string)
	ObserveEvent(kind string)
	ObserveRecord(surfaced bool, events int)
}

type nopObserver struct{}

func (nopObserver) ObserveMessage(string) {}
func (nopObserver) ObserveEvent(string) {}
func (nopObserver) ObserveRecord(bool, int) {}

// Extractor owns one order book and turns feed messages into records.
// It is not safe for concurrent use.
type Extractor struct {
	book       *orderbook.OrderBook
	classifier *Classifier
	tracker    MidTracker
	maxDepth   int
	priceKey   orderbook.PriceKey
	observer   Observer
	logger     *zap.Logger
}

type Option func(*Extractor)

// WithMaxDepth sets the visibility horizon: only events at depth < n are emitted.
func WithMaxDepth(n int) Option {
	return func(e *Extractor) { e.maxDepth = n }
}

func WithPriceKey(key orderbook.PriceKey) Option {
	return func(e *Extractor) { e.priceKey = key }
}

func WithObserver(o Observer) Option {
	return func(e *Extractor) {
		if o != nil {
			e.observer = o
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		maxDepth: DefaultMaxDepth,
		priceKey: orderbook.ExactKey,
		observer: nopObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.book = orderbook.New(orderbook.WithPriceKey(e.priceKey))
	e.classifier = NewClassifier(e.book, e.maxDepth)
	return e
}

func (e *Extractor) Book() *orderbook.OrderBook {
	return e.book
}

func (e *Extractor) MaxDepth() int {
	return e.maxDepth
}

// Process applies msg to the book and reports whether it surfaces a record.
// Events of a message that is not surfaced are discarded.
func (e *Extractor) Process(msg feed.Message) (Record, bool) {
	e.observer.ObserveMessage(string(msg.Kind))

	var events []Event
	switch msg.Kind {
	case feed.Snapshot:
		e.book.ApplySnapshot(orderbook.Snapshot{Bids: msg.Bids, Asks: msg.Asks})
	case feed.Delta:
		events = e.classifier.ApplyDelta(msg.Index, msg.Asks, msg.Bids)
	default:
		e.logger.Debug("ignoring message", zap.Int("index", msg.Index), zap.String("kind", string(msg.Kind)))
	}
	for _, ev := range events {
		e.observer.ObserveEvent(string(ev.Kind))
	}

	mid := MidOf(e.book)
	if !e.tracker.Observe(mid) {
		e.observer.ObserveRecord(false, len(events))
		if len(events) > 0 {
			e.logger.Debug("dropping events of ungated message",
				zap.Int("index", msg.Index),
				zap.Int("events", len(events)),
				zap.Bool("mid_defined", mid.Valid),
			)
		}
		return Record{}, false
	}
	e.observer.ObserveRecord(true, len(events))
	if events == nil {
		events = []Event{}
	}
	return Record{Index: msg.Index, Events: events, MidPrice: mid.Value}, true
}
