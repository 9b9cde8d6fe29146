package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"lobevents/orderbook"
)

type Kind string

const (
	Snapshot Kind = "snapshot"
	Delta    Kind = "delta"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnsupportedKind  = fmt.Errorf("%w: unsupported message type", ErrMalformedMessage)
)

// Message is one decoded line of the feed.
type Message struct {
	Index int
	Kind  Kind
	Bids  []orderbook.Level
	Asks  []orderbook.Level
}

// LineError reports which line of the input could not be decoded.
type LineError struct {
	Index int
	Err   error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Index, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

type wireMessage struct {
	Type *string     `json:"type"`
	Bids []wireLevel `json:"bids"`
	Asks []wireLevel `json:"asks"`
	Data *wireData   `json:"data"`
}

type wireData struct {
	B []wireLevel `json:"b"`
	A []wireLevel `json:"a"`
}

// wireLevel is a [price, volume] pair; entries may be JSON numbers or numeric
// strings. A null entry decodes to nil.
type wireLevel []*decimal.Decimal

// Decode parses a single line. Levels of the nested "data" form are appended
// after the top-level ones.
func Decode(line []byte) (Message, error) {
	var m wireMessage
	if err := json.Unmarshal(line, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.Type == nil {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	kind := Kind(*m.Type)
	if kind != Snapshot && kind != Delta {
		return Message{}, fmt.Errorf("%w %q", ErrUnsupportedKind, *m.Type)
	}

	bids, asks := m.Bids, m.Asks
	if m.Data != nil {
		bids = append(bids, m.Data.B...)
		asks = append(asks, m.Data.A...)
	}
	b, err := toLevels(bids)
	if err != nil {
		return Message{}, fmt.Errorf("bids: %w", err)
	}
	a, err := toLevels(asks)
	if err != nil {
		return Message{}, fmt.Errorf("asks: %w", err)
	}
	return Message{Kind: kind, Bids: b, Asks: a}, nil
}

func toLevels(quotes []wireLevel) ([]orderbook.Level, error) {
	for i, q := range quotes {
		if len(q) != 2 {
			return nil, fmt.Errorf("%w: level %d has %d fields, want 2", ErrMalformedMessage, i, len(q))
		}
		if q[0] == nil || q[1] == nil {
			return nil, fmt.Errorf("%w: level %d has a null field", ErrMalformedMessage, i)
		}
		if q[1].IsNegative() {
			return nil, fmt.Errorf("%w: level %d has negative volume %s", ErrMalformedMessage, i, q[1])
		}
		if !finite(q[0].InexactFloat64()) || !finite(q[1].InexactFloat64()) {
			return nil, fmt.Errorf("%w: level %d is out of float64 range", ErrMalformedMessage, i)
		}
	}
	return lo.Map(quotes, func(q wireLevel, _ int) orderbook.Level {
		return orderbook.Level{Price: q[0].InexactFloat64(), Volume: q[1].InexactFloat64()}
	}), nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
