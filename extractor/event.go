package extractor

import (
	"encoding/json"

	"lobevents/orderbook"
)

type Kind string

const (
	BuyLimitAdded     Kind = "buy_limit_added"
	BuyLimitCanceled  Kind = "buy_limit_canceled"
	SellLimitAdded    Kind = "sell_limit_added"
	SellLimitCanceled Kind = "sell_limit_canceled"
	MarketBuy         Kind = "market_buy"
	MarketSell        Kind = "market_sell"
)

// Event is one classified level change. Volume is the size of the change, or
// the consumed volume for market_buy and market_sell.
type Event struct {
	Kind                   Kind    `json:"kind"`
	Price                  float64 `json:"price"`
	Volume                 float64 `json:"volume"`
	Depth                  int     `json:"depth"`
	Index                  int     `json:"index"`
	PreviousVolume         float64 `json:"previous_volume"`
	VolumeChangeNormalized float64 `json:"volume_change_normalized"`
	MidPrice               Mid     `json:"mid_price"`
}

// Mid is a mid-price. It is undefined while either side of the book is empty.
type Mid struct {
	Value float64
	Valid bool
}

func (m Mid) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

func (m *Mid) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Mid{}
		return nil
	}
	if err := json.Unmarshal(b, &m.Value); err != nil {
		return err
	}
	m.Valid = true
	return nil
}

func addedKind(side orderbook.Side) Kind {
	if side == orderbook.Bid {
		return BuyLimitAdded
	}
	return SellLimitAdded
}

func canceledKind(side orderbook.Side) Kind {
	if side == orderbook.Bid {
		return BuyLimitCanceled
	}
	return SellLimitCanceled
}

// marketKind names the aggressor: an emptied ask level was lifted by a buyer.
func marketKind(side orderbook.Side) Kind {
	if side == orderbook.Ask {
		return MarketBuy
	}
	return MarketSell
}
