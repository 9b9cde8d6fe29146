package orderbook

type Side string

const (
	Bid Side = "bid"
	Ask Side = "ask"
)

// Level is one price level of a side. A zero volume means the level does not exist.
type Level struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

type Snapshot struct {
	Bids []Level
	Asks []Level
}
