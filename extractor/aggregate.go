package extractor

import (
	"strings"

	"github.com/samber/lo"

	"lobevents/feed"
)

type MidSample struct {
	Index    int     `json:"index"`
	MidPrice float64 `json:"mid_price"`
}

// Aggregate is a drained stream: all surfaced events in order and the
// mid-price of every surfaced record.
type Aggregate struct {
	Events    []Event     `json:"events"`
	MidPrices []MidSample `json:"mid_prices"`
}

// Collect drains s. Records read before an error are still returned.
func Collect(s *Stream) (Aggregate, error) {
	var records []Record
	for s.Next() {
		records = append(records, s.Record())
	}
	return Aggregate{
		Events: lo.FlatMap(records, func(r Record, _ int) []Event { return r.Events }),
		MidPrices: lo.Map(records, func(r Record, _ int) MidSample {
			return MidSample{Index: r.Index, MidPrice: r.MidPrice}
		}),
	}, s.Err()
}

// CollectLines runs a fresh extractor over in-memory lines.
func CollectLines(lines []string, opts ...Option) (Aggregate, error) {
	dec := feed.NewDecoder(strings.NewReader(strings.Join(lines, "\n")))
	return Collect(NewStream(dec, New(opts...)))
}
