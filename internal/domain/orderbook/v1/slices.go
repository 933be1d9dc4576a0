package orderbookv1

import exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"

// Limits represents a slice of Limit pointers, representing multiple price levels.
type Limits []*Limit

// ByBestAsk sorts Limits by the best ask price (lowest price).
type ByBestAsk struct {
	Limits
}

func (a ByBestAsk) Len() int {
	return len(a.Limits)
}

func (a ByBestAsk) Less(i, j int) bool {
	return a.Limits[i].Price < a.Limits[j].Price
}

func (a ByBestAsk) Swap(i, j int) {
	a.Limits[i], a.Limits[j] = a.Limits[j], a.Limits[i]
}

// ByBestBid sorts Limits by the best bid price (highest price).
type ByBestBid struct {
	Limits
}

func (a ByBestBid) Len() int {
	return len(a.Limits)
}
func (a ByBestBid) Less(i, j int) bool {
	return a.Limits[i].Price > a.Limits[j].Price
}
func (a ByBestBid) Swap(i, j int) {
	a.Limits[i], a.Limits[j] = a.Limits[j], a.Limits[i]
}

// Levels returns a copy of each limit in the current order of ls.
func (ls Limits) Levels() []exchangev1.Level {
	levels := make([]exchangev1.Level, 0, len(ls))
	for _, limit := range ls {
		levels = append(levels, limit.Snapshot())
	}
	return levels
}

// Volume returns the open quantity summed over all limits.
func (ls Limits) Volume() uint64 {
	var total uint64
	for _, limit := range ls {
		total += limit.TotalVolume
	}
	return total
}
