package exchangev1

// Level is one price level of a book side.
type Level struct {
	Price  uint64  `json:"price"`
	Volume uint64  `json:"volume"`
	Orders []Order `json:"orders"`
}

// Depth is a snapshot of the resting orders, best prices first.
type Depth struct {
	Pair string  `json:"pair"`
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}
