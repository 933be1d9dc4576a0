package snapshotv1

import (
	"time"

	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
)

// Snapshot is the full state of the core at a point in time: every account
// with its log, every resting order and the next order id to hand out.
// Sequence counts the state changes folded into it.
type Snapshot struct {
	Pair        string               `json:"pair"`
	Sequence    uint64               `json:"sequence"`
	NextOrderID uint64               `json:"nextOrderID"`
	Accounts    []exchangev1.Account `json:"accounts"`
	Orders      []BookOrder          `json:"orders"`
	TakenAt     time.Time            `json:"takenAt"`
}

// BookOrder is a resting order as stored in a snapshot.
type BookOrder struct {
	OrderID   uint64               `json:"orderID"`
	Account   exchangev1.AccountID `json:"account"`
	Amount    uint64               `json:"amount"`
	Version   uint64               `json:"version"`
	Side      exchangev1.Side      `json:"side"`
	Price     uint64               `json:"price"`
	Timestamp int64                `json:"timestamp"`
}

// NewBookOrder converts a resting order into its snapshot form.
func NewBookOrder(order exchangev1.Order) BookOrder {
	return BookOrder{
		OrderID:   order.ID,
		Account:   order.Account,
		Amount:    order.Amount,
		Version:   order.Version,
		Side:      order.Side,
		Price:     order.Price,
		Timestamp: order.Timestamp,
	}
}

// Order converts the snapshot form back into an order.
func (b BookOrder) Order() exchangev1.Order {
	return exchangev1.Order{
		ID:        b.OrderID,
		Account:   b.Account,
		Amount:    b.Amount,
		Version:   b.Version,
		Side:      b.Side,
		Price:     b.Price,
		Timestamp: b.Timestamp,
	}
}
