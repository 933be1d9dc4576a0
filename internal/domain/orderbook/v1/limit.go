package orderbookv1

import (
	"errors"
	"fmt"

	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
)

var (
	ErrNilOrder      = errors.New("order cannot be nil")
	ErrInvalidSize   = errors.New("size must be positive")
	ErrPriceMismatch = errors.New("order price does not match limit")
	ErrOrderNotFound = errors.New("order not found in limit")
)

// Limit is a price level of one book side. Orders are kept in arrival order.
// A Limit belongs to a single orderbook and is not safe for concurrent use.
type Limit struct {
	Price       uint64              `json:"price"`
	Orders      []*exchangev1.Order `json:"orders"`
	TotalVolume uint64              `json:"totalVolume"`
}

// NewLimit creates a new Limit with the specified price.
func NewLimit(price uint64) *Limit {
	return &Limit{
		Price:  price,
		Orders: make([]*exchangev1.Order, 0),
	}
}

// AddOrder appends an order to the back of the queue and updates the total volume.
func (l *Limit) AddOrder(order *exchangev1.Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if order.Amount == 0 {
		return fmt.Errorf("%w: order %d", ErrInvalidSize, order.ID)
	}
	if order.Price != l.Price {
		return fmt.Errorf("%w: order %d at %d, limit at %d", ErrPriceMismatch, order.ID, order.Price, l.Price)
	}

	l.Orders = append(l.Orders, order)
	l.TotalVolume += order.Amount

	return nil
}

// RemoveOrder removes the order with the given id and updates the total volume.
func (l *Limit) RemoveOrder(id uint64) (*exchangev1.Order, error) {
	for i, o := range l.Orders {
		if o.ID == id {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			l.TotalVolume -= o.Amount
			return o, nil
		}
	}

	return nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, id)
}

// Fill matches the incoming order against the queue, oldest first, at the
// limit's price. Both the incoming order and the resting orders are reduced;
// resting orders that reach zero are removed.
func (l *Limit) Fill(incoming *exchangev1.Order) []Match {
	if incoming == nil {
		return nil
	}

	var matches []Match
	filled := 0

	for _, resting := range l.Orders {
		if incoming.IsFilled() {
			break
		}

		match := Match{
			Maker:    *resting,
			Taker:    *incoming,
			Quantity: min(incoming.Amount, resting.Amount),
			Price:    l.Price,
		}
		matches = append(matches, match)

		incoming.Amount -= match.Quantity
		resting.Amount -= match.Quantity
		l.TotalVolume -= match.Quantity

		if resting.IsFilled() {
			filled++
		}
	}

	// filled makers are always a prefix of the queue; clear their slots so
	// the backing array does not keep them alive
	for i := 0; i < filled; i++ {
		l.Orders[i] = nil
	}
	l.Orders = l.Orders[filled:]

	return matches
}

// IsEmpty checks if the limit has no orders
func (l *Limit) IsEmpty() bool {
	return len(l.Orders) == 0
}

// OrderCount returns the number of orders at this limit
func (l *Limit) OrderCount() int {
	return len(l.Orders)
}

// Snapshot returns copies of the resting orders in priority order.
func (l *Limit) Snapshot() exchangev1.Level {
	orders := make([]exchangev1.Order, 0, len(l.Orders))
	for _, o := range l.Orders {
		orders = append(orders, *o)
	}
	return exchangev1.Level{
		Price:  l.Price,
		Volume: l.TotalVolume,
		Orders: orders,
	}
}

// Validate performs basic validation of the limit's state
func (l *Limit) Validate() error {
	var volume uint64
	for _, order := range l.Orders {
		if order == nil {
			return ErrNilOrder
		}
		if order.Amount == 0 {
			return fmt.Errorf("%w: order %d rests with nothing open", ErrInvalidSize, order.ID)
		}
		if order.Price != l.Price {
			return fmt.Errorf("%w: order %d", ErrPriceMismatch, order.ID)
		}
		volume += order.Amount
	}

	if volume != l.TotalVolume {
		return fmt.Errorf("volume mismatch: calculated %d, stored %d", volume, l.TotalVolume)
	}

	return nil
}
