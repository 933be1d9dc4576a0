package orderbook

import (
	"fmt"
	"sort"

	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	orderbookv1 "github.com/muhammadchandra19/matcha/internal/domain/orderbook/v1"
	snapshotv1 "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/matcha/pkg/errors"
)

// Orderbook holds the resting orders of one pair. It has a single owner and
// is not safe for concurrent use.
type Orderbook struct {
	Pair      string
	AskLimits map[uint64]*orderbookv1.Limit // price -> limit
	BidLimits map[uint64]*orderbookv1.Limit // price -> limit
	Orders    map[uint64]*exchangev1.Order  // orderID -> order
}

// NewOrderbook creates a new orderbook
func NewOrderbook(pair string) *Orderbook {
	return &Orderbook{
		Pair:      pair,
		AskLimits: make(map[uint64]*orderbookv1.Limit),
		BidLimits: make(map[uint64]*orderbookv1.Limit),
		Orders:    make(map[uint64]*exchangev1.Order),
	}
}

// Submit matches order against the opposite side and rests what is left.
//
// Every match executes at the resting order's price and yields, in order, a
// Fill, the payment from the bid side to the ask side and the release of the
// maker's blocked collateral for the filled quantity. A residual rests under
// the order's own id and yields a Block of remaining × price.
//
// Only the payment moves funds between the two parties. The release is paid
// by House, which has held the maker's collateral since the maker's Block, so
// the second Transaction of a match is House → maker and not taker → maker.
func (ob *Orderbook) Submit(order exchangev1.Order) ([]exchangev1.Action, error) {
	if err := exchangev1.ValidateOrder(order.Amount, order.Price); err != nil {
		return nil, err
	}
	if order.Side != exchangev1.Bid && order.Side != exchangev1.Ask {
		return nil, errors.New(errors.InvalidOrderError, fmt.Sprintf("unknown side %d", uint8(order.Side)), "side")
	}
	if _, exists := ob.Orders[order.ID]; exists {
		return nil, errors.NewWithObject(errors.InvalidOrderError,
			fmt.Sprintf("order with ID %d already exists", order.ID), "order_id", order.ID)
	}

	incoming := order
	var actions []exchangev1.Action

	for _, match := range ob.match(&incoming) {
		actions = append(actions,
			match.Fill(),
			exchangev1.Transaction{From: match.Payer(), To: match.Payee(), Balance: match.Notional()},
			exchangev1.Transaction{From: exchangev1.House, To: match.Maker.Account, Balance: match.Notional()},
		)
		if match.MakerIsFilled() {
			delete(ob.Orders, match.Maker.ID)
		}
	}

	if !incoming.IsFilled() {
		if err := ob.rest(&incoming); err != nil {
			return nil, err
		}
		// bounded by the validated total of the original amount
		actions = append(actions, exchangev1.Block{
			From:    incoming.Account,
			Balance: exchangev1.Balance(incoming.Amount * incoming.Price),
		})
	}

	return actions, nil
}

// match fills incoming against crossing limits, best price first.
func (ob *Orderbook) match(incoming *exchangev1.Order) []orderbookv1.Match {
	var (
		matches []orderbookv1.Match
		limits  orderbookv1.Limits
		book    map[uint64]*orderbookv1.Limit
	)

	if incoming.IsBid() {
		book = ob.AskLimits
		limits = ob.Asks()
	} else {
		book = ob.BidLimits
		limits = ob.Bids()
	}

	for _, limit := range limits {
		if incoming.IsFilled() || !incoming.Crosses(limit.Price) {
			break
		}

		matches = append(matches, limit.Fill(incoming)...)

		if limit.IsEmpty() {
			delete(book, limit.Price)
		}
	}

	return matches
}

// rest adds order to its own side of the book.
func (ob *Orderbook) rest(order *exchangev1.Order) error {
	limits := ob.side(order.Side)

	limit, exists := limits[order.Price]
	if !exists {
		limit = orderbookv1.NewLimit(order.Price)
		limits[order.Price] = limit
	}

	if err := limit.AddOrder(order); err != nil {
		if limit.IsEmpty() {
			delete(limits, order.Price)
		}
		return err
	}

	ob.Orders[order.ID] = order
	return nil
}

func (ob *Orderbook) side(side exchangev1.Side) map[uint64]*orderbookv1.Limit {
	if side == exchangev1.Bid {
		return ob.BidLimits
	}
	return ob.AskLimits
}

// Cancel removes the resting order id when it belongs to account and
// returns it as it stood.
func (ob *Orderbook) Cancel(id uint64, account exchangev1.AccountID) (exchangev1.Order, error) {
	order, exists := ob.Orders[id]
	if !exists || order.Account != account {
		return exchangev1.Order{}, exchangev1.ErrOrderNotFound(id)
	}

	limits := ob.side(order.Side)
	limit, exists := limits[order.Price]
	if !exists {
		return exchangev1.Order{}, errors.NewTracer("orderbook_inconsistent").Wrap(
			fmt.Errorf("order %d has no limit at %d", id, order.Price))
	}

	if _, err := limit.RemoveOrder(id); err != nil {
		return exchangev1.Order{}, errors.NewTracer("orderbook_inconsistent").Wrap(err)
	}
	if limit.IsEmpty() {
		delete(limits, limit.Price)
	}
	delete(ob.Orders, id)

	return *order, nil
}

// Lookup returns a copy of the resting order id.
func (ob *Orderbook) Lookup(id uint64) (exchangev1.Order, bool) {
	order, exists := ob.Orders[id]
	if !exists {
		return exchangev1.Order{}, false
	}
	return *order, true
}

// Asks returns ask limits sorted by price (ascending)
func (ob *Orderbook) Asks() orderbookv1.Limits {
	limits := make(orderbookv1.Limits, 0, len(ob.AskLimits))
	for _, limit := range ob.AskLimits {
		limits = append(limits, limit)
	}
	sort.Sort(orderbookv1.ByBestAsk{Limits: limits})
	return limits
}

// Bids returns bid limits sorted by price (descending)
func (ob *Orderbook) Bids() orderbookv1.Limits {
	limits := make(orderbookv1.Limits, 0, len(ob.BidLimits))
	for _, limit := range ob.BidLimits {
		limits = append(limits, limit)
	}
	sort.Sort(orderbookv1.ByBestBid{Limits: limits})
	return limits
}

// Depth returns a copy of both sides, best prices first.
func (ob *Orderbook) Depth() exchangev1.Depth {
	return exchangev1.Depth{
		Pair: ob.Pair,
		Bids: ob.Bids().Levels(),
		Asks: ob.Asks().Levels(),
	}
}

// AskTotalVolume returns total ask volume
func (ob *Orderbook) AskTotalVolume() uint64 {
	return ob.Asks().Volume()
}

// BidTotalVolume returns total bid volume
func (ob *Orderbook) BidTotalVolume() uint64 {
	return ob.Bids().Volume()
}

// CreateSnapshot returns the resting orders, each side best price first and
// each limit in queue order.
func (ob *Orderbook) CreateSnapshot() []snapshotv1.BookOrder {
	bookOrders := make([]snapshotv1.BookOrder, 0, len(ob.Orders))

	for _, limits := range []orderbookv1.Limits{ob.Bids(), ob.Asks()} {
		for _, limit := range limits {
			for _, order := range limit.Orders {
				bookOrders = append(bookOrders, snapshotv1.NewBookOrder(*order))
			}
		}
	}

	return bookOrders
}

// RestoreOrderbook replaces the book's content with orders. Orders of one
// limit are queued in the order given.
func (ob *Orderbook) RestoreOrderbook(orders []snapshotv1.BookOrder) error {
	restored := NewOrderbook(ob.Pair)

	for _, bookOrder := range orders {
		order := bookOrder.Order()
		if err := exchangev1.ValidateOrder(order.Amount, order.Price); err != nil {
			return fmt.Errorf("failed to restore order %d: %w", order.ID, err)
		}
		if _, exists := restored.Orders[order.ID]; exists {
			return fmt.Errorf("failed to restore order %d: duplicate id", order.ID)
		}
		if err := restored.rest(&order); err != nil {
			return fmt.Errorf("failed to restore order %d: %w", order.ID, err)
		}
	}

	ob.AskLimits = restored.AskLimits
	ob.BidLimits = restored.BidLimits
	ob.Orders = restored.Orders

	return nil
}
