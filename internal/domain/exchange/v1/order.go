package exchangev1

import (
	"fmt"
	"math/bits"

	"github.com/muhammadchandra19/matcha/pkg/errors"
)

// Side is the direction of an order.
type Side uint8

const (
	// Bid is a buy order.
	Bid Side = iota
	// Ask is a sell order.
	Ask
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "Bid"
	case Ask:
		return "Ask"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// Opposite returns the side an order of side s matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	if s != Bid && s != Ask {
		return nil, fmt.Errorf("invalid side %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Bid", "bid", "buy":
		*s = Bid
	case "Ask", "ask", "sell":
		*s = Ask
	default:
		return errors.New(errors.InvalidOrderError, fmt.Sprintf("unknown side %q", string(text)), "side")
	}
	return nil
}

// Order is an admitted quantity-at-price instruction. Amount is the quantity
// still open; it shrinks as the order is filled.
type Order struct {
	ID        uint64    `json:"id"`
	Account   AccountID `json:"account"`
	Amount    uint64    `json:"amount"`
	Version   uint64    `json:"version"`
	Side      Side      `json:"side"`
	Price     uint64    `json:"price"`
	Timestamp int64     `json:"timestamp"`
}

// Total returns price × amount.
func (o Order) Total() (Balance, error) {
	return Notional(o.Amount, o.Price)
}

// IsBid checks if the order is a bid (buy) order.
func (o Order) IsBid() bool {
	return o.Side == Bid
}

// IsFilled checks if nothing is left to match.
func (o Order) IsFilled() bool {
	return o.Amount == 0
}

// Crosses reports whether o can trade against a resting order priced at price.
func (o Order) Crosses(price uint64) bool {
	if o.IsBid() {
		return price <= o.Price
	}
	return price >= o.Price
}

// Notional returns amount × price, rejecting products that do not fit a Balance.
func Notional(amount, price uint64) (Balance, error) {
	hi, lo := bits.Mul64(amount, price)
	if hi != 0 {
		return 0, errors.NewWithObject(errors.InvalidOrderError,
			fmt.Sprintf("total of %d at %d overflows", amount, price), "amount", amount)
	}
	return Balance(lo), nil
}

// ValidateOrder checks the fields every order must satisfy before it touches a book.
func ValidateOrder(amount, price uint64) error {
	if amount == 0 {
		return errors.New(errors.InvalidOrderError, "amount must be positive", "amount")
	}
	if price == 0 {
		return errors.New(errors.InvalidOrderError, "price must be positive", "price")
	}
	_, err := Notional(amount, price)
	return err
}
