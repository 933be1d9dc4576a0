package orderbookv1

import exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"

// Match is one execution between a resting (maker) and an incoming (taker)
// order. Maker and Taker are copies taken before the quantity was applied.
type Match struct {
	Maker    exchangev1.Order `json:"maker"`
	Taker    exchangev1.Order `json:"taker"`
	Quantity uint64           `json:"quantity"`
	Price    uint64           `json:"price"`
}

// Notional returns quantity × price of the match.
func (m Match) Notional() exchangev1.Balance {
	// bounded by the maker's total, which was validated on admission
	return exchangev1.Balance(m.Quantity * m.Price)
}

// Payer returns the account giving currency: the bid side.
func (m Match) Payer() exchangev1.AccountID {
	if m.Taker.IsBid() {
		return m.Taker.Account
	}
	return m.Maker.Account
}

// Payee returns the account receiving currency: the ask side.
func (m Match) Payee() exchangev1.AccountID {
	if m.Taker.IsBid() {
		return m.Maker.Account
	}
	return m.Taker.Account
}

// MakerIsFilled checks if the match consumed the rest of the maker order.
func (m Match) MakerIsFilled() bool {
	return m.Maker.Amount == m.Quantity
}

// Fill returns the ledger record of the match.
func (m Match) Fill() exchangev1.Fill {
	return exchangev1.Fill{
		Maker:    m.Maker,
		Taker:    m.Taker,
		Quantity: m.Quantity,
		Price:    m.Price,
	}
}
