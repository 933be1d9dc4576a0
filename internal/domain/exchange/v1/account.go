package exchangev1

// AccountID identifies an account.
type AccountID uint64

// House is the reserved escrow account. It is the counterparty of collateral
// blocks and their releases; it has no log of its own and cannot be created.
const House AccountID = 0

// Balance is an amount of currency in its smallest unit.
type Balance uint64

// Account owns an append-only log of actions.
type Account struct {
	ID           AccountID `json:"id"`
	Transactions Actions   `json:"transactions"`
}

// NewAccount returns an account with an empty log.
func NewAccount(id AccountID) Account {
	return Account{ID: id, Transactions: Actions{}}
}

// FreeCollateral is the balance available to back new orders: incoming
// transactions minus outgoing transactions and blocks, never below zero.
func (a Account) FreeCollateral() Balance {
	var credits, debits Balance
	for _, action := range a.Transactions {
		switch act := action.(type) {
		case Transaction:
			if act.To == a.ID {
				credits += act.Balance
			}
			if act.From == a.ID {
				debits += act.Balance
			}
		case Block:
			if act.From == a.ID {
				debits += act.Balance
			}
		case Fill:
		default:
			panic("exchangev1: unknown action type")
		}
	}

	if debits >= credits {
		return 0
	}
	return credits - debits
}

// Clone returns a deep copy of the account.
func (a Account) Clone() Account {
	log := make(Actions, len(a.Transactions))
	copy(log, a.Transactions)
	return Account{ID: a.ID, Transactions: log}
}
