package exchangev1

import "context"

// Ledger owns accounts and their logs.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=exchangev1_mock
type Ledger interface {
	CreateAccount(ctx context.Context, account Account) error
	GetAccount(ctx context.Context, id AccountID) (Account, error)
	GetAllAccounts(ctx context.Context) ([]Account, error)
	// Authorize checks a candidate against free collateral without changing any log.
	Authorize(ctx context.Context, candidate Candidate) (Authorization, error)
	// ApplySettlement appends action to the log of id.
	ApplySettlement(ctx context.Context, id AccountID, action Action) error
	// Settle appends every action to the logs of all its parties, or nothing if any party is unknown.
	Settle(ctx context.Context, actions []Action) error
	Deposit(ctx context.Context, id AccountID, balance Balance) (Account, error)
	// Restore replaces every account, logs included.
	Restore(ctx context.Context, accounts []Account) error
}

// Book owns the resting orders of one pair.
type Book interface {
	// Submit matches order against the book and returns the resulting settlement actions.
	Submit(ctx context.Context, order Order) ([]Action, error)
	// Cancel removes the resting order id if it belongs to account.
	Cancel(ctx context.Context, id uint64, account AccountID) (Order, error)
	Depth(ctx context.Context) (Depth, error)
	// Orders returns the resting orders, each side best price first and each level in queue order.
	Orders(ctx context.Context) ([]Order, error)
	// Restore replaces the resting orders; orders of one price are queued in the order given.
	Restore(ctx context.Context, orders []Order) error
}
