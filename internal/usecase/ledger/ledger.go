package ledger

import (
	"fmt"
	"sort"

	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	"github.com/muhammadchandra19/matcha/pkg/errors"
)

// Ledger holds every account and its action log. It has a single owner and
// is not safe for concurrent use. Accounts handed out are deep copies.
type Ledger struct {
	accounts map[exchangev1.AccountID]*exchangev1.Account
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[exchangev1.AccountID]*exchangev1.Account),
	}
}

// CreateAccount inserts an account with an empty log. Any log carried by
// account is discarded.
func (l *Ledger) CreateAccount(account exchangev1.Account) (exchangev1.Account, error) {
	if account.ID == exchangev1.House {
		return exchangev1.Account{}, exchangev1.ErrAccountAlreadyExists(account.ID)
	}
	if _, exists := l.accounts[account.ID]; exists {
		return exchangev1.Account{}, exchangev1.ErrAccountAlreadyExists(account.ID)
	}

	created := exchangev1.NewAccount(account.ID)
	l.accounts[account.ID] = &created

	return created.Clone(), nil
}

// Account returns a copy of the account with the given id.
func (l *Ledger) Account(id exchangev1.AccountID) (exchangev1.Account, error) {
	account, exists := l.accounts[id]
	if !exists {
		return exchangev1.Account{}, exchangev1.ErrAccountNotFound(id)
	}
	return account.Clone(), nil
}

// Accounts returns copies of all accounts ordered by id.
func (l *Ledger) Accounts() []exchangev1.Account {
	accounts := make([]exchangev1.Account, 0, len(l.accounts))
	for _, account := range l.accounts {
		accounts = append(accounts, account.Clone())
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID < accounts[j].ID
	})
	return accounts
}

// Authorize checks that the candidate's total fits the free collateral of
// its account. The ledger is not changed.
func (l *Ledger) Authorize(candidate exchangev1.Candidate) (exchangev1.Authorization, error) {
	account, exists := l.accounts[candidate.Account]
	if !exists {
		return exchangev1.Authorization{}, exchangev1.ErrAccountNotFound(candidate.Account)
	}
	if err := exchangev1.ValidateOrder(candidate.Amount, candidate.Price); err != nil {
		return exchangev1.Authorization{}, err
	}

	total, err := exchangev1.Notional(candidate.Amount, candidate.Price)
	if err != nil {
		return exchangev1.Authorization{}, err
	}

	free := account.FreeCollateral()
	if total > free {
		return exchangev1.Authorization{}, exchangev1.ErrInsufficientCollateral(candidate.Account, free, total)
	}

	return exchangev1.Authorization{
		Account:        candidate.Account,
		Total:          total,
		FreeCollateral: free,
	}, nil
}

// Apply appends action to the log of id.
func (l *Ledger) Apply(id exchangev1.AccountID, action exchangev1.Action) error {
	if action == nil {
		return errors.New(errors.GeneralBadRequestError, "action cannot be nil", "action")
	}
	account, exists := l.accounts[id]
	if !exists {
		return exchangev1.ErrAccountNotFound(id)
	}
	account.Transactions = append(account.Transactions, action)
	return nil
}

// Settle appends each action, in order, to the log of every party it names.
// All parties are checked before anything is appended, so either the whole
// batch is applied or none of it.
func (l *Ledger) Settle(actions []exchangev1.Action) error {
	for i, action := range actions {
		if action == nil {
			return errors.New(errors.GeneralBadRequestError, fmt.Sprintf("action %d is nil", i), "actions")
		}
		parties := action.Parties()
		if len(parties) == 0 {
			return errors.New(errors.GeneralBadRequestError, fmt.Sprintf("action %d names no account", i), "actions")
		}
		for _, id := range parties {
			if _, exists := l.accounts[id]; !exists {
				return exchangev1.ErrAccountNotFound(id)
			}
		}
	}

	for _, action := range actions {
		for _, id := range action.Parties() {
			account := l.accounts[id]
			account.Transactions = append(account.Transactions, action)
		}
	}
	return nil
}

// Deposit credits balance to id from the house account.
func (l *Ledger) Deposit(id exchangev1.AccountID, balance exchangev1.Balance) (exchangev1.Account, error) {
	if balance == 0 {
		return exchangev1.Account{}, errors.New(errors.GeneralBadRequestError, "deposit must be positive", "balance")
	}
	account, exists := l.accounts[id]
	if !exists {
		return exchangev1.Account{}, exchangev1.ErrAccountNotFound(id)
	}
	if free := account.FreeCollateral(); free+balance < free {
		return exchangev1.Account{}, errors.New(errors.GeneralBadRequestError,
			fmt.Sprintf("deposit of %d overflows the balance of account %d", balance, id), "balance")
	}

	account.Transactions = append(account.Transactions, exchangev1.Transaction{
		From:    exchangev1.House,
		To:      id,
		Balance: balance,
	})
	return account.Clone(), nil
}

// Snapshot returns copies of all accounts ordered by id.
func (l *Ledger) Snapshot() []exchangev1.Account {
	return l.Accounts()
}

// Restore replaces the ledger's content with accounts, logs included.
func (l *Ledger) Restore(accounts []exchangev1.Account) error {
	restored := make(map[exchangev1.AccountID]*exchangev1.Account, len(accounts))
	for _, account := range accounts {
		if account.ID == exchangev1.House {
			return errors.New(errors.GeneralBadRequestError, "snapshot contains the house account", "accounts")
		}
		if _, exists := restored[account.ID]; exists {
			return exchangev1.ErrAccountAlreadyExists(account.ID)
		}
		clone := account.Clone()
		restored[account.ID] = &clone
	}

	l.accounts = restored
	return nil
}

// Len returns the number of accounts.
func (l *Ledger) Len() int {
	return len(l.accounts)
}
