package ledger

import (
	"context"

	"github.com/muhammadchandra19/matcha/internal/app/actor"
	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	ledgeruc "github.com/muhammadchandra19/matcha/internal/usecase/ledger"
	"github.com/muhammadchandra19/matcha/pkg/logger"
)

// Service serves the account ledger from its own actor. The ledger is only
// ever touched from inside actor messages.
type Service struct {
	actor  *actor.Actor
	ledger *ledgeruc.Ledger
	logger *logger.Logger
}

var _ exchangev1.Ledger = (*Service)(nil)

// NewService wraps l in an actor with the given mailbox size.
func NewService(l *ledgeruc.Ledger, mailboxSize int, log *logger.Logger) *Service {
	return &Service{
		actor:  actor.New("ledger", mailboxSize, log),
		ledger: l,
		logger: log.WithFields(logger.NewField("component", "ledger")),
	}
}

// Start starts the ledger actor.
func (s *Service) Start(ctx context.Context) error {
	return s.actor.Start(ctx)
}

// Stop stops the ledger actor.
func (s *Service) Stop(ctx context.Context) error {
	return s.actor.Stop(ctx)
}

// CreateAccount implements exchangev1.Ledger.
func (s *Service) CreateAccount(ctx context.Context, account exchangev1.Account) error {
	return actor.Do(ctx, s.actor, func(ctx context.Context) error {
		created, err := s.ledger.CreateAccount(account)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "account created", logger.NewField("account", created.ID))
		return nil
	})
}

// GetAccount implements exchangev1.Ledger.
func (s *Service) GetAccount(ctx context.Context, id exchangev1.AccountID) (exchangev1.Account, error) {
	return actor.Ask(ctx, s.actor, func(ctx context.Context) (exchangev1.Account, error) {
		return s.ledger.Account(id)
	})
}

// GetAllAccounts implements exchangev1.Ledger.
func (s *Service) GetAllAccounts(ctx context.Context) ([]exchangev1.Account, error) {
	return actor.Ask(ctx, s.actor, func(ctx context.Context) ([]exchangev1.Account, error) {
		return s.ledger.Accounts(), nil
	})
}

// Authorize implements exchangev1.Ledger.
func (s *Service) Authorize(ctx context.Context, candidate exchangev1.Candidate) (exchangev1.Authorization, error) {
	return actor.Ask(ctx, s.actor, func(ctx context.Context) (exchangev1.Authorization, error) {
		return s.ledger.Authorize(candidate)
	})
}

// ApplySettlement implements exchangev1.Ledger.
func (s *Service) ApplySettlement(ctx context.Context, id exchangev1.AccountID, action exchangev1.Action) error {
	return actor.Do(ctx, s.actor, func(ctx context.Context) error {
		return s.ledger.Apply(id, action)
	})
}

// Settle implements exchangev1.Ledger. The whole batch is applied within one
// message, so no other request observes it half done. Settlement follows a
// committed match, so it is never refused for a full mailbox.
func (s *Service) Settle(ctx context.Context, actions []exchangev1.Action) error {
	batch := make([]exchangev1.Action, len(actions))
	copy(batch, actions)

	return actor.DoPriority(ctx, s.actor, func(ctx context.Context) error {
		if err := s.ledger.Settle(batch); err != nil {
			return err
		}
		s.logger.DebugContext(ctx, "settlement applied", logger.NewField("actions", len(batch)))
		return nil
	})
}

// Deposit implements exchangev1.Ledger.
func (s *Service) Deposit(ctx context.Context, id exchangev1.AccountID, balance exchangev1.Balance) (exchangev1.Account, error) {
	return actor.Ask(ctx, s.actor, func(ctx context.Context) (exchangev1.Account, error) {
		account, err := s.ledger.Deposit(id, balance)
		if err != nil {
			return exchangev1.Account{}, err
		}
		s.logger.InfoContext(ctx, "deposit applied",
			logger.NewField("account", id),
			logger.NewField("balance", balance),
		)
		return account, nil
	})
}

// Restore implements exchangev1.Ledger.
func (s *Service) Restore(ctx context.Context, accounts []exchangev1.Account) error {
	return actor.Do(ctx, s.actor, func(ctx context.Context) error {
		return s.ledger.Restore(accounts)
	})
}
