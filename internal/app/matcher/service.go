package matcher

import (
	"context"

	"github.com/muhammadchandra19/matcha/internal/app/actor"
	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	snapshotv1 "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/matcha/internal/usecase/orderbook"
	"github.com/muhammadchandra19/matcha/pkg/logger"
)

// Service serves the order book of one pair from its own actor. All submits
// are totally ordered by the actor's mailbox.
type Service struct {
	actor  *actor.Actor
	book   *orderbook.Orderbook
	logger *logger.Logger
}

var _ exchangev1.Book = (*Service)(nil)

// NewService wraps book in an actor with the given mailbox size.
func NewService(book *orderbook.Orderbook, mailboxSize int, log *logger.Logger) *Service {
	return &Service{
		actor:  actor.New("matcher", mailboxSize, log),
		book:   book,
		logger: log.WithFields(logger.NewField("component", "matcher"), logger.NewField("pair", book.Pair)),
	}
}

// Start starts the matcher actor.
func (s *Service) Start(ctx context.Context) error {
	return s.actor.Start(ctx)
}

// Stop stops the matcher actor.
func (s *Service) Stop(ctx context.Context) error {
	return s.actor.Stop(ctx)
}

// Submit implements exchangev1.Book. Submit and Cancel come from the intake
// pipeline one intent at a time and skip the mailbox, so reads of the book
// cannot crowd them out.
func (s *Service) Submit(ctx context.Context, order exchangev1.Order) ([]exchangev1.Action, error) {
	return actor.AskPriority(ctx, s.actor, func(ctx context.Context) ([]exchangev1.Action, error) {
		actions, err := s.book.Submit(order)
		if err != nil {
			return nil, err
		}

		fills := 0
		for _, action := range actions {
			if fill, ok := action.(exchangev1.Fill); ok {
				fills++
				s.logger.InfoContext(ctx, "Trade executed",
					logger.NewField("price", fill.Price),
					logger.NewField("size", fill.Quantity),
					logger.NewField("makerOrderID", fill.Maker.ID),
					logger.NewField("takerOrderID", fill.Taker.ID),
					logger.NewField("makerIsFilled", fill.Maker.Amount == fill.Quantity),
				)
			}
		}
		s.logger.DebugContext(ctx, "order submitted",
			logger.NewField("order_id", order.ID),
			logger.NewField("side", order.Side.String()),
			logger.NewField("fills", fills),
		)
		return actions, nil
	})
}

// Cancel implements exchangev1.Book.
func (s *Service) Cancel(ctx context.Context, id uint64, account exchangev1.AccountID) (exchangev1.Order, error) {
	return actor.AskPriority(ctx, s.actor, func(ctx context.Context) (exchangev1.Order, error) {
		return s.book.Cancel(id, account)
	})
}

// Depth implements exchangev1.Book.
func (s *Service) Depth(ctx context.Context) (exchangev1.Depth, error) {
	return actor.Ask(ctx, s.actor, func(ctx context.Context) (exchangev1.Depth, error) {
		return s.book.Depth(), nil
	})
}

// Orders implements exchangev1.Book.
func (s *Service) Orders(ctx context.Context) ([]exchangev1.Order, error) {
	return actor.Ask(ctx, s.actor, func(ctx context.Context) ([]exchangev1.Order, error) {
		bookOrders := s.book.CreateSnapshot()
		orders := make([]exchangev1.Order, 0, len(bookOrders))
		for _, bookOrder := range bookOrders {
			orders = append(orders, bookOrder.Order())
		}
		return orders, nil
	})
}

// Restore implements exchangev1.Book.
func (s *Service) Restore(ctx context.Context, orders []exchangev1.Order) error {
	bookOrders := make([]snapshotv1.BookOrder, 0, len(orders))
	for _, order := range orders {
		bookOrders = append(bookOrders, snapshotv1.NewBookOrder(order))
	}

	return actor.Do(ctx, s.actor, func(ctx context.Context) error {
		return s.book.RestoreOrderbook(bookOrders)
	})
}
