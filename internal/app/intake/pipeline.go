package intake

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/muhammadchandra19/matcha/internal/app/actor"
	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	matchpublisherv1 "github.com/muhammadchandra19/matcha/internal/domain/match-publisher/v1"
	snapshotv1 "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/muhammadchandra19/matcha/pkg/util"
	"github.com/oklog/ulid/v2"
)

// Pipeline turns intents into settled ledger entries. It handles one intent
// at a time: every settlement of an intent is applied before the next intent
// is looked at. It also owns the order id sequence.
type Pipeline struct {
	pair      string
	actor     *actor.Actor
	ledger    exchangev1.Ledger
	book      exchangev1.Book
	publisher matchpublisherv1.MatchPublisher
	logger    *logger.Logger

	now     func() time.Time
	entropy io.Reader

	// owned by the actor
	nextOrderID uint64
	sequence    uint64
}

// NewPipeline creates a pipeline over ledger and book. publisher may be nil,
// in which case no match events are published.
func NewPipeline(
	pair string,
	ledger exchangev1.Ledger,
	book exchangev1.Book,
	publisher matchpublisherv1.MatchPublisher,
	mailboxSize int,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		pair:        pair,
		actor:       actor.New("intake", mailboxSize, log),
		ledger:      ledger,
		book:        book,
		publisher:   publisher,
		logger:      log.WithFields(logger.NewField("component", "intake"), logger.NewField("pair", pair)),
		now:         time.Now,
		entropy:     ulid.DefaultEntropy(),
		nextOrderID: 1,
	}
}

// Start starts the pipeline actor.
func (p *Pipeline) Start(ctx context.Context) error {
	return p.actor.Start(ctx)
}

// Stop stops the pipeline actor.
func (p *Pipeline) Stop(ctx context.Context) error {
	return p.actor.Stop(ctx)
}

// Submit runs intent through authorization, matching and settlement.
func (p *Pipeline) Submit(ctx context.Context, intent exchangev1.Intent) (exchangev1.Receipt, error) {
	ctx = util.EnsureRequestID(ctx)

	return actor.Ask(ctx, p.actor, func(ctx context.Context) (exchangev1.Receipt, error) {
		switch in := intent.(type) {
		case exchangev1.OrderIntent:
			return p.placeOrder(ctx, in)
		case exchangev1.CancelIntent:
			return p.cancelOrder(ctx, in)
		default:
			return exchangev1.Receipt{}, errors.New(errors.GeneralBadRequestError, fmt.Sprintf("unknown intent %T", intent), "intent")
		}
	})
}

func (p *Pipeline) placeOrder(ctx context.Context, intent exchangev1.OrderIntent) (exchangev1.Receipt, error) {
	t := p.trace(ctx, intent)

	t.to(exchangev1.StateAuthorizing)
	if intent.Side != exchangev1.Bid && intent.Side != exchangev1.Ask {
		err := errors.New(errors.InvalidOrderError, fmt.Sprintf("unknown side %d", uint8(intent.Side)), "side")
		return t.reject(exchangev1.StateUnauthorized, err)
	}
	auth, err := p.ledger.Authorize(ctx, exchangev1.Candidate{
		Account: intent.Account,
		Amount:  intent.Amount,
		Price:   intent.Price,
	})
	if err != nil {
		return t.reject(exchangev1.StateUnauthorized, err)
	}
	t.to(exchangev1.StateAuthorized, logger.NewField("total", auth.Total), logger.NewField("free_collateral", auth.FreeCollateral))

	order := exchangev1.Order{
		ID:        p.nextOrderID,
		Account:   intent.Account,
		Amount:    intent.Amount,
		Side:      intent.Side,
		Price:     intent.Price,
		Timestamp: p.now().UnixNano(),
	}
	p.nextOrderID++
	t.orderID = order.ID

	// past this point a caller going away must not strand the intent
	ctx = context.WithoutCancel(ctx)

	t.to(exchangev1.StateMatching)
	actions, err := p.book.Submit(ctx, order)
	if err != nil {
		return t.reject(exchangev1.StateMatching, err)
	}

	t.to(exchangev1.StateSettling, logger.NewField("actions", len(actions)))
	if err := p.ledger.Settle(ctx, actions); err != nil {
		p.withdrawResidual(ctx, order, actions)
		return t.reject(exchangev1.StateSettling, p.settlementFailed(ctx, order.ID, actions, err))
	}

	p.sequence++
	t.to(exchangev1.StateAccepted)
	countFills(p.pair, actions)
	p.publish(ctx, actions)

	return exchangev1.Receipt{
		OrderID: order.ID,
		State:   exchangev1.StateAccepted,
		Actions: actions,
	}, nil
}

func (p *Pipeline) cancelOrder(ctx context.Context, intent exchangev1.CancelIntent) (exchangev1.Receipt, error) {
	t := p.trace(ctx, intent)
	t.orderID = intent.OrderID

	t.to(exchangev1.StateAuthorizing)
	if _, err := p.ledger.GetAccount(ctx, intent.Account); err != nil {
		return t.reject(exchangev1.StateUnauthorized, err)
	}
	t.to(exchangev1.StateAuthorized)

	ctx = context.WithoutCancel(ctx)

	t.to(exchangev1.StateMatching)
	order, err := p.book.Cancel(ctx, intent.OrderID, intent.Account)
	if err != nil {
		return t.reject(exchangev1.StateMatching, err)
	}

	// a resting order's total was validated when it was admitted
	total, _ := order.Total()
	actions := []exchangev1.Action{exchangev1.Transaction{
		From:    exchangev1.House,
		To:      intent.Account,
		Balance: total,
	}}

	t.to(exchangev1.StateSettling, logger.NewField("released", total))
	if err := p.ledger.Settle(ctx, actions); err != nil {
		p.reinstate(ctx, order)
		return t.reject(exchangev1.StateSettling, p.settlementFailed(ctx, order.ID, actions, err))
	}

	p.sequence++
	t.to(exchangev1.StateAccepted)

	return exchangev1.Receipt{
		OrderID: order.ID,
		State:   exchangev1.StateAccepted,
		Actions: actions,
	}, nil
}

// settlementFailed reports a batch the book already committed to but the
// ledger refused. The book and the ledger disagree from here on.
func (p *Pipeline) settlementFailed(ctx context.Context, orderID uint64, actions []exchangev1.Action, cause error) error {
	p.logger.ErrorContext(ctx, errors.NewTracer("settlement invariant violated").Wrap(cause),
		logger.NewField("order_id", orderID),
		logger.NewField("actions", exchangev1.Actions(actions)),
	)
	return errors.NewWithObject(errors.SettlementFailedError,
		fmt.Sprintf("settlement of order %d failed: %s", orderID, cause.Error()), "order_id", orderID)
}

// withdrawResidual takes the rested remainder of order back out of the book
// when its Block never reached the ledger. Fills already made stay unsettled;
// their makers' collateral remains blocked, which is never spendable twice.
func (p *Pipeline) withdrawResidual(ctx context.Context, order exchangev1.Order, actions []exchangev1.Action) {
	if len(actions) == 0 {
		return
	}
	if _, rested := actions[len(actions)-1].(exchangev1.Block); !rested {
		return
	}

	if _, err := p.book.Cancel(ctx, order.ID, order.Account); err != nil {
		p.logger.ErrorContext(ctx, errors.NewTracer("withdraw_residual_error").Wrap(err), logger.NewField("order_id", order.ID))
	}
}

// reinstate puts a canceled order back when its release never reached the
// ledger, so the order keeps the collateral that is still blocked for it.
// The book has not changed since the cancel, so the order cannot cross.
func (p *Pipeline) reinstate(ctx context.Context, order exchangev1.Order) {
	if _, err := p.book.Submit(ctx, order); err != nil {
		p.logger.ErrorContext(ctx, errors.NewTracer("reinstate_order_error").Wrap(err), logger.NewField("order_id", order.ID))
	}
}

func (p *Pipeline) publish(ctx context.Context, actions []exchangev1.Action) {
	if p.publisher == nil {
		return
	}

	at := p.now()
	var events []*matchpublisherv1.MatchEvent
	for _, action := range actions {
		if fill, ok := action.(exchangev1.Fill); ok {
			events = append(events, matchpublisherv1.CreateFromFill(p.pair, fill, at, p.entropy))
		}
	}
	if len(events) == 0 {
		return
	}

	if err := p.publisher.PublishMatchEvents(ctx, events); err != nil {
		p.logger.ErrorContext(ctx, err, logger.NewField("action", "publish_match_events"), logger.NewField("events", len(events)))
	}
}

// CreateAccount creates an account with an empty log.
func (p *Pipeline) CreateAccount(ctx context.Context, account exchangev1.Account) (exchangev1.Account, error) {
	ctx = util.EnsureRequestID(ctx)

	return actor.Ask(ctx, p.actor, func(ctx context.Context) (exchangev1.Account, error) {
		if err := p.ledger.CreateAccount(ctx, account); err != nil {
			return exchangev1.Account{}, err
		}
		p.sequence++
		return exchangev1.NewAccount(account.ID), nil
	})
}

// Deposit credits balance to the account id.
func (p *Pipeline) Deposit(ctx context.Context, id exchangev1.AccountID, balance exchangev1.Balance) (exchangev1.Account, error) {
	ctx = util.EnsureRequestID(ctx)

	return actor.Ask(ctx, p.actor, func(ctx context.Context) (exchangev1.Account, error) {
		account, err := p.ledger.Deposit(ctx, id, balance)
		if err != nil {
			return exchangev1.Account{}, err
		}
		p.sequence++
		return account, nil
	})
}

// Snapshot captures the ledger, the book and the order sequence between two
// intents.
func (p *Pipeline) Snapshot(ctx context.Context) (*snapshotv1.Snapshot, error) {
	return actor.Ask(ctx, p.actor, func(ctx context.Context) (*snapshotv1.Snapshot, error) {
		accounts, err := p.ledger.GetAllAccounts(ctx)
		if err != nil {
			return nil, err
		}
		orders, err := p.book.Orders(ctx)
		if err != nil {
			return nil, err
		}

		bookOrders := make([]snapshotv1.BookOrder, 0, len(orders))
		for _, order := range orders {
			bookOrders = append(bookOrders, snapshotv1.NewBookOrder(order))
		}

		return &snapshotv1.Snapshot{
			Pair:        p.pair,
			Sequence:    p.sequence,
			NextOrderID: p.nextOrderID,
			Accounts:    accounts,
			Orders:      bookOrders,
			TakenAt:     p.now().UTC(),
		}, nil
	})
}

// Restore loads snapshot into the ledger and the book and resumes the order
// sequence after it.
func (p *Pipeline) Restore(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return errors.New(errors.GeneralBadRequestError, "snapshot cannot be nil", "snapshot")
	}
	if snapshot.Pair != p.pair {
		return errors.New(errors.GeneralBadRequestError,
			fmt.Sprintf("snapshot is for pair %s, not %s", snapshot.Pair, p.pair), "pair")
	}

	return actor.Do(ctx, p.actor, func(ctx context.Context) error {
		orders := make([]exchangev1.Order, 0, len(snapshot.Orders))
		next := max(snapshot.NextOrderID, 1)
		for _, bookOrder := range snapshot.Orders {
			orders = append(orders, bookOrder.Order())
			next = max(next, bookOrder.OrderID+1)
		}

		if err := p.ledger.Restore(ctx, snapshot.Accounts); err != nil {
			return err
		}
		if err := p.book.Restore(ctx, orders); err != nil {
			return err
		}

		p.nextOrderID = next
		p.sequence = snapshot.Sequence
		return nil
	})
}
