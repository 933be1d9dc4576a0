package engine

import (
	"context"
	"sync"
	"time"

	"github.com/muhammadchandra19/matcha/internal/app/intake"
	ledgerapp "github.com/muhammadchandra19/matcha/internal/app/ledger"
	"github.com/muhammadchandra19/matcha/internal/app/matcher"
	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	matchpublisherv1 "github.com/muhammadchandra19/matcha/internal/domain/match-publisher/v1"
	snapshotv1 "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/matcha/internal/usecase/ledger"
	"github.com/muhammadchandra19/matcha/internal/usecase/orderbook"
	"github.com/muhammadchandra19/matcha/pkg/logger"
)

// AccountQuery selects the accounts GetAccounts returns. A nil ID selects all.
type AccountQuery struct {
	ID *exchangev1.AccountID
}

// Engine wires the ledger, the matcher and the intake pipeline of one pair
// and serves the requests of the outside world.
type Engine struct {
	pair     string
	ledger   *ledgerapp.Service
	matcher  *matcher.Service
	pipeline *intake.Pipeline

	snapshotStore snapshotv1.Store
	logger        *logger.Logger

	// touched by the snapshot manager only, and by Start/Stop around it
	lastSnapshotSequence uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshotInterval time.Duration
}

// NewEngine creates a new Engine for pair. snapshotStore and publisher may be
// nil, which disables snapshots and match events respectively.
func NewEngine(
	pair string,
	snapshotStore snapshotv1.Store,
	publisher matchpublisherv1.MatchPublisher,
	log *logger.Logger,
) *Engine {
	return NewEngineWithOptions(pair, snapshotStore, publisher, log, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options
func NewEngineWithOptions(
	pair string,
	snapshotStore snapshotv1.Store,
	publisher matchpublisherv1.MatchPublisher,
	log *logger.Logger,
	options *Options,
) *Engine {
	ledgerService := ledgerapp.NewService(ledger.NewLedger(), options.MailboxSize, log)
	matcherService := matcher.NewService(orderbook.NewOrderbook(pair), options.MailboxSize, log)

	return &Engine{
		pair:             pair,
		ledger:           ledgerService,
		matcher:          matcherService,
		pipeline:         intake.NewPipeline(pair, ledgerService, matcherService, publisher, options.MailboxSize, log),
		snapshotStore:    snapshotStore,
		logger:           log.WithFields(logger.NewField("pair", pair)),
		snapshotInterval: options.SnapshotInterval,
	}
}

// Start starts the components, restores the latest snapshot and starts the
// snapshot manager.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	// components live until Stop, not until ctx ends, so Stop can still
	// take the final snapshot
	componentCtx := context.WithoutCancel(ctx)
	if err := e.ledger.Start(componentCtx); err != nil {
		return err
	}
	if err := e.matcher.Start(componentCtx); err != nil {
		return err
	}
	if err := e.pipeline.Start(componentCtx); err != nil {
		return err
	}

	if err := e.loadSnapshot(ctx); err != nil {
		e.cancel()
		_ = e.stopComponents(context.Background())
		return err
	}

	if e.snapshotStore != nil && e.snapshotInterval > 0 {
		e.wg.Add(1)
		go e.runSnapshotManager()
	}

	e.logger.Info("Engine started")
	return nil
}

// Stop stops the snapshot manager, stores a last snapshot and stops the
// components, intake first.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		e.logger.Warn("Engine stop timeout exceeded")
		return ctx.Err()
	}

	if e.snapshotStore != nil {
		if err := e.TakeSnapshot(ctx); err != nil {
			e.logger.ErrorContext(ctx, err, logger.NewField("action", "final_snapshot"))
		}
	}

	if err := e.stopComponents(ctx); err != nil {
		return err
	}

	e.logger.Info("Engine stopped gracefully")
	return nil
}

func (e *Engine) stopComponents(ctx context.Context) error {
	var firstErr error
	for _, stop := range []func(context.Context) error{e.pipeline.Stop, e.matcher.Stop, e.ledger.Stop} {
		if err := stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// runSnapshotManager handles periodic snapshots
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.snapshotInterval)
	defer ticker.Stop()

	e.logger.Info("Starting snapshot manager", logger.NewField("interval", e.snapshotInterval.String()))

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Snapshot manager shutting down")
			return
		case <-ticker.C:
			if err := e.TakeSnapshot(e.ctx); err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.NewField("action", "store_snapshot"))
			}
		}
	}
}

// TakeSnapshot stores a snapshot when the state changed since the last one.
func (e *Engine) TakeSnapshot(ctx context.Context) error {
	if e.snapshotStore == nil {
		return nil
	}

	snapshot, err := e.pipeline.Snapshot(ctx)
	if err != nil {
		return err
	}
	if snapshot.Sequence == e.lastSnapshotSequence {
		return nil
	}

	if err := e.snapshotStore.Store(ctx, snapshot); err != nil {
		return err
	}
	e.lastSnapshotSequence = snapshot.Sequence
	return nil
}

// loadSnapshot restores the ledger and the book from the stored snapshot
func (e *Engine) loadSnapshot(ctx context.Context) error {
	if e.snapshotStore == nil {
		return nil
	}

	snapshot, err := e.snapshotStore.LoadStore(ctx)
	if err != nil {
		return err
	}
	if snapshot == nil {
		return nil
	}

	if err := e.pipeline.Restore(ctx, snapshot); err != nil {
		return err
	}
	e.lastSnapshotSequence = snapshot.Sequence

	e.logger.Info("Engine restored from snapshot",
		logger.NewField("sequence", snapshot.Sequence),
		logger.NewField("accounts", len(snapshot.Accounts)),
		logger.NewField("orders", len(snapshot.Orders)),
		logger.NewField("takenAt", snapshot.TakenAt),
	)
	return nil
}

// CreateAccount creates an account with an empty log.
func (e *Engine) CreateAccount(ctx context.Context, account exchangev1.Account) (exchangev1.Account, error) {
	return e.pipeline.CreateAccount(ctx, account)
}

// GetAccounts returns the account selected by query, or every account.
func (e *Engine) GetAccounts(ctx context.Context, query AccountQuery) ([]exchangev1.Account, error) {
	if query.ID == nil {
		return e.ledger.GetAllAccounts(ctx)
	}

	account, err := e.ledger.GetAccount(ctx, *query.ID)
	if err != nil {
		return nil, err
	}
	return []exchangev1.Account{account}, nil
}

// SubmitIntent places or cancels an order.
func (e *Engine) SubmitIntent(ctx context.Context, intent exchangev1.Intent) (exchangev1.Receipt, error) {
	return e.pipeline.Submit(ctx, intent)
}

// ShowOrderBook returns the resting orders of the pair.
func (e *Engine) ShowOrderBook(ctx context.Context) (exchangev1.Depth, error) {
	return e.matcher.Depth(ctx)
}

// Deposit credits balance to an account.
func (e *Engine) Deposit(ctx context.Context, id exchangev1.AccountID, balance exchangev1.Balance) (exchangev1.Account, error) {
	return e.pipeline.Deposit(ctx, id, balance)
}

// Pair returns the pair the engine trades.
func (e *Engine) Pair() string {
	return e.pair
}
