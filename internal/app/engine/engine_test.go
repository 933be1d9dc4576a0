package engine

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	snapshotv1 "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1"
	snapshotmock "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1/mock"
	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestEngine(t testing.TB, store snapshotv1.Store) *Engine {
	e := NewEngineWithOptions("BTC-USD", store, nil, logger.NewNop(), &Options{MailboxSize: 64})
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() {
		_ = e.Stop(context.Background())
	})
	return e
}

func account(t *testing.T, e *Engine, id exchangev1.AccountID) exchangev1.Account {
	t.Helper()
	accounts, err := e.GetAccounts(context.Background(), AccountQuery{ID: &id})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	return accounts[0]
}

func TestEngine_CollateralIsRequired(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	_, err := e.CreateAccount(ctx, exchangev1.Account{ID: 1})
	require.NoError(t, err)

	intent := exchangev1.OrderIntent{Account: 1, Amount: 10, Side: exchangev1.Bid, Price: 5}
	_, err = e.SubmitIntent(ctx, intent)
	assert.True(t, errors.ErrorCodeEquals(err, string(errors.InsufficientCollateralError)))
	assert.Equal(t, exchangev1.Balance(0), account(t, e, 1).FreeCollateral())

	_, err = e.Deposit(ctx, 1, 100)
	require.NoError(t, err)

	receipt, err := e.SubmitIntent(ctx, intent)
	require.NoError(t, err)
	assert.Equal(t, exchangev1.StateAccepted, receipt.State)
	assert.Equal(t, uint64(1), receipt.OrderID)

	x := account(t, e, 1)
	assert.Equal(t, exchangev1.Block{From: 1, Balance: 50}, x.Transactions[len(x.Transactions)-1])
	assert.Equal(t, exchangev1.Balance(50), x.FreeCollateral())

	depth, err := e.ShowOrderBook(ctx)
	require.NoError(t, err)
	require.Len(t, depth.Bids, 1)
	assert.Equal(t, uint64(5), depth.Bids[0].Price)
	assert.Equal(t, uint64(10), depth.Bids[0].Volume)
	assert.Empty(t, depth.Asks)
}

func TestEngine_FillAndCancel(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	const x, y exchangev1.AccountID = 1, 2
	for _, id := range []exchangev1.AccountID{x, y} {
		_, err := e.CreateAccount(ctx, exchangev1.Account{ID: id})
		require.NoError(t, err)
	}
	_, err := e.Deposit(ctx, x, 100)
	require.NoError(t, err)
	_, err = e.Deposit(ctx, y, 50)
	require.NoError(t, err)

	ask, err := e.SubmitIntent(ctx, exchangev1.OrderIntent{Account: y, Amount: 5, Side: exchangev1.Ask, Price: 10})
	require.NoError(t, err)
	assert.Equal(t, exchangev1.Balance(0), account(t, e, y).FreeCollateral())

	bid, err := e.SubmitIntent(ctx, exchangev1.OrderIntent{Account: x, Amount: 8, Side: exchangev1.Bid, Price: 12})
	require.NoError(t, err)
	require.Len(t, bid.Actions, 4)

	fill, ok := bid.Actions[0].(exchangev1.Fill)
	require.True(t, ok)
	assert.Equal(t, uint64(5), fill.Quantity)
	assert.Equal(t, uint64(10), fill.Price)
	assert.Equal(t, ask.OrderID, fill.Maker.ID)
	assert.Equal(t, bid.OrderID, fill.Taker.ID)
	assert.Equal(t, exchangev1.Transaction{From: x, To: y, Balance: 50}, bid.Actions[1])
	assert.Equal(t, exchangev1.Transaction{From: exchangev1.House, To: y, Balance: 50}, bid.Actions[2])
	assert.Equal(t, exchangev1.Block{From: x, Balance: 36}, bid.Actions[3])

	assert.Equal(t, exchangev1.Balance(14), account(t, e, x).FreeCollateral())
	assert.Equal(t, exchangev1.Balance(100), account(t, e, y).FreeCollateral())

	depth, err := e.ShowOrderBook(ctx)
	require.NoError(t, err)
	assert.Empty(t, depth.Asks)
	require.Len(t, depth.Bids, 1)
	require.Len(t, depth.Bids[0].Orders, 1)
	assert.Equal(t, uint64(3), depth.Bids[0].Orders[0].Amount)
	assert.Equal(t, uint64(12), depth.Bids[0].Price)

	_, err = e.SubmitIntent(ctx, exchangev1.CancelIntent{Account: y, OrderID: bid.OrderID})
	assert.True(t, errors.ErrorCodeEquals(err, string(errors.OrderNotFoundError)), "only the owner can cancel")

	canceled, err := e.SubmitIntent(ctx, exchangev1.CancelIntent{Account: x, OrderID: bid.OrderID})
	require.NoError(t, err)
	assert.Equal(t, []exchangev1.Action{exchangev1.Transaction{From: exchangev1.House, To: x, Balance: 36}}, []exchangev1.Action(canceled.Actions))
	assert.Equal(t, exchangev1.Balance(50), account(t, e, x).FreeCollateral())

	depth, err = e.ShowOrderBook(ctx)
	require.NoError(t, err)
	assert.Empty(t, depth.Bids)

	_, err = e.SubmitIntent(ctx, exchangev1.CancelIntent{Account: x, OrderID: bid.OrderID})
	assert.True(t, errors.IsNotFound(err))
}

func TestEngine_ReadsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)

	_, err := e.CreateAccount(ctx, exchangev1.Account{ID: 1})
	require.NoError(t, err)
	_, err = e.Deposit(ctx, 1, 100)
	require.NoError(t, err)
	_, err = e.SubmitIntent(ctx, exchangev1.OrderIntent{Account: 1, Amount: 2, Side: exchangev1.Bid, Price: 7})
	require.NoError(t, err)

	first, err := e.GetAccounts(ctx, AccountQuery{})
	require.NoError(t, err)
	second, err := e.GetAccounts(ctx, AccountQuery{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	depth1, err := e.ShowOrderBook(ctx)
	require.NoError(t, err)
	depth2, err := e.ShowOrderBook(ctx)
	require.NoError(t, err)
	assert.Equal(t, depth1, depth2)

	missing := exchangev1.AccountID(9)
	_, err = e.GetAccounts(ctx, AccountQuery{ID: &missing})
	assert.True(t, errors.ErrorCodeEquals(err, string(errors.AccountNotFoundError)))
}

// Every unit deposited is either free collateral of an account or escrowed
// behind a resting order.
func TestProperty_CollateralIsConserved(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		e := NewEngineWithOptions("BTC-USD", nil, nil, logger.NewNop(), &Options{MailboxSize: 64})
		require.NoError(t, e.Start(ctx))
		defer e.Stop(ctx)

		accounts := []exchangev1.AccountID{1, 2, 3}
		var deposited exchangev1.Balance
		for _, id := range accounts {
			_, err := e.CreateAccount(ctx, exchangev1.Account{ID: id})
			require.NoError(t, err)
			amount := exchangev1.Balance(rapid.Uint64Range(0, 2000).Draw(t, "deposit"))
			if amount > 0 {
				_, err = e.Deposit(ctx, id, amount)
				require.NoError(t, err)
				deposited += amount
			}
		}

		var placed []exchangev1.CancelIntent
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if len(placed) > 0 && rapid.IntRange(0, 3).Draw(t, "cancel") == 0 {
				_, _ = e.SubmitIntent(ctx, rapid.SampledFrom(placed).Draw(t, "order"))
				continue
			}

			intent := exchangev1.OrderIntent{
				Account: rapid.SampledFrom(accounts).Draw(t, "account"),
				Amount:  rapid.Uint64Range(0, 20).Draw(t, "amount"),
				Side:    rapid.SampledFrom([]exchangev1.Side{exchangev1.Bid, exchangev1.Ask}).Draw(t, "side"),
				Price:   rapid.Uint64Range(1, 15).Draw(t, "price"),
			}
			receipt, err := e.SubmitIntent(ctx, intent)
			if err == nil {
				placed = append(placed, exchangev1.CancelIntent{Account: intent.Account, OrderID: receipt.OrderID})
			}
		}

		var free exchangev1.Balance
		all, err := e.GetAccounts(ctx, AccountQuery{})
		require.NoError(t, err)
		for _, a := range all {
			free += a.FreeCollateral()
		}

		var escrowed exchangev1.Balance
		depth, err := e.ShowOrderBook(ctx)
		require.NoError(t, err)
		for _, level := range append(depth.Bids, depth.Asks...) {
			for _, order := range level.Orders {
				escrowed += exchangev1.Balance(order.Amount * order.Price)
			}
		}

		if free+escrowed != deposited {
			t.Fatalf("free %d + escrowed %d != deposited %d", free, escrowed, deposited)
		}
		if len(depth.Bids) > 0 && len(depth.Asks) > 0 && depth.Bids[0].Price >= depth.Asks[0].Price {
			t.Fatalf("book is crossed: bid %d ask %d", depth.Bids[0].Price, depth.Asks[0].Price)
		}
	})
}

func TestEngine_StoresSnapshotOnStop(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := snapshotmock.NewMockStore(ctrl)

	store.EXPECT().LoadStore(gomock.Any()).Return(nil, nil)
	store.EXPECT().Store(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, snapshot *snapshotv1.Snapshot) error {
		assert.Equal(t, "BTC-USD", snapshot.Pair)
		assert.Equal(t, uint64(2), snapshot.NextOrderID)
		assert.Equal(t, uint64(3), snapshot.Sequence)
		if assert.Len(t, snapshot.Orders, 1) {
			assert.Equal(t, uint64(1), snapshot.Orders[0].OrderID)
		}
		if assert.Len(t, snapshot.Accounts, 1) {
			assert.Equal(t, exchangev1.Balance(80), snapshot.Accounts[0].FreeCollateral())
		}
		return nil
	})

	e := NewEngineWithOptions("BTC-USD", store, nil, logger.NewNop(), &Options{MailboxSize: 64})
	require.NoError(t, e.Start(ctx))

	_, err := e.CreateAccount(ctx, exchangev1.Account{ID: 1})
	require.NoError(t, err)
	_, err = e.Deposit(ctx, 1, 100)
	require.NoError(t, err)
	_, err = e.SubmitIntent(ctx, exchangev1.OrderIntent{Account: 1, Amount: 4, Side: exchangev1.Ask, Price: 5})
	require.NoError(t, err)

	require.NoError(t, e.Stop(ctx))
}

func TestEngine_RestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := snapshotmock.NewMockStore(ctrl)

	restored := exchangev1.NewAccount(1)
	restored.Transactions = exchangev1.Actions{
		exchangev1.Transaction{From: exchangev1.House, To: 1, Balance: 100},
		exchangev1.Block{From: 1, Balance: 20},
	}
	snapshot := &snapshotv1.Snapshot{
		Pair:        "BTC-USD",
		Sequence:    7,
		NextOrderID: 5,
		Accounts:    []exchangev1.Account{restored},
		Orders: []snapshotv1.BookOrder{
			{OrderID: 4, Account: 1, Amount: 4, Side: exchangev1.Ask, Price: 5, Timestamp: 1},
		},
		TakenAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	store.EXPECT().LoadStore(gomock.Any()).Return(snapshot, nil)
	// nothing changed since the restored snapshot
	store.EXPECT().Store(gomock.Any(), gomock.Any()).Times(0)

	e := NewEngineWithOptions("BTC-USD", store, nil, logger.NewNop(), &Options{MailboxSize: 64})
	require.NoError(t, e.Start(ctx))

	assert.Equal(t, exchangev1.Balance(80), account(t, e, 1).FreeCollateral())
	depth, err := e.ShowOrderBook(ctx)
	require.NoError(t, err)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, uint64(4), depth.Asks[0].Volume)

	require.NoError(t, e.TakeSnapshot(ctx))
	require.NoError(t, e.Stop(ctx))
}

func TestEngine_RestoreFailureStopsStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := snapshotmock.NewMockStore(ctrl)
	store.EXPECT().LoadStore(gomock.Any()).Return(&snapshotv1.Snapshot{Pair: "ETH-USD"}, nil)

	e := NewEngineWithOptions("BTC-USD", store, nil, logger.NewNop(), &Options{MailboxSize: 64})
	err := e.Start(context.Background())
	assert.True(t, errors.ErrorCodeEquals(err, string(errors.GeneralBadRequestError)))
}

func TestEngine_PeriodicSnapshots(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := snapshotmock.NewMockStore(ctrl)

	stored := make(chan uint64, 8)
	store.EXPECT().LoadStore(gomock.Any()).Return(nil, nil)
	store.EXPECT().Store(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, snapshot *snapshotv1.Snapshot) error {
		stored <- snapshot.Sequence
		return nil
	}).MinTimes(1)

	e := NewEngineWithOptions("BTC-USD", store, nil, logger.NewNop(), &Options{
		MailboxSize:      64,
		SnapshotInterval: 5 * time.Millisecond,
	})
	require.NoError(t, e.Start(ctx))

	_, err := e.CreateAccount(ctx, exchangev1.Account{ID: 1})
	require.NoError(t, err)

	select {
	case sequence := <-stored:
		assert.Equal(t, uint64(1), sequence)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot stored")
	}

	require.NoError(t, e.Stop(ctx))
	assert.Len(t, stored, 0, "an unchanged state is not stored again")
}
