package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	snapshotv1 "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	redismock "github.com/muhammadchandra19/matcha/pkg/redis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *snapshotv1.Snapshot {
	return &snapshotv1.Snapshot{
		Pair:        "BTC-USD",
		Sequence:    12,
		NextOrderID: 3,
		Accounts: []exchangev1.Account{{
			ID: 1,
			Transactions: exchangev1.Actions{
				exchangev1.Transaction{From: exchangev1.House, To: 1, Balance: 100},
				exchangev1.Block{From: 1, Balance: 36},
			},
		}},
		Orders: []snapshotv1.BookOrder{
			{OrderID: 2, Account: 1, Amount: 3, Side: exchangev1.Bid, Price: 12, Timestamp: 99},
		},
		TakenAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_Store(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := redismock.NewMockClient(ctrl)
	store := NewSnapshotStore(client, "BTC-USD", logger.NewNop())

	t.Run("Stores JSON under the pair", func(t *testing.T) {
		client.EXPECT().Set(gomock.Any(), "BTC-USD", gomock.Any(), time.Duration(0)).
			DoAndReturn(func(_ context.Context, _ string, value any, _ time.Duration) error {
				var decoded snapshotv1.Snapshot
				require.NoError(t, json.Unmarshal(value.([]byte), &decoded))
				assert.Equal(t, *testSnapshot(), decoded)
				return nil
			})

		require.NoError(t, store.Store(context.Background(), testSnapshot()))
	})

	t.Run("Redis failure", func(t *testing.T) {
		client.EXPECT().Set(gomock.Any(), "BTC-USD", gomock.Any(), gomock.Any()).Return(fmt.Errorf("connection refused"))

		err := store.Store(context.Background(), testSnapshot())
		assert.ErrorContains(t, err, "snapshot_store_error")
	})

	t.Run("Nil snapshot", func(t *testing.T) {
		assert.Error(t, store.Store(context.Background(), nil))
	})
}

func TestStore_LoadStore(t *testing.T) {
	stored, err := json.Marshal(testSnapshot())
	require.NoError(t, err)

	testCases := []struct {
		name      string
		data      string
		err       error
		expected  *snapshotv1.Snapshot
		expectErr string
	}{
		{name: "Stored snapshot", data: string(stored), expected: testSnapshot()},
		{name: "Nothing stored", data: ""},
		{name: "Redis failure", err: fmt.Errorf("timeout"), expectErr: "snapshot_load_error"},
		{name: "Corrupt payload", data: "{", expectErr: "snapshot_unmarshal_error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := redismock.NewMockClient(ctrl)
			client.EXPECT().Get(gomock.Any(), "BTC-USD").Return(tc.data, tc.err)

			snapshot, err := NewSnapshotStore(client, "BTC-USD", logger.NewNop()).LoadStore(context.Background())

			if tc.expectErr != "" {
				assert.ErrorContains(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, snapshot)
		})
	}
}
