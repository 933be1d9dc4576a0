package orderbookv1

import (
	"sort"
	"testing"

	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a resting order
func createTestOrder(id uint64, account exchangev1.AccountID, amount, price uint64, side exchangev1.Side) *exchangev1.Order {
	return &exchangev1.Order{
		ID:        id,
		Account:   account,
		Amount:    amount,
		Side:      side,
		Price:     price,
		Timestamp: int64(id),
	}
}

func TestNewLimit(t *testing.T) {
	limit := NewLimit(100)

	assert.NotNil(t, limit)
	assert.Equal(t, uint64(100), limit.Price)
	assert.Equal(t, uint64(0), limit.TotalVolume)
	assert.Empty(t, limit.Orders)
	assert.True(t, limit.IsEmpty())
}

func TestLimit_AddOrder(t *testing.T) {
	limit := NewLimit(100)

	t.Run("Add valid order", func(t *testing.T) {
		err := limit.AddOrder(createTestOrder(1, 1, 10, 100, exchangev1.Ask))

		require.NoError(t, err)
		assert.Equal(t, 1, limit.OrderCount())
		assert.Equal(t, uint64(10), limit.TotalVolume)
		assert.False(t, limit.IsEmpty())
	})

	t.Run("Add nil order", func(t *testing.T) {
		assert.ErrorIs(t, limit.AddOrder(nil), ErrNilOrder)
	})

	t.Run("Add order with zero size", func(t *testing.T) {
		assert.ErrorIs(t, limit.AddOrder(createTestOrder(2, 1, 0, 100, exchangev1.Ask)), ErrInvalidSize)
	})

	t.Run("Add order at another price", func(t *testing.T) {
		assert.ErrorIs(t, limit.AddOrder(createTestOrder(3, 1, 1, 99, exchangev1.Ask)), ErrPriceMismatch)
	})

	assert.NoError(t, limit.Validate())
}

func TestLimit_RemoveOrder(t *testing.T) {
	limit := NewLimit(100)
	require.NoError(t, limit.AddOrder(createTestOrder(1, 1, 10, 100, exchangev1.Bid)))
	require.NoError(t, limit.AddOrder(createTestOrder(2, 2, 4, 100, exchangev1.Bid)))

	t.Run("Remove existing order", func(t *testing.T) {
		removed, err := limit.RemoveOrder(1)

		require.NoError(t, err)
		assert.Equal(t, uint64(1), removed.ID)
		assert.Equal(t, 1, limit.OrderCount())
		assert.Equal(t, uint64(4), limit.TotalVolume)
	})

	t.Run("Remove missing order", func(t *testing.T) {
		_, err := limit.RemoveOrder(42)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	assert.NoError(t, limit.Validate())
}

func TestLimit_Fill(t *testing.T) {
	testCases := []struct {
		name             string
		resting          []uint64
		incoming         uint64
		expectedQty      []uint64
		expectedLeft     uint64
		expectedVolume   uint64
		expectedOrderIDs []uint64
	}{
		{
			name:             "partial fill of the maker",
			resting:          []uint64{10},
			incoming:         5,
			expectedQty:      []uint64{5},
			expectedLeft:     0,
			expectedVolume:   5,
			expectedOrderIDs: []uint64{1},
		},
		{
			name:             "exact match empties the limit",
			resting:          []uint64{10},
			incoming:         10,
			expectedQty:      []uint64{10},
			expectedLeft:     0,
			expectedVolume:   0,
			expectedOrderIDs: []uint64{},
		},
		{
			name:             "fifo across makers",
			resting:          []uint64{10, 15, 8},
			incoming:         20,
			expectedQty:      []uint64{10, 10},
			expectedLeft:     0,
			expectedVolume:   13,
			expectedOrderIDs: []uint64{2, 3},
		},
		{
			name:             "incoming outlives the limit",
			resting:          []uint64{3, 2},
			incoming:         8,
			expectedQty:      []uint64{3, 2},
			expectedLeft:     3,
			expectedVolume:   0,
			expectedOrderIDs: []uint64{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			limit := NewLimit(10)
			for i, amount := range tc.resting {
				require.NoError(t, limit.AddOrder(createTestOrder(uint64(i+1), exchangev1.AccountID(i+1), amount, 10, exchangev1.Ask)))
			}
			incoming := createTestOrder(100, 9, tc.incoming, 12, exchangev1.Bid)

			matches := limit.Fill(incoming)

			require.Len(t, matches, len(tc.expectedQty))
			for i, m := range matches {
				assert.Equal(t, tc.expectedQty[i], m.Quantity)
				assert.Equal(t, uint64(10), m.Price)
				assert.Equal(t, uint64(i+1), m.Maker.ID)
			}
			assert.Equal(t, tc.expectedLeft, incoming.Amount)
			assert.Equal(t, tc.expectedVolume, limit.TotalVolume)

			ids := []uint64{}
			for _, o := range limit.Orders {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, tc.expectedOrderIDs, ids)
			assert.NoError(t, limit.Validate())
		})
	}
}

func TestLimit_Fill_Snapshots(t *testing.T) {
	limit := NewLimit(10)
	require.NoError(t, limit.AddOrder(createTestOrder(1, 2, 5, 10, exchangev1.Ask)))
	incoming := createTestOrder(2, 1, 8, 12, exchangev1.Bid)

	matches := limit.Fill(incoming)

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, uint64(5), m.Maker.Amount)
	assert.Equal(t, uint64(8), m.Taker.Amount)
	assert.True(t, m.MakerIsFilled())
	assert.Equal(t, exchangev1.Balance(50), m.Notional())
	assert.Equal(t, exchangev1.AccountID(1), m.Payer())
	assert.Equal(t, exchangev1.AccountID(2), m.Payee())
	assert.Equal(t, exchangev1.Fill{Maker: m.Maker, Taker: m.Taker, Quantity: 5, Price: 10}, m.Fill())
}

func TestLimit_Fill_ReleasesFilledOrders(t *testing.T) {
	limit := NewLimit(10)
	require.NoError(t, limit.AddOrder(createTestOrder(1, 2, 5, 10, exchangev1.Ask)))
	require.NoError(t, limit.AddOrder(createTestOrder(2, 3, 5, 10, exchangev1.Ask)))
	require.NoError(t, limit.AddOrder(createTestOrder(3, 4, 5, 10, exchangev1.Ask)))
	queue := limit.Orders

	limit.Fill(createTestOrder(4, 1, 7, 10, exchangev1.Bid))

	assert.Nil(t, queue[0])
	require.Len(t, limit.Orders, 2)
	assert.Equal(t, uint64(2), limit.Orders[0].ID)
	assert.Equal(t, uint64(3), limit.Orders[0].Amount)
	assert.Same(t, queue[1], limit.Orders[0])
}

func TestLimits_Sorting(t *testing.T) {
	limits := Limits{NewLimit(12), NewLimit(10), NewLimit(11)}
	require.NoError(t, limits[0].AddOrder(createTestOrder(1, 1, 2, 12, exchangev1.Ask)))
	require.NoError(t, limits[1].AddOrder(createTestOrder(2, 1, 3, 10, exchangev1.Ask)))

	sortLimits := func(asks bool) []uint64 {
		if asks {
			sort.Sort(ByBestAsk{limits})
		} else {
			sort.Sort(ByBestBid{limits})
		}
		prices := []uint64{}
		for _, l := range limits.Levels() {
			prices = append(prices, l.Price)
		}
		return prices
	}

	assert.Equal(t, []uint64{10, 11, 12}, sortLimits(true))
	assert.Equal(t, []uint64{12, 11, 10}, sortLimits(false))
	assert.Equal(t, uint64(5), limits.Volume())
}
