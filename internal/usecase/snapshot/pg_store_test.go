package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	snapshotv1 "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/muhammadchandra19/matcha/pkg/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

type execCall struct {
	sql  string
	args []any
}

type fakeRow struct {
	payload []byte
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*[]byte) = r.payload
	return nil
}

type fakeDB struct {
	execs   []execCall
	execErr error
	row     fakeRow
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execs = append(db.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), db.execErr
}

func (db *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return db.row }
func (db *fakeDB) Ping(context.Context) error                      { return nil }
func (db *fakeDB) Close()                                           {}
func (db *fakeDB) DatabaseName() string                             { return "fake" }

func TestPostgresStore_Store(t *testing.T) {
	db := &fakeDB{}
	store := NewPostgresStore(db, "BTC-USD", logger.NewNop())

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, store.Store(context.Background(), testSnapshot()))

	require.Len(t, db.execs, 2)
	assert.Equal(t, createSnapshotTable, db.execs[0].sql)
	upsert := db.execs[1]
	assert.Equal(t, upsertSnapshot, upsert.sql)
	require.Len(t, upsert.args, 4)
	assert.Equal(t, "BTC-USD", upsert.args[0])
	assert.Equal(t, int64(12), upsert.args[1])

	var decoded snapshotv1.Snapshot
	require.NoError(t, json.Unmarshal(upsert.args[3].([]byte), &decoded))
	assert.Equal(t, *testSnapshot(), decoded)

	db.execErr = fmt.Errorf("connection reset")
	assert.ErrorContains(t, store.Store(context.Background(), testSnapshot()), "snapshot_store_error")
	assert.Error(t, store.Store(context.Background(), nil))
}

func TestPostgresStore_LoadStore(t *testing.T) {
	stored, err := json.Marshal(testSnapshot())
	require.NoError(t, err)

	testCases := []struct {
		name      string
		row       fakeRow
		expected  *snapshotv1.Snapshot
		expectErr string
	}{
		{name: "Stored snapshot", row: fakeRow{payload: stored}, expected: testSnapshot()},
		{name: "Nothing stored", row: fakeRow{err: pgx.ErrNoRows}},
		{name: "Query failure", row: fakeRow{err: fmt.Errorf("timeout")}, expectErr: "snapshot_load_error"},
		{name: "Corrupt payload", row: fakeRow{payload: []byte("{")}, expectErr: "snapshot_unmarshal_error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewPostgresStore(&fakeDB{row: tc.row}, "BTC-USD", logger.NewNop())
			snapshot, err := store.LoadStore(context.Background())

			if tc.expectErr != "" {
				assert.ErrorContains(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, snapshot)
		})
	}
}

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	tc, err := postgresql.NewTestContainer(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tc.Close()
	})

	store := NewPostgresStore(tc.Client, "BTC-USD", logger.NewNop())
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))

	empty, err := store.LoadStore(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	first := testSnapshot()
	require.NoError(t, store.Store(ctx, first))

	second := testSnapshot()
	second.Sequence = 13
	second.NextOrderID = 4
	require.NoError(t, store.Store(ctx, second))

	loaded, err := store.LoadStore(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, uint64(13), loaded.Sequence)
	assert.Equal(t, uint64(4), loaded.NextOrderID)
	assert.Equal(t, second.Accounts, loaded.Accounts)
	assert.Equal(t, second.Orders, loaded.Orders)
	assert.True(t, second.TakenAt.Equal(loaded.TakenAt))
}
