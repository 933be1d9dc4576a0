package snapshot

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	snapshotv1 "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/muhammadchandra19/matcha/pkg/postgresql"
)

const (
	createSnapshotTable = `CREATE TABLE IF NOT EXISTS engine_snapshots (
	pair     TEXT PRIMARY KEY,
	sequence BIGINT NOT NULL,
	taken_at TIMESTAMPTZ NOT NULL,
	payload  JSONB NOT NULL
)`

	upsertSnapshot = `INSERT INTO engine_snapshots (pair, sequence, taken_at, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (pair) DO UPDATE
SET sequence = EXCLUDED.sequence, taken_at = EXCLUDED.taken_at, payload = EXCLUDED.payload`

	selectSnapshot = `SELECT payload FROM engine_snapshots WHERE pair = $1`
)

// PostgresStore keeps the latest snapshot of one pair in a PostgreSQL row.
type PostgresStore struct {
	pair   string
	logger *logger.Logger
	db     postgresql.PostgreSQLClient
}

var _ snapshotv1.Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgresStore. EnsureSchema must be called once
// before the store is used against a fresh database.
func NewPostgresStore(db postgresql.PostgreSQLClient, pair string, log *logger.Logger) *PostgresStore {
	return &PostgresStore{
		pair:   pair,
		db:     db,
		logger: log.WithFields(logger.NewField("pair", pair), logger.NewField("backend", "postgres")),
	}
}

// EnsureSchema creates the snapshot table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createSnapshotTable); err != nil {
		return errors.NewTracer("snapshot_schema_error").Wrap(err)
	}
	return nil
}

// Store upserts the snapshot row of the pair.
func (s *PostgresStore) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return errors.New(errors.GeneralBadRequestError, "snapshot cannot be nil", "snapshot")
	}

	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.NewField("action", "marshal snapshot"))
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if _, err := s.db.Exec(ctx, upsertSnapshot, s.pair, int64(snapshot.Sequence), snapshot.TakenAt, buf); err != nil {
		s.logger.ErrorContext(ctx, err, logger.NewField("action", "store snapshot"))
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("Snapshot stored for pair %s", s.pair),
		logger.NewField("action", "store snapshot"),
		logger.NewField("sequence", snapshot.Sequence),
	)
	return nil
}

// LoadStore loads the snapshot row of the pair. It returns nil when none was stored.
func (s *PostgresStore) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	var payload []byte
	if err := s.db.QueryRow(ctx, selectSnapshot, s.pair).Scan(&payload); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			s.logger.WarnContext(ctx, fmt.Sprintf("No snapshot found for pair %s", s.pair),
				logger.NewField("action", "load snapshot"),
			)
			return nil, nil
		}
		s.logger.ErrorContext(ctx, err, logger.NewField("action", "load snapshot"))
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, logger.NewField("action", "unmarshal snapshot"))
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("Snapshot loaded for pair %s", s.pair),
		logger.NewField("action", "load snapshot"),
		logger.NewField("sequence", snapshot.Sequence),
	)
	return &snapshot, nil
}
