package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	snapshotv1 "github.com/muhammadchandra19/matcha/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/muhammadchandra19/matcha/pkg/redis"
)

// Store keeps the latest snapshot of one pair in Redis, as JSON under the pair's key.
type Store struct {
	pair        string
	logger      *logger.Logger
	redisclient redis.Client
}

var _ snapshotv1.Store = (*Store)(nil)

// NewSnapshotStore creates a new Store with the given Redis client and pair.
func NewSnapshotStore(redisclient redis.Client, pair string, log *logger.Logger) *Store {
	return &Store{
		pair:        pair,
		redisclient: redisclient,
		logger:      log.WithFields(logger.NewField("pair", pair)),
	}
}

// Store stores the snapshot in Redis, replacing the previous one.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return errors.New(errors.GeneralBadRequestError, "snapshot cannot be nil", "snapshot")
	}

	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.NewField("action", "marshal snapshot"))
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := s.redisclient.Set(ctx, s.pair, buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err, logger.NewField("action", "store snapshot"))
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("Snapshot stored for pair %s", s.pair),
		logger.NewField("action", "store snapshot"),
		logger.NewField("sequence", snapshot.Sequence),
		logger.NewField("accounts", len(snapshot.Accounts)),
		logger.NewField("orders", len(snapshot.Orders)),
	)
	return nil
}

// LoadStore loads the snapshot from Redis. It returns nil when none was stored.
func (s *Store) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, s.pair)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.NewField("action", "load snapshot"))
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, fmt.Sprintf("No snapshot found for pair %s", s.pair),
			logger.NewField("action", "load snapshot"),
		)
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, logger.NewField("action", "unmarshal snapshot"))
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("Snapshot loaded for pair %s", s.pair),
		logger.NewField("action", "load snapshot"),
		logger.NewField("sequence", snapshot.Sequence),
	)
	return &snapshot, nil
}
