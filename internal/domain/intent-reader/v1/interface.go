package intentreaderv1

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// IntentReader reads intents from the intent topic.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=intentreaderv1_mock
type IntentReader interface {
	// FetchMessage returns the next record and its decoded intent. A record
	// that cannot be decoded is returned with a GeneralBadRequest error so
	// that it can be committed and skipped.
	FetchMessage(ctx context.Context) (kafka.Message, *IntentMessage, error)
	// CommitMessages marks the records as processed for the consumer group.
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
