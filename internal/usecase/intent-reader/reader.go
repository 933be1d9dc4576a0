package intentreader

import (
	"context"

	intentreaderv1 "github.com/muhammadchandra19/matcha/internal/domain/intent-reader/v1"
	"github.com/muhammadchandra19/matcha/pkg/config"
	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// messageReader is the part of kafka.Reader the intent reader uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Reader consumes intents from a Kafka topic as a member of a consumer group.
type Reader struct {
	kafkaReader messageReader
	logger      *logger.Logger
}

var _ intentreaderv1.IntentReader = (*Reader)(nil)

// NewReader creates a new Kafka reader for the intent topic.
func NewReader(cfg config.KafkaConfig, log *logger.Logger) *Reader {
	kafkaReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.IntentTopic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})

	return newReader(kafkaReader, log)
}

func newReader(r messageReader, log *logger.Logger) *Reader {
	return &Reader{
		kafkaReader: r,
		logger:      log.WithFields(logger.NewField("component", "intent-reader")),
	}
}

// logError is a helper method to log errors consistently
func (r *Reader) logError(ctx context.Context, err error, operation string) {
	r.logger.ErrorContext(ctx, err, logger.NewField("operation", operation))
}

// FetchMessage reads the next record of the topic and decodes it.
func (r *Reader) FetchMessage(ctx context.Context) (kafka.Message, *intentreaderv1.IntentMessage, error) {
	msg, err := r.kafkaReader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logError(ctx, err, "FetchMessage")
		}
		return kafka.Message{}, nil, errors.NewTracer("intent_fetch_error").Wrap(err)
	}

	intent, err := intentreaderv1.FromBytes(msg.Value)
	if err != nil {
		r.logger.WarnContext(ctx, "Skipping undecodable intent",
			logger.NewField("offset", msg.Offset),
			logger.NewField("partition", msg.Partition),
			logger.NewField("error", err.Error()),
		)
		return msg, nil, err
	}
	intent.Offset = msg.Offset

	r.logger.DebugContext(ctx, "Intent read",
		logger.NewField("type", intent.Type),
		logger.NewField("account", intent.Account),
		logger.NewField("offset", msg.Offset),
	)

	return msg, intent, nil
}

// CommitMessages commits the records to the consumer group.
func (r *Reader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := r.kafkaReader.CommitMessages(ctx, msgs...); err != nil {
		r.logError(ctx, err, "CommitMessages")
		return errors.NewTracer("intent_commit_error").Wrap(err)
	}
	return nil
}

// Close properly closes the Kafka reader.
func (r *Reader) Close() error {
	if err := r.kafkaReader.Close(); err != nil {
		r.logError(context.Background(), err, "Close")
		return err
	}
	return nil
}
