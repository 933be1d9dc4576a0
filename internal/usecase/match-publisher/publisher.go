package matchpublisher

import (
	"context"
	"time"

	matchpublisherv1 "github.com/muhammadchandra19/matcha/internal/domain/match-publisher/v1"
	"github.com/muhammadchandra19/matcha/pkg/config"
	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes match events to a Kafka topic. Events are keyed by
// pair so that the events of one pair stay in order on one partition.
type Publisher struct {
	kafkaWriter  messageWriter
	writeTimeout time.Duration
	logger       *logger.Logger
}

var _ matchpublisherv1.MatchPublisher = (*Publisher)(nil)

// NewPublisher creates a new Kafka publisher for publishing match events.
func NewPublisher(cfg config.KafkaConfig, log *logger.Logger) *Publisher {
	kafkaWriter := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(kafkaWriter, cfg.WriteTimeout, log)
}

func newPublisher(w messageWriter, writeTimeout time.Duration, log *logger.Logger) *Publisher {
	return &Publisher{
		kafkaWriter:  w,
		writeTimeout: writeTimeout,
		logger:       log.WithFields(logger.NewField("component", "match-publisher")),
	}
}

// PublishMatchEvents publishes the events to the Kafka topic in one batch.
func (p *Publisher) PublishMatchEvents(ctx context.Context, events []*matchpublisherv1.MatchEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msgs = append(msgs, kafka.Message{
			Key:   []byte(event.Pair),
			Value: matchpublisherv1.ToBytes(event),
			Time:  event.Timestamp,
		})
	}

	if p.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
	}

	if err := p.kafkaWriter.WriteMessages(ctx, msgs...); err != nil {
		p.logger.ErrorContext(ctx, err,
			logger.NewField("action", "publish_match_events"),
			logger.NewField("firstMatchID", events[0].MatchID),
			logger.NewField("events", len(events)),
		)
		return errors.NewTracer("failed to publish match events").Wrap(err)
	}

	p.logger.DebugContext(ctx, "match events published", logger.NewField("events", len(events)))
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}
