package consumer

import (
	"context"
	"time"

	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	intentreaderv1 "github.com/muhammadchandra19/matcha/internal/domain/intent-reader/v1"
	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/muhammadchandra19/matcha/pkg/util"
	"github.com/segmentio/kafka-go"
)

// DefaultRetryInterval is how long the consumer waits before resubmitting an
// intent refused by a full mailbox.
const DefaultRetryInterval = 10 * time.Millisecond

// Submitter accepts intents.
type Submitter interface {
	SubmitIntent(ctx context.Context, intent exchangev1.Intent) (exchangev1.Receipt, error)
}

// Consumer feeds the intents of the intent topic to the engine, one at a
// time and in topic order. A record is committed once its intent reached a
// final outcome, accepted or rejected.
type Consumer struct {
	reader        intentreaderv1.IntentReader
	submitter     Submitter
	logger        *logger.Logger
	retryInterval time.Duration
}

// NewConsumer creates a new Consumer.
func NewConsumer(reader intentreaderv1.IntentReader, submitter Submitter, log *logger.Logger) *Consumer {
	return &Consumer{
		reader:        reader,
		submitter:     submitter,
		logger:        log.WithFields(logger.NewField("component", "intent-consumer")),
		retryInterval: DefaultRetryInterval,
	}
}

// Run consumes until ctx is done or the engine stops.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("Intent consumer started")
	defer c.logger.Info("Intent consumer stopped")

	for {
		msg, intentMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.ErrorCodeEquals(err, string(errors.GeneralBadRequestError)) &&
				!errors.ErrorCodeEquals(err, string(errors.InvalidOrderError)) {
				return err
			}
			// poison record
			c.commit(ctx, msg)
			continue
		}

		if err := c.process(ctx, intentMsg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		c.commit(ctx, msg)
	}
}

// process submits the intent of m. It returns an error only when the intent
// could not reach an outcome.
func (c *Consumer) process(ctx context.Context, m *intentreaderv1.IntentMessage) error {
	ctx = util.WithRequestID(ctx, m.RequestID)

	intent, err := m.Intent()
	if err != nil {
		c.logger.WarnContext(ctx, "Intent rejected", logger.NewField("offset", m.Offset), logger.NewField("error", err.Error()))
		return nil
	}

	for {
		receipt, err := c.submitter.SubmitIntent(ctx, intent)
		switch errors.CodeOf(err) {
		case "":
			c.logger.InfoContext(ctx, "Intent accepted",
				logger.NewField("offset", m.Offset),
				logger.NewField("order_id", receipt.OrderID),
				logger.NewField("actions", len(receipt.Actions)),
			)
			return nil
		case errors.MailboxFullError:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryInterval):
			}
		case errors.ComponentStoppedError:
			return err
		default:
			c.logger.InfoContext(ctx, "Intent rejected",
				logger.NewField("offset", m.Offset),
				logger.NewField("code", errors.CodeOf(err)),
				logger.NewField("error", err.Error()),
			)
			return nil
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, err, logger.NewField("action", "commit_intent"), logger.NewField("offset", msg.Offset))
	}
}
