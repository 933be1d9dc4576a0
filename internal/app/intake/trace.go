package intake

import (
	"context"
	"fmt"
	"time"

	exchangev1 "github.com/muhammadchandra19/matcha/internal/domain/exchange/v1"
	"github.com/muhammadchandra19/matcha/pkg/logger"
)

// trace follows one intent through the intake state machine.
type trace struct {
	ctx     context.Context
	logger  *logger.Logger
	pair    string
	start   time.Time
	intent  exchangev1.Intent
	state   exchangev1.IntentState
	orderID uint64
}

func (p *Pipeline) trace(ctx context.Context, intent exchangev1.Intent) *trace {
	t := &trace{
		ctx:    ctx,
		logger: p.logger,
		pair:   p.pair,
		start:  time.Now(),
		intent: intent,
		state:  exchangev1.StateReceived,
	}
	t.logger.DebugContext(ctx, "intent received",
		logger.NewField("intent", fmt.Sprintf("%T", intent)),
		logger.NewField("account", intent.Owner()),
	)
	return t
}

func (t *trace) to(state exchangev1.IntentState, fields ...logger.Field) {
	from := t.state
	t.state = state
	t.logger.DebugContext(t.ctx, "intent transition", append(fields,
		logger.NewField("from", string(from)),
		logger.NewField("to", string(state)),
		logger.NewField("account", t.intent.Owner()),
		logger.NewField("order_id", t.orderID),
	)...)

	if state == exchangev1.StateAccepted || state == exchangev1.StateRejected {
		t.observe(state)
	}
}

// reject moves the intent through failed to Rejected and returns err.
func (t *trace) reject(failed exchangev1.IntentState, err error) (exchangev1.Receipt, error) {
	if t.state != failed {
		t.to(failed)
	}
	t.to(exchangev1.StateRejected, logger.NewField("reason", err.Error()))
	return exchangev1.Receipt{}, err
}
