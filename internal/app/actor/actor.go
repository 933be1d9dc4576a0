package actor

import (
	"context"
	"fmt"
	"sync"

	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
)

// DefaultMailboxSize is used when an actor is created with a non-positive size.
const DefaultMailboxSize = 1024

// Actor runs messages one at a time on its own goroutine. Priority messages
// go first; otherwise messages run in arrival order.
// State touched only from inside messages needs no further synchronisation.
type Actor struct {
	name    string
	logger  *logger.Logger
	mailbox chan *call

	// priority is unbuffered: a message on it is either taken by the loop
	// or never sent, so it needs no drain.
	priority chan *call
	quit     chan struct{}
	quitOnce sync.Once

	// mu orders sends against Stop so that nothing is enqueued after the
	// final drain.
	mu      sync.RWMutex
	running bool
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type call struct {
	ctx   context.Context
	fn    func(ctx context.Context) (any, error)
	Reply any
	Error error
	Done  chan *call
}

func (c *call) done() {
	select {
	case c.Done <- c:
	default:
		// Done has room for exactly one reply
	}
}

// New creates an actor with a bounded mailbox. It accepts no messages until Start.
func New(name string, mailboxSize int, log *logger.Logger) *Actor {
	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}
	return &Actor{
		name:    name,
		logger:  log.WithFields(logger.NewField("component", name)),
		mailbox:  make(chan *call, mailboxSize),
		priority: make(chan *call),
		quit:     make(chan struct{}),
	}
}

// Name returns the name the actor logs under.
func (a *Actor) Name() string {
	return a.name
}

// Start launches the message loop. The loop ends when ctx is canceled or Stop is called.
func (a *Actor) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return errStopped(a.name)
	}
	if a.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true

	a.wg.Add(1)
	go a.run(loopCtx)

	a.logger.Debug("actor started")
	return nil
}

// Stop refuses new messages, fails the ones still queued and waits for the
// loop to exit or ctx to expire.
func (a *Actor) Stop(ctx context.Context) error {
	a.mu.Lock()
	wasRunning := a.running
	a.stopped = true
	a.running = false
	a.mu.Unlock()
	a.closeQuit()

	if !wasRunning {
		a.drain()
		return nil
	}
	a.cancel()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Debug("actor stopped")
		return nil
	case <-ctx.Done():
		a.logger.Warn("actor stop timeout exceeded")
		return ctx.Err()
	}
}

func (a *Actor) run(ctx context.Context) {
	defer a.wg.Done()
	defer a.drain()
	defer a.halt()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-a.priority:
			a.handle(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case c := <-a.priority:
			a.handle(c)
		case c := <-a.mailbox:
			a.handle(c)
		}
	}
}

// halt marks the actor as no longer accepting messages.
func (a *Actor) halt() {
	a.mu.Lock()
	a.running = false
	a.stopped = true
	a.mu.Unlock()
	a.closeQuit()
}

func (a *Actor) closeQuit() {
	a.quitOnce.Do(func() {
		close(a.quit)
	})
}

// drain fails every queued message. Callers hold no lock; after stopped is
// set no new message can be enqueued.
func (a *Actor) drain() {
	for {
		select {
		case c := <-a.mailbox:
			c.Error = errStopped(a.name)
			c.done()
		default:
			return
		}
	}
}

func (a *Actor) handle(c *call) {
	defer c.done()

	// the caller gave up before its turn came
	if err := c.ctx.Err(); err != nil {
		c.Error = err
		return
	}

	defer func() {
		if r := recover(); r != nil {
			err := errors.NewTracer(fmt.Sprintf("%s: message panicked", a.name)).Wrap(fmt.Errorf("%v", r))
			a.logger.ErrorContext(c.ctx, err)
			c.Reply = nil
			c.Error = errors.New(errors.GeneralInternalServerError, err.Error(), "")
		}
	}()

	c.Reply, c.Error = c.fn(c.ctx)
}

func (a *Actor) send(c *call) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.running {
		return errStopped(a.name)
	}

	select {
	case a.mailbox <- c:
		return nil
	default:
		return errors.NewWithObject(errors.MailboxFullError,
			fmt.Sprintf("%s mailbox is full", a.name), "", cap(a.mailbox))
	}
}

// sendPriority waits for the loop to take c instead of failing on a full
// mailbox. The lock is not held while waiting so Stop is never blocked by it.
func (a *Actor) sendPriority(c *call) error {
	a.mu.RLock()
	running := a.running
	a.mu.RUnlock()

	if !running {
		return errStopped(a.name)
	}

	select {
	case a.priority <- c:
		return nil
	case <-a.quit:
		return errStopped(a.name)
	}
}

// Ask runs fn on a's goroutine and waits for its result or for ctx to end.
// A full mailbox is reported at once instead of blocking the caller.
func Ask[T any](ctx context.Context, a *Actor, fn func(ctx context.Context) (T, error)) (T, error) {
	return ask(ctx, a, a.send, fn)
}

// AskPriority is Ask for messages that must not be refused while a runs,
// such as the settlement of an intent the book already committed to. It
// waits for a to take the message and is served before the mailbox.
func AskPriority[T any](ctx context.Context, a *Actor, fn func(ctx context.Context) (T, error)) (T, error) {
	return ask(ctx, a, a.sendPriority, fn)
}

func ask[T any](ctx context.Context, a *Actor, send func(*call) error, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	c := &call{
		ctx: ctx,
		fn: func(ctx context.Context) (any, error) {
			return fn(ctx)
		},
		Done: make(chan *call, 1),
	}

	if err := send(c); err != nil {
		return zero, err
	}

	select {
	case result := <-c.Done:
		if result.Error != nil {
			return zero, result.Error
		}
		reply, _ := result.Reply.(T)
		return reply, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Do is Ask for messages without a result.
func Do(ctx context.Context, a *Actor, fn func(ctx context.Context) error) error {
	_, err := Ask(ctx, a, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoPriority is AskPriority for messages without a result.
func DoPriority(ctx context.Context, a *Actor, fn func(ctx context.Context) error) error {
	_, err := AskPriority(ctx, a, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func errStopped(name string) error {
	return errors.New(errors.ComponentStoppedError, fmt.Sprintf("%s is not running", name), "")
}
