package actor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/muhammadchandra19/matcha/pkg/errors"
	"github.com/muhammadchandra19/matcha/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startActor(t *testing.T, size int) *Actor {
	t.Helper()
	a := New("test", size, logger.NewNop())
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() {
		_ = a.Stop(context.Background())
	})
	return a
}

func TestActor_SequentialProcessing(t *testing.T) {
	a := startActor(t, 0)
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := Do(context.Background(), a, func(ctx context.Context) error {
				counter++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := Ask(context.Background(), a, func(ctx context.Context) (int, error) {
		return counter, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 100, got)
}

func TestActor_ReturnsErrors(t *testing.T) {
	a := startActor(t, 4)

	_, err := Ask(context.Background(), a, func(ctx context.Context) (string, error) {
		return "", errors.New(errors.AccountNotFoundError, "account 1 not found", "account")
	})
	assert.True(t, errors.ErrorCodeEquals(err, string(errors.AccountNotFoundError)))
}

func TestActor_MailboxFull(t *testing.T) {
	a := startActor(t, 1)
	busy := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = Do(context.Background(), a, func(ctx context.Context) error {
			close(busy)
			<-release
			return nil
		})
	}()
	<-busy

	go func() {
		_ = Do(context.Background(), a, func(ctx context.Context) error { return nil })
	}()
	require.Eventually(t, func() bool { return len(a.mailbox) == 1 }, time.Second, time.Millisecond)

	err := Do(context.Background(), a, func(ctx context.Context) error { return nil })
	assert.True(t, errors.ErrorCodeEquals(err, string(errors.MailboxFullError)))

	close(release)
}

func TestActor_PriorityIsNotRefused(t *testing.T) {
	a := startActor(t, 1)
	busy := make(chan struct{})
	release := make(chan struct{})
	var order []string
	var mu sync.Mutex
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, name)
	}

	go func() {
		_ = Do(context.Background(), a, func(ctx context.Context) error {
			close(busy)
			<-release
			return nil
		})
	}()
	<-busy

	queued := make(chan error, 1)
	go func() {
		queued <- Do(context.Background(), a, func(ctx context.Context) error {
			record("queued")
			return nil
		})
	}()
	require.Eventually(t, func() bool { return len(a.mailbox) == 1 }, time.Second, time.Millisecond)

	err := Do(context.Background(), a, func(ctx context.Context) error { return nil })
	require.True(t, errors.ErrorCodeEquals(err, string(errors.MailboxFullError)))

	settled := make(chan error, 1)
	go func() {
		settled <- DoPriority(context.Background(), a, func(ctx context.Context) error {
			record("priority")
			return nil
		})
	}()

	// the priority sender waits for the loop instead of failing
	select {
	case err := <-settled:
		t.Fatalf("priority call returned before the loop was free: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-settled)
	require.NoError(t, <-queued)
	assert.Equal(t, []string{"priority", "queued"}, order)
}

func TestActor_PriorityAfterStop(t *testing.T) {
	a := New("ledger", 1, logger.NewNop())

	err := DoPriority(context.Background(), a, func(ctx context.Context) error { return nil })
	assert.True(t, errors.ErrorCodeEquals(err, string(errors.ComponentStoppedError)))

	require.NoError(t, a.Start(context.Background()))
	got, err := AskPriority(context.Background(), a, func(ctx context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	require.NoError(t, a.Stop(context.Background()))
	err = DoPriority(context.Background(), a, func(ctx context.Context) error { return nil })
	assert.True(t, errors.ErrorCodeEquals(err, string(errors.ComponentStoppedError)))
}

func TestActor_RecoversPanics(t *testing.T) {
	a := startActor(t, 4)

	err := Do(context.Background(), a, func(ctx context.Context) error {
		panic("boom")
	})
	assert.True(t, errors.ErrorCodeEquals(err, string(errors.GeneralInternalServerError)))
	assert.Contains(t, err.Error(), "boom")

	// the loop survives
	got, err := Ask(context.Background(), a, func(ctx context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestActor_CallerContext(t *testing.T) {
	a := startActor(t, 4)
	release := make(chan struct{})
	defer close(release)

	go func() {
		_ = Do(context.Background(), a, func(ctx context.Context) error {
			<-release
			return nil
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	err := Do(ctx, a, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)
}

func TestActor_Lifecycle(t *testing.T) {
	a := New("ledger", 4, logger.NewNop())

	t.Run("Not started", func(t *testing.T) {
		err := Do(context.Background(), a, func(ctx context.Context) error { return nil })
		assert.True(t, errors.ErrorCodeEquals(err, string(errors.ComponentStoppedError)))
	})

	t.Run("Started", func(t *testing.T) {
		require.NoError(t, a.Start(context.Background()))
		require.NoError(t, a.Start(context.Background()))
		assert.NoError(t, Do(context.Background(), a, func(ctx context.Context) error { return nil }))
	})

	t.Run("Stopped", func(t *testing.T) {
		require.NoError(t, a.Stop(context.Background()))
		err := Do(context.Background(), a, func(ctx context.Context) error { return nil })
		assert.True(t, errors.ErrorCodeEquals(err, string(errors.ComponentStoppedError)))
		assert.Error(t, a.Start(context.Background()))
	})

	assert.Equal(t, "ledger", a.Name())
}

func TestActor_ParentContextCanceled(t *testing.T) {
	a := New("matcher", 4, logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))

	cancel()

	require.Eventually(t, func() bool {
		err := Do(context.Background(), a, func(ctx context.Context) error { return nil })
		return errors.ErrorCodeEquals(err, string(errors.ComponentStoppedError))
	}, time.Second, time.Millisecond)
}
