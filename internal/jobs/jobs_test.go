package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int64
}

func (s *countingSweeper) ClearExpiredRefreshTokens(ctx context.Context) (int64, error) {
	s.calls.Add(1)
	return 3, nil
}

func TestConsumerRunsTokenSweep(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	const stream = "auth:maintenance"
	_, err := client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"type": taskTokenSweep},
	}).Result()
	require.NoError(t, err)

	sweeper := &countingSweeper{}
	consumer := NewConsumer(client, stream, sweeper, zerolog.Nop())
	consumer.Start()
	t.Cleanup(consumer.Stop)

	require.Eventually(t, func() bool {
		return sweeper.calls.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestConsumerIgnoresUnknownTasks(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	const stream = "auth:maintenance"
	ctx := context.Background()
	for _, values := range []map[string]any{
		{"type": "defragment"},
		{"type": taskTokenSweep},
	} {
		_, err := client.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: values}).Result()
		require.NoError(t, err)
	}

	sweeper := &countingSweeper{}
	consumer := NewConsumer(client, stream, sweeper, zerolog.Nop())
	consumer.Start()
	t.Cleanup(consumer.Stop)

	require.Eventually(t, func() bool {
		return sweeper.calls.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSchedulerEnqueuesTokenSweep(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	const stream = "auth:maintenance"
	scheduler := NewScheduler(client, stream, zerolog.Nop())

	scheduler.enqueueTokenSweep()

	messages, err := client.XRange(context.Background(), stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, taskTokenSweep, messages[0].Values["type"])
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	scheduler := NewScheduler(client, "auth:maintenance", zerolog.Nop())
	assert.Error(t, scheduler.Start("not a cron expression"))
}
