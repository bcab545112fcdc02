package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TokenSweeper clears refresh tokens whose recorded expiry has passed.
type TokenSweeper interface {
	ClearExpiredRefreshTokens(ctx context.Context) (int64, error)
}

// Consumer drains the maintenance stream and dispatches tasks.
type Consumer struct {
	queue   *redis.Client
	stream  string
	sweeper TokenSweeper
	log     zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumer(queue *redis.Client, stream string, sweeper TokenSweeper, log zerolog.Logger) *Consumer {
	return &Consumer{
		queue:   queue,
		stream:  stream,
		sweeper: sweeper,
		log:     log,
	}
}

func (c *Consumer) Start() {
	if c.queue == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *Consumer) run(ctx context.Context) {
	// Start from the beginning so tasks enqueued while the process was
	// down are still handled.
	lastID := "0"
	for {
		streams, err := c.queue.XRead(ctx, &redis.XReadArgs{
			Streams: []string{c.stream, lastID},
			Count:   10,
			Block:   5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				c.log.Error().Err(err).Msg("read maintenance stream failed")
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				lastID = message.ID
				c.handle(ctx, message)
			}
		}
	}
}

func (c *Consumer) handle(ctx context.Context, message redis.XMessage) {
	taskType, _ := message.Values["type"].(string)

	switch taskType {
	case taskTokenSweep:
		cleared, err := c.sweeper.ClearExpiredRefreshTokens(ctx)
		if err != nil {
			c.log.Error().Err(err).Msg("token sweep failed")
			return
		}
		c.log.Info().Int64("cleared", cleared).Msg("expired refresh tokens swept")
	default:
		c.log.Warn().Str("type", taskType).Str("id", message.ID).Msg("unknown maintenance task")
	}
}
