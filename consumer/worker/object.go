package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/infra/produce"
	amqp "github.com/rabbitmq/amqp091-go"
)

const maxPurgeAttempts = 3

// Channel is the part of *amqp.Channel the consumers use.
type Channel interface {
	produce.Channel
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// ObjectPurgeConsumer retries object deletes that failed inline after their
// asset rows were already removed.
type ObjectPurgeConsumer struct {
	channel Channel
	store   infra.ObjectStore
	logger  *infra.LoggerClient
	// backoff returns the pause after a failed attempt.
	backoff func(attempt int) time.Duration
}

func NewObjectPurgeConsumer(channel Channel, store infra.ObjectStore, logger *infra.LoggerClient) *ObjectPurgeConsumer {
	return &ObjectPurgeConsumer{
		channel: channel,
		store:   store,
		logger:  logger,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 2 * time.Second
		},
	}
}

func (c *ObjectPurgeConsumer) Start(ctx context.Context) error {
	if c.store == nil {
		return errors.New("object storage is not configured")
	}
	if err := produce.DeclareObjectPurgeTopology(c.channel); err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		produce.ObjectPurgeQueue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register object purge consumer: %w", err)
	}

	c.logger.InfoWithContextf(ctx, "[Purge Consumer] Started listening for purge jobs on queue: %s", produce.ObjectPurgeQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.InfoWithContextf(ctx, "[Purge Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.WarningWithContextf(ctx, "[Purge Consumer] Channel closed")
					return
				}
				c.handlePurge(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *ObjectPurgeConsumer) handlePurge(ctx context.Context, msg amqp.Delivery) {
	var payload produce.ObjectPurgeMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil || payload.StorageKey == "" {
		c.logger.ErrorWithContextf(ctx, err, "[Purge Consumer] Dropping malformed message: %s", string(msg.Body))
		_ = msg.Nack(false, false)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= maxPurgeAttempts; attempt++ {
		lastErr = c.store.DeleteObject(ctx, payload.StorageKey)
		if lastErr == nil || errors.Is(lastErr, infra.ErrObjectNotFound) {
			c.logger.InfoWithContextf(ctx, "[Purge Consumer] Deleted object '%s' (%s)", payload.StorageKey, payload.Reason)
			_ = msg.Ack(false)
			return
		}

		c.logger.WarningWithContextf(ctx, "[Purge Consumer] Attempt %d/%d for '%s' failed: %v", attempt, maxPurgeAttempts, payload.StorageKey, lastErr)

		if attempt < maxPurgeAttempts {
			select {
			case <-ctx.Done():
				_ = msg.Nack(false, true)
				return
			case <-time.After(c.backoff(attempt)):
			}
		}
	}

	c.logger.ErrorWithContextf(ctx, lastErr, "[Purge Consumer] Failed after %d attempts, requeueing '%s'", maxPurgeAttempts, payload.StorageKey)
	_ = msg.Nack(false, true)
}
