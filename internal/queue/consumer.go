package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQConsumer pulls intake events off the broker and feeds them to a
// handler. Unparseable or invalid payloads dead-letter immediately; a handler
// failure gets one redelivery before the event dead-letters too, since a
// second failure for the same event is rarely transient.
type RabbitMQConsumer struct {
	client   *RabbitMQ
	prefetch int
	logger   *zap.Logger
}

func NewRabbitMQConsumer(client *RabbitMQ, prefetch int, logger *zap.Logger) *RabbitMQConsumer {
	if prefetch < 1 {
		prefetch = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RabbitMQConsumer{
		client:   client,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Consume blocks until context cancellation, reconnecting with exponential
// backoff whenever the broker session drops.
func (c *RabbitMQConsumer) Consume(ctx context.Context, queue string, handler MessageHandler) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if queue == "" {
		return fmt.Errorf("queue name is required")
	}
	if handler == nil {
		return fmt.Errorf("message handler is required")
	}

	backoff := reconnectBackoff
	for {
		err := c.drainSession(ctx, queue, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = reconnectBackoff
			continue
		}

		c.logger.Warn("intake consumer session ended",
			zap.String("queue", queue),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

// drainSession owns one channel for its lifetime and processes deliveries
// until the channel dies or the context is canceled.
func (c *RabbitMQConsumer) drainSession(ctx context.Context, queue string, handler MessageHandler) error {
	ch, err := c.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close() //nolint:errcheck // best-effort channel close

	// Prefetch bounds in-flight events to the worker pool size.
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %q: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			if err := c.handleDelivery(ctx, d, handler); err != nil {
				return err
			}
		}
	}
}

func (c *RabbitMQConsumer) handleDelivery(ctx context.Context, d amqp.Delivery, handler MessageHandler) error {
	msg, err := decodeEvent(d.Body)
	if err != nil {
		c.logger.Warn("dead-lettering undeliverable event",
			zap.String("routingKey", d.RoutingKey),
			zap.Error(err),
		)
		if rejectErr := d.Reject(false); rejectErr != nil {
			return fmt.Errorf("failed to reject invalid event: %w", rejectErr)
		}
		return nil
	}

	if err := handler(ctx, msg); err != nil {
		// First failure requeues for one more attempt; a redelivered event
		// that fails again goes to the DLQ instead of looping forever.
		requeue := !d.Redelivered
		c.logger.Warn("intake handler failed",
			zap.String("eventId", msg.EventID),
			zap.String("packageName", msg.PackageName),
			zap.Bool("requeue", requeue),
			zap.Error(err),
		)
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			return fmt.Errorf("handler failed and nack failed: %w", nackErr)
		}
		return nil
	}

	if err := d.Ack(false); err != nil {
		return fmt.Errorf("failed to ack delivery: %w", err)
	}

	return nil
}

// decodeEvent parses and validates a broker payload. Failures here are
// permanent: redelivering bad bytes cannot fix them.
func decodeEvent(body []byte) (EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return EventMessage{}, fmt.Errorf("invalid event payload: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return EventMessage{}, fmt.Errorf("event failed validation: %w", err)
	}
	return msg, nil
}

func (c *RabbitMQConsumer) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
