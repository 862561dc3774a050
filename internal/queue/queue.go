package queue

import "context"

// Publisher publishes incoming notification events to the intake queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg EventMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg EventMessage) error

// Consumer consumes notification events from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

const (
	// IntakeQueue is the single work queue feeding the intake worker pool.
	IntakeQueue = "intake.events"
	// IntakeDLQ receives events rejected as unparseable or invalid.
	IntakeDLQ = "dlq.intake.events"

	intakeRoutingKey = "intake"
)
