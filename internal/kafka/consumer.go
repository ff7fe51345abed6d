package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, event Event) error

type Consumer struct {
	reader *kafka.Reader
	log    *zap.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log: log.With(zap.String("component", "kafka_consumer"), zap.String("topic", topic)),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume feeds every event to handler until ctx is cancelled. Messages are
// committed after handling; undecodable messages and handler failures are
// logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		c.handle(ctx, msg, handler)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler Handler) {
	event, err := DecodeEvent(msg)
	if err != nil {
		c.log.Warn("skip message", zap.Int64("offset", msg.Offset), zap.Error(err))
		return
	}
	if err := handler(ctx, event); err != nil {
		c.log.Error("handle event failed",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.Error(err))
	}
}

// Chain runs every handler for each event, even after one fails, and joins
// their errors.
func Chain(handlers ...Handler) Handler {
	return func(ctx context.Context, event Event) error {
		var errs []error
		for _, h := range handlers {
			if err := h(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
