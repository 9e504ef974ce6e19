package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Invalidator drops cached collection state; an empty name means every collection.
type Invalidator interface {
	Invalidate(ctx context.Context, name string) error
}

// CatalogUpdated is published whenever products of a collection change.
type CatalogUpdated struct {
	Collection string `json:"collection"`
}

type Consumer struct {
	reader *kafka.Reader
	target Invalidator
	log    *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, target Invalidator, log *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
		MaxWait:  time.Second,
	})
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{reader: reader, target: target, log: log}
}

// Run reads until ctx is done. Undecodable messages are logged and skipped.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("read message failed", zap.Error(err))
			continue
		}

		if err := Handle(ctx, c.target, msg.Key, msg.Value); err != nil {
			c.log.Warn("handle message failed",
				zap.Error(err),
				zap.Int64("offset", msg.Offset),
				zap.Int("partition", msg.Partition),
			)
			continue
		}
		c.log.Info("collection invalidated", zap.ByteString("key", msg.Key), zap.Int64("offset", msg.Offset))
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Handle applies one message. The payload names the collection; a bare key
// is accepted when the payload is empty.
func Handle(ctx context.Context, target Invalidator, key, value []byte) error {
	var ev CatalogUpdated
	if len(value) > 0 {
		if err := json.Unmarshal(value, &ev); err != nil {
			return fmt.Errorf("decode catalog event: %w", err)
		}
	} else {
		ev.Collection = string(key)
	}
	return target.Invalidate(ctx, ev.Collection)
}
