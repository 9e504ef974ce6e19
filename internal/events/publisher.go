package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// CatalogUpdated announces that collection changed; empty means all.
func (p *Publisher) CatalogUpdated(ctx context.Context, collection string) error {
	b, err := json.Marshal(CatalogUpdated{Collection: collection})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(collection), Value: b})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
