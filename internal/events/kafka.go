package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/spacesedan/mindtrack/internal/clients/kafka_client"
	"github.com/spacesedan/mindtrack/internal/models"
)

type KafkaPublisher struct {
	producer *kafka_client.Producer
}

func NewKafkaPublisher(cfg kafka_client.KafkaConfig) (*KafkaPublisher, error) {
	p, err := kafka_client.NewProducer(cfg)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{producer: p}, nil
}

func (p *KafkaPublisher) Driver() string { return "kafka" }

// Publish keys the message by analysis id so every version of an entry
// lands on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event models.AnalysisEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.producer.Produce(ctx, event.Entry.ID, data); err != nil {
		return err
	}

	slog.Debug("[KafkaPublisher] Published analysis event",
		slog.String("topic", p.producer.Topic()),
		slog.String("analysis_id", event.Entry.ID))
	return nil
}

func (p *KafkaPublisher) Close() {
	p.producer.Close()
}
