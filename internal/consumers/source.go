package consumers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/nats-io/nats.go"
	"github.com/spacesedan/mindtrack/internal/clients/kafka_client"
)

// ErrSourceClosed ends the archiver loop.
var ErrSourceClosed = errors.New("event source closed")

// Delivery is one message from a Source. Commit acknowledges it once its
// content is stored.
type Delivery struct {
	Value  []byte
	Commit func() error
}

// Source yields deliveries. Next returns a nil delivery when nothing arrived
// within its poll window.
type Source interface {
	Next(ctx context.Context) (*Delivery, error)
	Close() error
}

type KafkaSource struct {
	consumer  *kafka.Consumer
	iterator  *kafka_client.KafkaMessageIterator
	committer *kafka_client.KafkaCommitHandler
}

func NewKafkaSource(ctx context.Context, cfg kafka_client.KafkaConfig) (*KafkaSource, error) {
	c, err := kafka_client.NewConsumer(cfg)
	if err != nil {
		return nil, err
	}
	return &KafkaSource{
		consumer:  c,
		iterator:  kafka_client.NewKafkaMessageIterator(ctx, c),
		committer: kafka_client.NewCommitHandler(ctx, c),
	}, nil
}

func (s *KafkaSource) Next(context.Context) (*Delivery, error) {
	msg, err := s.iterator.Next()
	if err != nil {
		var kafkaErr kafka.Error
		if errors.As(err, &kafkaErr) && kafkaErr.Code() == kafka.ErrAllBrokersDown {
			return nil, fmt.Errorf("%w: %v", ErrSourceClosed, err)
		}
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	return &Delivery{
		Value:  msg.Value,
		Commit: func() error { return s.committer.Commit(msg) },
	}, nil
}

func (s *KafkaSource) Close() error {
	return s.consumer.Close()
}

const natsPollTimeout = time.Second

// NATSSource reads a core NATS queue subscription. Core NATS has no
// acknowledgements, so Commit is a no-op.
type NATSSource struct {
	sub  *nats.Subscription
	msgs chan *nats.Msg
}

func NewNATSSource(conn *nats.Conn, subject, queue string) (*NATSSource, error) {
	msgs := make(chan *nats.Msg, 256)
	sub, err := conn.ChanQueueSubscribe(subject, queue, msgs)
	if err != nil {
		return nil, fmt.Errorf("[NATSSource] subscribe %s: %w", subject, err)
	}
	return &NATSSource{sub: sub, msgs: msgs}, nil
}

func (s *NATSSource) Next(ctx context.Context) (*Delivery, error) {
	timer := time.NewTimer(natsPollTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-s.msgs:
		if !ok {
			return nil, ErrSourceClosed
		}
		return &Delivery{Value: msg.Data, Commit: func() error { return nil }}, nil
	case <-timer.C:
		return nil, nil
	}
}

func (s *NATSSource) Close() error {
	return s.sub.Unsubscribe()
}
