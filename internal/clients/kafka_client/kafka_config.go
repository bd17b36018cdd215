package kafka_client

import "github.com/confluentinc/confluent-kafka-go/kafka"

type KafkaConfig struct {
	Broker  string
	GroupID string
	Topic   string
}

func (c KafkaConfig) broker() string {
	if c.Broker == "" {
		return DEFAULT_KAFKA_URL
	}
	return c.Broker
}

func (c KafkaConfig) topic() string {
	if c.Topic == "" {
		return KAFKA_TOPIC_ANALYSIS_RESULTS
	}
	return c.Topic
}

func (c KafkaConfig) producerConfig() *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers":                     c.broker(),
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
	}
}

func (c KafkaConfig) consumerConfig() *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers":  c.broker(),
		"group.id":           c.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
	}
}
