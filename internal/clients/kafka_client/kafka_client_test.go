package kafka_client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReader struct {
	results []readResult
	calls   int
}

type readResult struct {
	msg *kafka.Message
	err error
}

func (r *scriptedReader) ReadMessage(time.Duration) (*kafka.Message, error) {
	res := r.results[min(r.calls, len(r.results)-1)]
	r.calls++
	return res.msg, res.err
}

func TestIteratorRetriesTransientErrors(t *testing.T) {
	want := &kafka.Message{Value: []byte("payload")}
	reader := &scriptedReader{results: []readResult{
		{err: errors.New("transport hiccup")},
		{msg: want},
	}}
	it := NewKafkaMessageIterator(context.Background(), reader)
	it.retryDelay = 0

	msg, err := it.Next()
	require.NoError(t, err)
	assert.Same(t, want, msg)
	assert.Equal(t, 2, reader.calls)
}

func TestIteratorTimeoutReturnsNoMessage(t *testing.T) {
	reader := &scriptedReader{results: []readResult{{err: kafka.NewError(kafka.ErrTimedOut, "timed out", false)}}}
	it := NewKafkaMessageIterator(context.Background(), reader)

	msg, err := it.Next()
	assert.NoError(t, err)
	assert.Nil(t, msg)
	assert.Equal(t, 1, reader.calls)
}

func TestIteratorAbortsWhenBrokersDown(t *testing.T) {
	reader := &scriptedReader{results: []readResult{{err: kafka.NewError(kafka.ErrAllBrokersDown, "down", false)}}}
	it := NewKafkaMessageIterator(context.Background(), reader)

	_, err := it.Next()
	assert.Error(t, err)
	assert.Equal(t, 1, reader.calls)
}

func TestIteratorGivesUpAfterRetries(t *testing.T) {
	reader := &scriptedReader{results: []readResult{{err: errors.New("still failing")}}}
	it := NewKafkaMessageIterator(context.Background(), reader)
	it.retryDelay = 0

	_, err := it.Next()
	assert.Error(t, err)
	assert.Equal(t, MAX_RETRIES, reader.calls)
}

func TestIteratorStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKafkaMessageIterator(ctx, &scriptedReader{}).Next()
	assert.ErrorIs(t, err, context.Canceled)
}

type flakyCommitter struct {
	failures int
	calls    int
}

func (c *flakyCommitter) CommitMessage(*kafka.Message) ([]kafka.TopicPartition, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("coordinator moved")
	}
	return nil, nil
}

func TestCommitHandlerRetries(t *testing.T) {
	committer := &flakyCommitter{failures: 2}
	ch := NewCommitHandler(context.Background(), committer)
	ch.retryDelay = 0

	require.NoError(t, ch.Commit(&kafka.Message{}))
	assert.Equal(t, 3, committer.calls)
}

func TestCommitHandlerGivesUp(t *testing.T) {
	committer := &flakyCommitter{failures: 100}
	ch := NewCommitHandler(context.Background(), committer)
	ch.retryDelay = 0

	assert.Error(t, ch.Commit(&kafka.Message{}))
	assert.Equal(t, MAX_RETRIES, committer.calls)
}

func TestConfigDefaults(t *testing.T) {
	cfg := KafkaConfig{GroupID: "archiver"}
	assert.Equal(t, DEFAULT_KAFKA_URL, cfg.broker())
	assert.Equal(t, KAFKA_TOPIC_ANALYSIS_RESULTS, cfg.topic())

	v, err := cfg.consumerConfig().Get("enable.auto.commit", true)
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = cfg.producerConfig().Get("acks", "")
	require.NoError(t, err)
	assert.Equal(t, "all", v)
}
