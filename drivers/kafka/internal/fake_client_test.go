package driver

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"

	"github.com/datazip-inc/olake-kafka/pkg/kafka"
)

// fakeClient serves queued messages in order and records how it was driven
type fakeClient struct {
	metadata   kafka.Metadata
	watermarks kafka.Offsets
	messages   []*sarama.ConsumerMessage
	// started overrides the offsets Assign reports consumption starts at
	started kafka.Offsets
	// pollErr is returned once messages are drained
	pollErr error
	// onDrained runs when messages are drained; Poll then blocks until ctx is done
	onDrained func()

	polls    int
	assigned kafka.Offsets
	closed   bool
}

func (f *fakeClient) Metadata() (kafka.Metadata, error) {
	return f.metadata, nil
}

func (f *fakeClient) HighWatermarks(_ context.Context, metadata kafka.Metadata) (kafka.Offsets, error) {
	watermarks := kafka.Offsets{}
	for topic, partitions := range metadata {
		watermarks[topic] = map[int32]int64{}
		for _, partition := range partitions {
			watermarks[topic][partition] = f.watermarks[topic][partition]
		}
	}
	return watermarks, nil
}

func (f *fakeClient) Assign(offsets kafka.Offsets) (kafka.Offsets, error) {
	f.assigned = offsets
	if f.started != nil {
		return f.started, nil
	}
	return offsets, nil
}

func (f *fakeClient) Poll(ctx context.Context) (*sarama.ConsumerMessage, error) {
	f.polls++
	if len(f.messages) > 0 {
		msg := f.messages[0]
		f.messages = f.messages[1:]
		return msg, nil
	}

	if f.pollErr != nil {
		return nil, f.pollErr
	}

	if f.onDrained != nil {
		f.onDrained()
		<-ctx.Done()
		return nil, ctx.Err()
	}

	return nil, errors.New("poll on drained partitions")
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func message(topic string, partition int32, offset int64, value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic:     topic,
		Partition: partition,
		Offset:    offset,
		Value:     []byte(value),
		Timestamp: time.UnixMilli(1000 + offset),
	}
}
