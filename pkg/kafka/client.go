// Package kafka wraps the sarama client used by the connector: topic metadata,
// high watermarks and manually assigned partition consumers fanned into a
// single poll channel.
package kafka

import (
	"context"
	"errors"
	"sync"

	"github.com/IBM/sarama"
	"golang.org/x/sync/errgroup"

	"github.com/datazip-inc/olake-kafka/constants"
	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/utils"
)

// Metadata maps a topic to its partitions
type Metadata map[string][]int32

// Offsets maps a topic to partition offsets
type Offsets map[string]map[int32]int64

// Client is the slice of broker functionality the read loop depends on
type Client interface {
	// Metadata returns every topic known to the cluster with its partitions
	Metadata() (Metadata, error)
	// HighWatermarks returns the next offset to be produced for every passed partition
	HighWatermarks(ctx context.Context, metadata Metadata) (Offsets, error)
	// Assign starts consuming every passed partition at its offset and returns
	// the offsets consumption actually starts at
	Assign(offsets Offsets) (Offsets, error)
	// Poll blocks until a message, a broker error or the context is done
	Poll(ctx context.Context) (*sarama.ConsumerMessage, error)
	Close() error
}

type SaramaClient struct {
	client   sarama.Client
	consumer sarama.Consumer

	partitions []sarama.PartitionConsumer
	messages   chan *sarama.ConsumerMessage
	errors     chan *sarama.ConsumerError
	stopper    chan struct{}

	wg   sync.WaitGroup
	once sync.Once
}

func NewClient(brokers []string, config *sarama.Config) (*SaramaClient, error) {
	client, err := sarama.NewClient(brokers, config)
	if err != nil {
		return nil, utils.BrokerError.Wrap(err, "failed to connect to brokers %v", brokers)
	}

	return &SaramaClient{
		client:   client,
		messages: make(chan *sarama.ConsumerMessage, config.ChannelBufferSize),
		errors:   make(chan *sarama.ConsumerError, config.ChannelBufferSize),
		stopper:  make(chan struct{}),
	}, nil
}

func (c *SaramaClient) Metadata() (Metadata, error) {
	if err := c.client.RefreshMetadata(); err != nil {
		return nil, utils.BrokerError.Wrap(err, "failed to refresh metadata")
	}

	topics, err := c.client.Topics()
	if err != nil {
		return nil, utils.BrokerError.Wrap(err, "failed to list topics")
	}

	metadata := make(Metadata, len(topics))
	for _, topic := range topics {
		partitions, err := c.client.Partitions(topic)
		if err != nil {
			return nil, utils.BrokerError.Wrap(err, "failed to list partitions of topic[%s]", topic)
		}
		metadata[topic] = partitions
	}

	return metadata, nil
}

func (c *SaramaClient) HighWatermarks(ctx context.Context, metadata Metadata) (Offsets, error) {
	var mu sync.Mutex
	watermarks := make(Offsets, len(metadata))
	for topic := range metadata {
		watermarks[topic] = make(map[int32]int64, len(metadata[topic]))
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(constants.DefaultWatermarkConcurrency)
	for topic, partitions := range metadata {
		for _, partition := range partitions {
			group.Go(func() error {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				watermark, err := c.client.GetOffset(topic, partition, sarama.OffsetNewest)
				if err != nil {
					return utils.BrokerError.Wrap(err, "failed to fetch high watermark of %s[%d]", topic, partition)
				}

				mu.Lock()
				watermarks[topic][partition] = watermark
				mu.Unlock()
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return watermarks, nil
}

func (c *SaramaClient) Assign(offsets Offsets) (Offsets, error) {
	consumer, err := sarama.NewConsumerFromClient(c.client)
	if err != nil {
		return nil, utils.BrokerError.Wrap(err, "failed to create consumer")
	}
	c.consumer = consumer

	started := make(Offsets, len(offsets))
	for topic, partitions := range offsets {
		started[topic] = make(map[int32]int64, len(partitions))
		for partition, offset := range partitions {
			start, err := c.startOffset(topic, partition, offset)
			if err != nil {
				return nil, err
			}

			pc, err := consumer.ConsumePartition(topic, partition, start)
			if err != nil {
				return nil, utils.BrokerError.Wrap(err, "failed to consume %s[%d] from offset %d", topic, partition, start)
			}

			c.partitions = append(c.partitions, pc)
			started[topic][partition] = start

			c.wg.Add(1)
			go c.consumePartition(pc)
		}
	}

	return started, nil
}

// startOffset moves offsets removed by retention forward to the oldest available one
func (c *SaramaClient) startOffset(topic string, partition int32, offset int64) (int64, error) {
	oldest, err := c.client.GetOffset(topic, partition, sarama.OffsetOldest)
	if err != nil {
		return 0, utils.BrokerError.Wrap(err, "failed to fetch oldest offset of %s[%d]", topic, partition)
	}

	if offset < oldest {
		logger.Warnf("offset %d of %s[%d] is no longer retained, reading from offset %d", offset, topic, partition, oldest)
		return oldest, nil
	}

	return offset, nil
}

func (c *SaramaClient) consumePartition(pc sarama.PartitionConsumer) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopper:
			return

		case err, ok := <-pc.Errors():
			if !ok {
				return
			}
			select {
			case c.errors <- err:
			case <-c.stopper:
				return
			}

		case msg, ok := <-pc.Messages():
			if !ok {
				return
			}
			select {
			case c.messages <- msg:
			case <-c.stopper:
				return
			}
		}
	}
}

func (c *SaramaClient) Poll(ctx context.Context) (*sarama.ConsumerMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case err := <-c.errors:
		return nil, utils.BrokerError.Wrap(err, "failed to consume %s[%d]", err.Topic, err.Partition)

	case msg := <-c.messages:
		return msg, nil
	}
}

func (c *SaramaClient) Close() error {
	err := errors.New("client already closed")
	c.once.Do(func() {
		close(c.stopper)
		c.wg.Wait()

		closers := []func() error{}
		for _, pc := range c.partitions {
			closers = append(closers, pc.Close)
		}
		if c.consumer != nil {
			closers = append(closers, c.consumer.Close)
		}
		closers = append(closers, c.client.Close)

		err = utils.ErrExecSequential(closers...)
	})

	return err
}
