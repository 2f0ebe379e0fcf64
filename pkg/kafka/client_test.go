package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/olake-kafka/utils"
)

// ordersBroker serves a single partition topic whose oldest retained offset is 5
func ordersBroker(t *testing.T, fetch sarama.MockResponse) *sarama.MockBroker {
	broker := sarama.NewMockBroker(t, 1)
	broker.SetHandlerByMap(map[string]sarama.MockResponse{
		"MetadataRequest": sarama.NewMockMetadataResponse(t).
			SetBroker(broker.Addr(), broker.BrokerID()).
			SetLeader("orders", 0, broker.BrokerID()),
		"OffsetRequest": sarama.NewMockOffsetResponse(t).
			SetOffset("orders", 0, sarama.OffsetOldest, 5).
			SetOffset("orders", 0, sarama.OffsetNewest, 7),
		"FetchRequest": fetch,
	})
	return broker
}

func testConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.MinVersion
	config.Consumer.Return.Errors = true
	config.Consumer.Retry.Backoff = 0
	return config
}

func TestSaramaClientStartsAtOldestRetainedOffset(t *testing.T) {
	broker := ordersBroker(t, sarama.NewMockFetchResponse(t, 1).
		SetMessage("orders", 0, 5, sarama.StringEncoder(`{"id":6}`)).
		SetHighWaterMark("orders", 0, 7))
	defer broker.Close()

	client, err := NewClient([]string{broker.Addr()}, testConfig())
	require.NoError(t, err)

	metadata, err := client.Metadata()
	require.NoError(t, err)
	assert.Equal(t, []int32{0}, metadata["orders"])

	watermarks, err := client.HighWatermarks(context.Background(), Metadata{"orders": {0}})
	require.NoError(t, err)
	assert.Equal(t, Offsets{"orders": {0: 7}}, watermarks)

	started, err := client.Assign(Offsets{"orders": {0: 2}})
	require.NoError(t, err)
	assert.Equal(t, Offsets{"orders": {0: 5}}, started, "offsets 2..4 are no longer retained")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg, err := client.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "orders", msg.Topic)
	assert.Equal(t, int64(5), msg.Offset)
	assert.Equal(t, `{"id":6}`, string(msg.Value))

	require.NoError(t, client.Close())
	assert.Error(t, client.Close(), "closing twice")
}

func TestSaramaClientKeepsRetainedOffset(t *testing.T) {
	broker := ordersBroker(t, sarama.NewMockFetchResponse(t, 1).SetHighWaterMark("orders", 0, 7))
	defer broker.Close()

	client, err := NewClient([]string{broker.Addr()}, testConfig())
	require.NoError(t, err)
	defer client.Close()

	started, err := client.Assign(Offsets{"orders": {0: 6}})
	require.NoError(t, err)
	assert.Equal(t, Offsets{"orders": {0: 6}}, started)
}

func TestSaramaClientPollReturnsConsumerErrors(t *testing.T) {
	fetch := new(sarama.FetchResponse)
	fetch.AddError("orders", 0, sarama.ErrOffsetOutOfRange)
	broker := ordersBroker(t, sarama.NewMockWrapper(fetch))
	defer broker.Close()

	client, err := NewClient([]string{broker.Addr()}, testConfig())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Assign(Offsets{"orders": {0: 6}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg, err := client.Poll(ctx)
	assert.Nil(t, msg)
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, utils.BrokerError), "unexpected error %v", err)
	assert.Contains(t, err.Error(), "orders[0]")
}

func TestSaramaClientPollStopsOnCancel(t *testing.T) {
	broker := ordersBroker(t, sarama.NewMockFetchResponse(t, 1).SetHighWaterMark("orders", 0, 7))
	defer broker.Close()

	client, err := NewClient([]string{broker.Addr()}, testConfig())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Poll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClientUnreachableBroker(t *testing.T) {
	config := testConfig()
	config.Metadata.Retry.Max = 0
	config.Net.DialTimeout = 100 * time.Millisecond

	_, err := NewClient([]string{"127.0.0.1:1"}, config)
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, utils.BrokerError))
}
