package driver

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/olake-kafka/pkg/kafka"
	"github.com/datazip-inc/olake-kafka/pkg/statestore"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		config Config
		valid  bool
	}{
		{
			name:   "brokers only",
			config: Config{BootstrapServers: "localhost:9092, localhost:9093"},
			valid:  true,
		},
		{
			name:   "missing brokers",
			config: Config{},
		},
		{
			name:   "blank brokers",
			config: Config{BootstrapServers: " , "},
		},
		{
			name:   "bad kafka version",
			config: Config{BootstrapServers: "localhost:9092", KafkaVersion: "latest"},
		},
		{
			name: "scram authentication",
			config: Config{
				BootstrapServers: "localhost:9092",
				Authentication:   &Authentication{Mechanism: "SCRAM-SHA-512", Username: "olake", Password: "secret"},
			},
			valid: true,
		},
		{
			name: "unknown mechanism",
			config: Config{
				BootstrapServers: "localhost:9092",
				Authentication:   &Authentication{Mechanism: "GSSAPI", Username: "olake", Password: "secret"},
			},
		},
		{
			name: "authentication without password",
			config: Config{
				BootstrapServers: "localhost:9092",
				Authentication:   &Authentication{Mechanism: "PLAIN", Username: "olake"},
			},
		},
		{
			name:   "metrics port out of range",
			config: Config{BootstrapServers: "localhost:9092", MetricsPort: 70000},
		},
		{
			name:   "invalid state store",
			config: Config{BootstrapServers: "localhost:9092", StateStore: &statestore.Config{Type: statestore.Postgres}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.valid {
				require.NoError(t, err)
				return
			}
			assert.True(t, errorx.IsOfType(err, utils.ConfigError), "unexpected error %v", err)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	config := Config{BootstrapServers: "localhost:9092,localhost:9093"}
	require.NoError(t, config.Validate())

	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, config.Brokers())
	assert.Equal(t, "olake-kafka", config.ClientID)
	assert.Equal(t, "2.8.0", config.KafkaVersion)
}

func TestSaramaConfig(t *testing.T) {
	config := Config{
		BootstrapServers: "localhost:9092",
		TLS:              &TLSConfig{Enabled: true},
		Authentication:   &Authentication{Mechanism: "SCRAM-SHA-256", Username: "olake", Password: "secret"},
	}
	require.NoError(t, config.Validate())

	saramaConfig, err := config.saramaConfig()
	require.NoError(t, err)

	assert.True(t, saramaConfig.Consumer.Return.Errors)
	assert.True(t, saramaConfig.Net.TLS.Enable)
	assert.True(t, saramaConfig.Net.SASL.Enable)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypeSCRAMSHA256), saramaConfig.Net.SASL.Mechanism)
	require.NotNil(t, saramaConfig.Net.SASL.SCRAMClientGeneratorFunc)
	assert.NotNil(t, saramaConfig.Net.SASL.SCRAMClientGeneratorFunc())
	assert.Equal(t, "olake-kafka", saramaConfig.ClientID)
}

func TestSaramaConfigInvalidCA(t *testing.T) {
	config := Config{
		BootstrapServers: "localhost:9092",
		TLS:              &TLSConfig{Enabled: true, CACertificate: "not a certificate"},
	}
	require.NoError(t, config.Validate())

	_, err := config.saramaConfig()
	assert.True(t, errorx.IsOfType(err, utils.ConfigError))
}

func TestSetup(t *testing.T) {
	client := &fakeClient{}
	var brokers []string
	k := &Kafka{
		connect: func(addrs []string, _ *sarama.Config) (kafka.Client, error) {
			brokers = addrs
			return client, nil
		},
	}
	config, ok := k.GetConfigRef().(*Config)
	require.True(t, ok)
	config.BootstrapServers = "broker-1:9092,broker-2:9092"

	require.NoError(t, k.Setup(context.Background()))
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, brokers)
	assert.Equal(t, 1, k.MaxRetries())

	require.NoError(t, k.Close())
	assert.True(t, client.closed)
}

func TestSetupInvalidConfig(t *testing.T) {
	k := &Kafka{
		connect: func(_ []string, _ *sarama.Config) (kafka.Client, error) {
			t.Fatal("connected with an invalid config")
			return nil, nil
		},
	}
	k.GetConfigRef()

	err := k.Setup(context.Background())
	assert.True(t, errorx.IsOfType(err, utils.ConfigError))
}

func TestGetStreamNames(t *testing.T) {
	k := &Kafka{client: &fakeClient{
		metadata: kafka.Metadata{"payments": {0}, "__consumer_offsets": {0, 1}, "orders": {0, 1, 2}, "__transaction_state": {0}},
	}}

	names, err := k.GetStreamNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "payments"}, names)
}

func TestProduceSchema(t *testing.T) {
	k := &Kafka{}

	stream, err := k.ProduceSchema(context.Background(), "orders")
	require.NoError(t, err)

	assert.Equal(t, "orders", stream.Name)
	assert.True(t, stream.SourceDefinedCursor)
	assert.Equal(t, []types.SyncMode{types.FULLREFRESH, types.INCREMENTAL}, stream.SupportedSyncModes.Array())
	assert.Equal(t, map[string]any{"type": "object"}, stream.JSONSchema)
}

func TestSpec(t *testing.T) {
	k := &Kafka{}
	assert.IsType(t, Config{}, k.Spec())
	assert.Equal(t, "Kafka", k.Type())
}
