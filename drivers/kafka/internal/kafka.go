package driver

import (
	"context"
	"sort"
	"strings"

	"github.com/IBM/sarama"
	"github.com/spf13/viper"

	"github.com/datazip-inc/olake-kafka/constants"
	"github.com/datazip-inc/olake-kafka/drivers/abstract"
	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/pkg/checkpoint"
	"github.com/datazip-inc/olake-kafka/pkg/kafka"
	"github.com/datazip-inc/olake-kafka/pkg/metrics"
	"github.com/datazip-inc/olake-kafka/pkg/statestore"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

type Kafka struct {
	config *Config
	client kafka.Client
	store  statestore.Store
	// connect opens the broker client; replaced in tests
	connect func(brokers []string, config *sarama.Config) (kafka.Client, error)
}

func connectSarama(brokers []string, config *sarama.Config) (kafka.Client, error) {
	return kafka.NewClient(brokers, config)
}

func (k *Kafka) GetConfigRef() abstract.Config {
	k.config = &Config{}

	return k.config
}

func (k *Kafka) Spec() any {
	return Config{}
}

func (k *Kafka) Type() string {
	return string(constants.Kafka)
}

func (k *Kafka) MaxRetries() int {
	return k.config.RetryCount + 1
}

func (k *Kafka) Setup(ctx context.Context) error {
	if err := k.config.Validate(); err != nil {
		return err
	}

	saramaConfig, err := k.config.saramaConfig()
	if err != nil {
		return err
	}

	// a retried setup starts from a fresh client
	if k.client != nil {
		_ = k.client.Close()
		k.client = nil
	}

	connect := k.connect
	if connect == nil {
		connect = connectSarama
	}

	client, err := connect(k.config.Brokers(), saramaConfig)
	if err != nil {
		return err
	}
	k.client = client

	if k.config.StateStore != nil && k.store == nil {
		store, err := statestore.New(ctx, k.config.StateStore)
		if err != nil {
			return err
		}
		k.store = store
	}

	logger.Infof("connected to kafka brokers %v", k.config.Brokers())
	return nil
}

// GetStreamNames lists topics, skipping internal ones such as __consumer_offsets
func (k *Kafka) GetStreamNames(_ context.Context) ([]string, error) {
	metadata, err := k.client.Metadata()
	if err != nil {
		return nil, err
	}

	names := []string{}
	for topic := range metadata {
		if strings.HasPrefix(topic, constants.InternalTopicPrefix) {
			logger.Debugf("skipping internal topic[%s]", topic)
			continue
		}
		names = append(names, topic)
	}

	sort.Strings(names)
	return names, nil
}

func (k *Kafka) ProduceSchema(_ context.Context, stream string) (*types.Stream, error) {
	return types.NewStream(stream, "").
		WithSyncMode(types.FULLREFRESH, types.INCREMENTAL).
		WithSourceDefinedCursor(), nil
}

func (k *Kafka) Read(ctx context.Context, writer *logger.MessageWriter, catalog *types.Catalog, state *types.State) error {
	syncID, err := k.syncID()
	if err != nil {
		return err
	}

	persisted, err := k.loadState(ctx, syncID, state)
	if err != nil {
		return err
	}

	logger.Infof("starting read[%s] of sync[%s]", utils.ULID(), syncID)

	m := metrics.New()
	if k.config.MetricsPort > 0 {
		if err := m.Expose(ctx, k.config.MetricsPort); err != nil {
			return err
		}
		logger.Infof("exposing metrics on port %d", k.config.MetricsPort)
	}

	r := &reader{
		client:          k.client,
		writer:          writer,
		catalog:         catalog,
		includeMetadata: k.config.IncludeMetadata,
		batchSize:       viper.GetInt64(constants.BatchSize),
		metrics:         m,
		persist: func(ctx context.Context, state *types.State) error {
			if k.store == nil {
				return nil
			}
			return k.store.Save(ctx, syncID, state)
		},
	}

	return r.run(ctx, persisted)
}

// syncID identifies a sync across runs, unless one is configured. It only
// depends on the cluster connection; stream selection is left to Reconcile.
func (k *Kafka) syncID() (string, error) {
	if id := viper.GetString(constants.SyncID); id != "" {
		return id, nil
	}

	brokers := k.config.Brokers()
	sort.Strings(brokers)

	return utils.ComputeConfigHash(brokers, k.config.ClientID)
}

// loadState prefers the passed state and falls back to the state store
func (k *Kafka) loadState(ctx context.Context, syncID string, state *types.State) (*checkpoint.CheckpointSet, error) {
	if state.IsZero() && k.store != nil {
		stored, err := k.store.Load(ctx, syncID)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			logger.Infof("resuming sync[%s] from the state store", syncID)
			state = stored
		}
	}

	return checkpoint.FromState(state)
}

func (k *Kafka) Close() error {
	return utils.ErrExecSequential(
		func() error {
			if k.client == nil {
				return nil
			}
			return k.client.Close()
		},
		func() error {
			if k.store == nil {
				return nil
			}
			return k.store.Close()
		},
	)
}
