package driver

import (
	"crypto/tls"
	"crypto/x509"

	"github.com/IBM/sarama"

	"github.com/datazip-inc/olake-kafka/constants"
	"github.com/datazip-inc/olake-kafka/pkg/kafka"
	"github.com/datazip-inc/olake-kafka/pkg/statestore"
	"github.com/datazip-inc/olake-kafka/utils"
)

type Config struct {
	BootstrapServers string          `json:"bootstrap_servers" validate:"required" jsonschema:"title=Bootstrap Servers,description=Comma separated host:port pairs of the kafka brokers"`
	TLS              *TLSConfig      `json:"tls,omitempty" jsonschema:"title=TLS"`
	Authentication   *Authentication `json:"authentication,omitempty" jsonschema:"title=SASL Authentication"`
	ClientID         string          `json:"client_id,omitempty" jsonschema:"title=Client ID,default=olake-kafka"`
	KafkaVersion     string          `json:"kafka_version,omitempty" jsonschema:"title=Kafka Version,default=2.8.0"`
	// IncludeMetadata adds a _kafka field with partition, offset, key and headers to every record
	IncludeMetadata bool `json:"include_metadata,omitempty" jsonschema:"title=Include Kafka Metadata"`
	// MetricsPort exposes prometheus metrics on /metrics while reading; 0 disables it
	MetricsPort int                `json:"metrics_port,omitempty" validate:"gte=0,lte=65535" jsonschema:"title=Metrics Port"`
	RetryCount  int                `json:"backoff_retry_count,omitempty" validate:"gte=0" jsonschema:"title=Connection Retry Count"`
	StateStore  *statestore.Config `json:"state_store,omitempty" jsonschema:"title=State Store"`
}

type TLSConfig struct {
	Enabled            bool   `json:"enabled"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify,omitempty"`
	CACertificate      string `json:"ca_certificate,omitempty" jsonschema:"description=PEM encoded CA certificate"`
}

type Authentication struct {
	Mechanism string `json:"mechanism" validate:"required,oneof=PLAIN SCRAM-SHA-256 SCRAM-SHA-512" jsonschema:"enum=PLAIN,enum=SCRAM-SHA-256,enum=SCRAM-SHA-512"`
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

func (c *Config) Validate() error {
	if err := utils.Validate(c); err != nil {
		return utils.ConfigError.Wrap(err, "invalid config")
	}

	if len(c.Brokers()) == 0 {
		return utils.ConfigError.New("bootstrap_servers holds no broker address")
	}

	if c.ClientID == "" {
		c.ClientID = constants.DefaultClientID
	}

	if c.KafkaVersion == "" {
		c.KafkaVersion = constants.DefaultKafkaVersion
	}
	if _, err := sarama.ParseKafkaVersion(c.KafkaVersion); err != nil {
		return utils.ConfigError.Wrap(err, "invalid kafka_version[%s]", c.KafkaVersion)
	}

	if c.StateStore != nil {
		return c.StateStore.Validate()
	}

	return nil
}

func (c *Config) Brokers() []string {
	return utils.SplitAndTrim(c.BootstrapServers)
}

func (c *Config) saramaConfig() (*sarama.Config, error) {
	version, err := sarama.ParseKafkaVersion(c.KafkaVersion)
	if err != nil {
		return nil, utils.ConfigError.Wrap(err, "invalid kafka_version[%s]", c.KafkaVersion)
	}

	config := sarama.NewConfig()
	config.ClientID = c.ClientID
	config.Version = version
	config.Consumer.Return.Errors = true
	config.Metadata.Full = true

	if c.TLS != nil && c.TLS.Enabled {
		tlsConfig := &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: c.TLS.InsecureSkipVerify, //nolint:gosec
		}
		if c.TLS.CACertificate != "" {
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM([]byte(c.TLS.CACertificate)) {
				return nil, utils.ConfigError.New("tls.ca_certificate holds no valid PEM certificate")
			}
			tlsConfig.RootCAs = pool
		}
		config.Net.TLS.Enable = true
		config.Net.TLS.Config = tlsConfig
	}

	if auth := c.Authentication; auth != nil {
		config.Net.SASL.Enable = true
		config.Net.SASL.User, config.Net.SASL.Password = auth.Username, auth.Password
		config.Net.SASL.Mechanism = sarama.SASLMechanism(auth.Mechanism)
		if config.Net.SASL.Mechanism != sarama.SASLTypePlaintext {
			config.Net.SASL.SCRAMClientGeneratorFunc = kafka.SCRAMClientGenerator(config.Net.SASL.Mechanism)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, utils.ConfigError.Wrap(err, "invalid client config")
	}

	return config, nil
}
