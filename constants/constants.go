package constants

import "time"

type DriverType string

const (
	Kafka DriverType = "Kafka"
)

const (
	// viper keys
	ConfigFolder  = "CONFIG_FOLDER"
	EncryptionKey = "ENCRYPTION_KEY"
	BatchSize     = "BATCH_SIZE"
	SyncID        = "SYNC_ID"
	NoSave        = "NO_SAVE"

	DefaultBatchSize            = 10000
	DefaultKafkaVersion         = "2.8.0"
	DefaultClientID             = "olake-kafka"
	DefaultCheckTimeout         = 30 * time.Second
	DefaultDiscoverTimeout      = 5 * time.Minute
	DefaultRetryTimeout         = 2 * time.Second
	DefaultWatermarkConcurrency = 8
	DefaultThreadCount          = 8
	DefaultStateTable           = "olake_kafka_state"

	// topics carrying broker bookkeeping, e.g. __consumer_offsets
	InternalTopicPrefix = "__"
	KafkaMetadataField  = "_kafka"
)
