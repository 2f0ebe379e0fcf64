package abstract

import (
	"context"

	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/types"
)

type Config interface {
	Validate() error
}

type DriverInterface interface {
	GetConfigRef() Config
	Spec() any
	Type() string
	// specific to test & setup
	Setup(ctx context.Context) error
	MaxRetries() int
	// specific to discover
	GetStreamNames(ctx context.Context) ([]string, error)
	ProduceSchema(ctx context.Context, stream string) (*types.Stream, error)
	// Read emits records and state of the selected streams until the driver
	// considers the sync complete or ctx is done
	Read(ctx context.Context, writer *logger.MessageWriter, catalog *types.Catalog, state *types.State) error
	Close() error
}
