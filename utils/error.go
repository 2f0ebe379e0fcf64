package utils

import (
	"github.com/hashicorp/go-multierror"
	"github.com/joomcode/errorx"
)

var (
	Errors = errorx.NewNamespace("olake")

	// ConfigError is raised for malformed configuration, before any broker contact
	ConfigError = Errors.NewType("config")
	// BrokerError covers connection, metadata and poll failures
	BrokerError = Errors.NewType("broker")
	// ProcessingError is raised when a message cannot be turned into a record
	ProcessingError = Errors.NewType("processing")
	// DecodeError is a ProcessingError caused by missing partition/offset metadata on a message
	DecodeError = ProcessingError.NewSubtype("decode")
	// CatalogError is raised when a selected stream is not available on the broker
	CatalogError = Errors.NewType("catalog")
	// StateError is raised when persisted state has a shape that cannot be interpreted
	StateError = Errors.NewType("state")
)

// ErrExecSequential runs all functions, collecting every error instead of stopping at the first one
func ErrExecSequential(functions ...func() error) error {
	var multErr error
	for _, one := range functions {
		err := one()
		if err != nil {
			multErr = multierror.Append(multErr, err)
		}
	}

	return multErr
}
