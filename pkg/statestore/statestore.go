// Package statestore persists the state of a sync outside of the protocol
// stream, so a later run can resume without being handed a state file.
package statestore

import (
	"context"

	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

type StoreType string

const (
	File     StoreType = "file"
	Postgres StoreType = "postgres"
)

type Config struct {
	Type StoreType `json:"type" validate:"omitempty,oneof=file postgres"`
	// Path is the directory of the file store
	Path string `json:"path,omitempty" validate:"required_if=Type file"`
	// DSN is the connection url of the postgres store
	DSN string `json:"dsn,omitempty" validate:"required_if=Type postgres"`
	// Table of the postgres store, created when missing
	Table string `json:"table,omitempty"`
}

func (c *Config) Validate() error {
	if c.Type == "" {
		c.Type = File
	}

	if err := utils.Validate(c); err != nil {
		return utils.ConfigError.Wrap(err, "invalid state_store config")
	}

	return nil
}

// Store loads and saves the state of a sync identified by its sync id.
// Load returns a nil state when nothing was saved yet.
type Store interface {
	Load(ctx context.Context, syncID string) (*types.State, error)
	Save(ctx context.Context, syncID string, state *types.State) error
	Close() error
}

func New(ctx context.Context, config *Config) (Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case Postgres:
		return NewPostgresStore(ctx, config.DSN, config.Table)
	default:
		return NewFileStore(config.Path)
	}
}
