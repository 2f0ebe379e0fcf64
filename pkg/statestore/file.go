package statestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

// FileStore keeps one <sync id>.json file per sync in a directory
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, utils.StateError.Wrap(err, "failed to create state directory[%s]", dir)
	}

	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Load(_ context.Context, syncID string) (*types.State, error) {
	path := filepath.Join(f.dir, syncID+".json")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	state := &types.State{}
	if err := utils.UnmarshalFile(path, state, false); err != nil {
		return nil, utils.StateError.Wrap(err, "failed to load state of sync[%s]", syncID)
	}

	return state, nil
}

func (f *FileStore) Save(_ context.Context, syncID string, state *types.State) error {
	if err := logger.FileLogger(state, f.dir, syncID, ".json"); err != nil {
		return utils.StateError.Wrap(err, "failed to save state of sync[%s]", syncID)
	}

	return nil
}

func (f *FileStore) Close() error {
	return nil
}
