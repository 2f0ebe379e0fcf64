package statestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

func sampleState() *types.State {
	return &types.State{
		Type: types.StreamType,
		Data: map[string]any{"orders": map[string]any{"0": float64(3), "1": float64(9)}},
	}
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()
	syncID := utils.ULID()

	state, err := store.Load(ctx, syncID)
	require.NoError(t, err)
	assert.Nil(t, state, "nothing saved yet")

	require.NoError(t, store.Save(ctx, syncID, sampleState()))
	require.NoError(t, store.Save(ctx, syncID, sampleState()), "saving twice overwrites")

	state, err = store.Load(ctx, syncID)
	require.NoError(t, err)
	assert.Equal(t, sampleState(), state)
}

func TestFileStore(t *testing.T) {
	store, err := New(context.Background(), &Config{Path: filepath.Join(t.TempDir(), "states")})
	require.NoError(t, err)
	defer store.Close()

	testStore(t, store)
}

func TestFileStoreCorruptState(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"type":`), 0644))

	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "broken")
	assert.True(t, errorx.IsOfType(err, utils.StateError))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("OLAKE_KAFKA_STATE_DSN")
	if dsn == "" {
		t.Skip("OLAKE_KAFKA_STATE_DSN not set")
	}

	store, err := New(context.Background(), &Config{Type: Postgres, DSN: dsn, Table: "olake_kafka_state_test"})
	require.NoError(t, err)
	defer store.Close()

	testStore(t, store)
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		config Config
		valid  bool
	}{
		{name: "file store", config: Config{Path: "/tmp/states"}, valid: true},
		{name: "file store without path", config: Config{Type: File}, valid: false},
		{name: "postgres store", config: Config{Type: Postgres, DSN: "postgres://localhost/olake"}, valid: true},
		{name: "postgres store without dsn", config: Config{Type: Postgres}, valid: false},
		{name: "unknown store", config: Config{Type: "redis", Path: "/tmp"}, valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errorx.IsOfType(err, utils.ConfigError), "unexpected error %v", err)
		})
	}
}
