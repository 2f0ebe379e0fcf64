package logger

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/olake-kafka/constants"
	"github.com/datazip-inc/olake-kafka/types"
)

func TestMessageWriterOrdering(t *testing.T) {
	var buf bytes.Buffer
	writer := NewMessageWriter(&buf)

	require.NoError(t, writer.Record(&types.Record{Stream: "orders", Data: map[string]any{"id": 1}, EmittedAt: 10}))
	require.NoError(t, writer.State(&types.State{Type: types.StreamType, Data: map[string]any{"orders": map[string]any{"0": 1}}}))
	require.NoError(t, writer.Record(&types.Record{Stream: "orders", Data: map[string]any{"id": 2}, EmittedAt: 11}))

	scanner := bufio.NewScanner(&buf)
	kinds := []types.MessageType{}
	for scanner.Scan() {
		message := types.Message{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &message))
		kinds = append(kinds, message.Type)
	}

	assert.Equal(t, []types.MessageType{types.RecordMessage, types.StateMessage, types.RecordMessage}, kinds)
}

func TestMessageWriterFlushesEveryWrite(t *testing.T) {
	var buf bytes.Buffer
	writer := NewMessageWriter(&buf)

	require.NoError(t, writer.Record(&types.Record{Stream: "orders", Data: map[string]any{"id": 1}}))
	assert.JSONEq(t, `{"type":"RECORD","record":{"stream":"orders","data":{"id":1},"emitted_at":0}}`, buf.String())
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])
}

func TestSaveState(t *testing.T) {
	folder := t.TempDir()
	viper.Set(constants.ConfigFolder, folder)
	defer viper.Set(constants.ConfigFolder, "")

	state := &types.State{Type: types.StreamType, Data: map[string]any{"orders": map[string]any{"0": 3}}}
	require.NoError(t, SaveState(state))

	data, err := os.ReadFile(filepath.Join(folder, "state.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"STREAM","data":{"orders":{"0":3}}}`, string(data))

	_, err = os.Stat(filepath.Join(folder, "state.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}
