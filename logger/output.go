package logger

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"

	"github.com/datazip-inc/olake-kafka/constants"
	"github.com/datazip-inc/olake-kafka/types"
)

// MessageWriter emits protocol messages as one json document per line.
// Every write is flushed before returning, so a message that returned nil
// has reached the downstream consumer in emission order.
type MessageWriter struct {
	mu     sync.Mutex
	writer *bufio.Writer
}

func NewMessageWriter(out io.Writer) *MessageWriter {
	return &MessageWriter{writer: bufio.NewWriter(out)}
}

var stdout = NewMessageWriter(os.Stdout)

// Stdout is the writer bound to the process standard output
func Stdout() *MessageWriter {
	return stdout
}

func (w *MessageWriter) Write(message *types.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.writer.Write(append(data, '\n')); err != nil {
		return err
	}

	return w.writer.Flush()
}

func (w *MessageWriter) Record(record *types.Record) error {
	return w.Write(&types.Message{Type: types.RecordMessage, Record: record})
}

func (w *MessageWriter) State(state *types.State) error {
	return w.Write(&types.Message{Type: types.StateMessage, State: state})
}

func LogSpec(spec map[string]any) {
	message := types.Message{}
	message.Spec = spec
	message.Type = types.SpecMessage

	Debug("logging spec")
	if err := stdout.Write(&message); err != nil {
		Fatalf("failed to write spec: %s", err)
	}
	if configFolder := viper.GetString(constants.ConfigFolder); configFolder != "" {
		err := FileLogger(message.Spec, configFolder, "config", ".json")
		if err != nil {
			Fatalf("failed to create spec file: %s", err)
		}
	}
}

func LogCatalog(streams []*types.Stream) {
	message := types.Message{}
	message.Type = types.CatalogMessage
	message.Catalog = types.GetWrappedCatalog(streams)

	Debug("logging catalog")
	if err := stdout.Write(&message); err != nil {
		Fatalf("failed to write catalog: %s", err)
	}
	// write catalog to the specified file
	if configFolder := viper.GetString(constants.ConfigFolder); configFolder != "" {
		err := FileLogger(message.Catalog, configFolder, "streams", ".json")
		if err != nil {
			Fatalf("failed to create catalog file: %s", err)
		}
	}
}

func LogConnectionStatus(err error) {
	message := types.Message{}
	message.Type = types.ConnectionStatusMessage
	message.ConnectionStatus = &types.StatusRow{}
	if err != nil {
		message.ConnectionStatus.Message = err.Error()
		message.ConnectionStatus.Status = types.ConnectionFailed
	} else {
		message.ConnectionStatus.Status = types.ConnectionSucceed
	}

	if err := stdout.Write(&message); err != nil {
		Fatalf("failed to write connection status: %s", err)
	}
}

// SaveState writes the full state into the config folder, if one is set
func SaveState(state *types.State) error {
	configFolder := viper.GetString(constants.ConfigFolder)
	if configFolder == "" || viper.GetBool(constants.NoSave) {
		return nil
	}

	Debug("saving state")
	return FileLogger(state, configFolder, "state", ".json")
}
