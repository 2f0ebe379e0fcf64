package types

import (
	"github.com/goccy/go-json"

	"github.com/datazip-inc/olake-kafka/utils"
)

// Output Stream Object for dsynk
type Stream struct {
	// Name of the Stream; for kafka the topic name
	Name string `json:"name,omitempty"`
	// Namespace of the Stream, or Database it belongs to
	// helps in identifying collections with same name in different database
	Namespace string `json:"namespace,omitempty"`
	// Possible Schema of the Stream
	JSONSchema map[string]any `json:"json_schema,omitempty"`
	// Supported sync modes from driver for the respective Stream
	SupportedSyncModes *Set[SyncMode] `json:"supported_sync_modes,omitempty"`
	// Source tracks its own cursor (partition offsets)
	SourceDefinedCursor bool `json:"source_defined_cursor,omitempty"`
	// Primary key if available
	SourceDefinedPrimaryKey *Set[string] `json:"source_defined_primary_key,omitempty"`
}

func NewStream(name, namespace string) *Stream {
	return &Stream{
		Name:                    name,
		Namespace:               namespace,
		JSONSchema:              map[string]any{"type": "object"},
		SupportedSyncModes:      NewSet[SyncMode](),
		SourceDefinedPrimaryKey: NewSet[string](),
	}
}

func (s *Stream) ID() string {
	return utils.StreamIdentifier(s.Name, s.Namespace)
}

func (s *Stream) WithSyncMode(modes ...SyncMode) *Stream {
	s.SupportedSyncModes.Insert(modes...)
	return s
}

func (s *Stream) WithSourceDefinedCursor() *Stream {
	s.SourceDefinedCursor = true
	return s
}

// Wrap configures the stream with the passed sync mode
func (s *Stream) Wrap(mode SyncMode) *ConfiguredStream {
	return &ConfiguredStream{
		Stream:   s,
		SyncMode: mode,
	}
}

func (s *Stream) UnmarshalJSON(data []byte) error {
	// Define a type alias to avoid recursion
	type Alias Stream

	// Create a temporary alias value to unmarshal into
	var temp Alias

	temp.SourceDefinedPrimaryKey = NewSet[string]()
	temp.SupportedSyncModes = NewSet[SyncMode]()

	err := json.Unmarshal(data, &temp)
	if err != nil {
		return err
	}

	*s = Stream(temp)
	return nil
}

func StreamsToMap(streams ...*Stream) map[string]*Stream {
	output := make(map[string]*Stream)
	for _, stream := range streams {
		output[stream.ID()] = stream
	}

	return output
}
