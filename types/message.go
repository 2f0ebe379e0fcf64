package types

type MessageType string

const (
	LogMessage              MessageType = "LOG"
	ConnectionStatusMessage MessageType = "CONNECTION_STATUS"
	StateMessage            MessageType = "STATE"
	RecordMessage           MessageType = "RECORD"
	CatalogMessage          MessageType = "CATALOG"
	SpecMessage             MessageType = "SPEC"
)

type ConnectionStatus string

const (
	ConnectionSucceed ConnectionStatus = "SUCCEEDED"
	ConnectionFailed  ConnectionStatus = "FAILED"
)

// Message is a dto for olake output row representation
type Message struct {
	Type             MessageType    `json:"type"`
	Log              *Log           `json:"log,omitempty"`
	ConnectionStatus *StatusRow     `json:"connectionStatus,omitempty"`
	State            *State         `json:"state,omitempty"`
	Record           *Record        `json:"record,omitempty"`
	Catalog          *Catalog       `json:"catalog,omitempty"`
	Spec             map[string]any `json:"spec,omitempty"`
}

// Log is a dto for airbyte logs serialization
type Log struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusRow is a dto for airbyte result status serialization
type StatusRow struct {
	Status  ConnectionStatus `json:"status,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Record is a single document read from a stream
type Record struct {
	Stream    string         `json:"stream"`
	Namespace string         `json:"namespace,omitempty"`
	Data      map[string]any `json:"data"`
	EmittedAt int64          `json:"emitted_at"` // milliseconds since epoch
}
