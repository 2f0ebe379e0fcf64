package types

type StateType string

// StreamType indicates that the connector solely acts on individual stream state
const StreamType StateType = "STREAM"

// State is a dto for airbyte state serialization; Data is owned by the driver
// and decoded through utils.Unmarshal into the driver's own state shape
type State struct {
	Type StateType `json:"type"`
	Data any       `json:"data,omitempty"`
}

func (s *State) IsZero() bool {
	return s == nil || s.Data == nil
}
