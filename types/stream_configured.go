package types

import (
	"fmt"
)

// Input/Processed object for Stream
type ConfiguredStream struct {
	Stream   *Stream  `json:"stream,omitempty"`
	SyncMode SyncMode `json:"sync_mode,omitempty"` // Mode being used for syncing data
}

func (s *ConfiguredStream) ID() string {
	return s.Stream.ID()
}

func (s *ConfiguredStream) Name() string {
	return s.Stream.Name
}

func (s *ConfiguredStream) Namespace() string {
	return s.Stream.Namespace
}

func (s *ConfiguredStream) GetSyncMode() SyncMode {
	return s.SyncMode
}

// Bounded reports whether the stream completes within a single run
func (s *ConfiguredStream) Bounded() bool {
	return s.GetSyncMode() != INCREMENTAL
}

// Validate Configured Stream with Source Stream
func (s *ConfiguredStream) Validate(source *Stream) error {
	if !source.SupportedSyncModes.Exists(s.GetSyncMode()) {
		return fmt.Errorf("invalid sync mode[%s]; valid are %v", s.GetSyncMode(), source.SupportedSyncModes)
	}

	return nil
}
