package types

type SyncMode string

const (
	// FULLREFRESH reads every stream partition up to the high watermark seen at start and then halts
	FULLREFRESH SyncMode = "full_refresh"
	// INCREMENTAL keeps tailing the stream until the process is stopped
	INCREMENTAL SyncMode = "incremental"
)

func (s SyncMode) Valid() bool {
	return s == FULLREFRESH || s == INCREMENTAL
}
