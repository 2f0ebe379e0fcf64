package checkpoint

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

// Checkpoint is the progress carried by one processed message. Offset is the
// next offset to read from the partition, never the offset already read.
type Checkpoint struct {
	Stream    string
	Partition int32
	Offset    int64
}

func (c Checkpoint) String() string {
	return fmt.Sprintf("%s[%d]@%d", c.Stream, c.Partition, c.Offset)
}

// State wraps the checkpoint as an incremental state payload
func (c Checkpoint) State() *types.State {
	delta := New()
	delta.Add(c)
	return delta.State()
}

// CheckpointSet maps stream -> partition -> next offset to read
type CheckpointSet struct {
	streams map[string]map[int32]int64
}

func New() *CheckpointSet {
	return &CheckpointSet{streams: make(map[string]map[int32]int64)}
}

// FromState decodes persisted connector state; a missing state yields an empty set
func FromState(state *types.State) (*CheckpointSet, error) {
	set := New()
	if state.IsZero() {
		return set, nil
	}

	if err := utils.Unmarshal(state.Data, set); err != nil {
		return nil, utils.StateError.Wrap(err, "failed to decode persisted checkpoints")
	}

	return set, nil
}

// Add applies a single delta; deltas that do not advance the partition are ignored
func (c *CheckpointSet) Add(delta Checkpoint) bool {
	if delta.Offset < 0 {
		return false
	}

	partitions, found := c.streams[delta.Stream]
	if !found {
		partitions = make(map[int32]int64)
		c.streams[delta.Stream] = partitions
	}

	if current, tracked := partitions[delta.Partition]; tracked && delta.Offset <= current {
		return false
	}

	partitions[delta.Partition] = delta.Offset
	return true
}

// Advances reports whether applying delta would move its partition forward
func (c *CheckpointSet) Advances(delta Checkpoint) bool {
	if delta.Offset < 0 {
		return false
	}
	current, tracked := c.Offset(delta.Stream, delta.Partition)
	return !tracked || delta.Offset > current
}

func (c *CheckpointSet) Offset(stream string, partition int32) (int64, bool) {
	offset, found := c.streams[stream][partition]
	return offset, found
}

// Streams returns tracked stream names in sorted order
func (c *CheckpointSet) Streams() []string {
	streams := make([]string, 0, len(c.streams))
	for stream := range c.streams {
		streams = append(streams, stream)
	}
	slices.Sort(streams)
	return streams
}

func (c *CheckpointSet) Tracks(stream string) bool {
	_, found := c.streams[stream]
	return found
}

// Partitions returns tracked partitions of stream in ascending order
func (c *CheckpointSet) Partitions(stream string) []int32 {
	partitions := make([]int32, 0, len(c.streams[stream]))
	for partition := range c.streams[stream] {
		partitions = append(partitions, partition)
	}
	slices.Sort(partitions)
	return partitions
}

// Len returns the number of tracked partitions across all streams
func (c *CheckpointSet) Len() int {
	total := 0
	for _, partitions := range c.streams {
		total += len(partitions)
	}
	return total
}

// Offsets returns a copy of the underlying mapping
func (c *CheckpointSet) Offsets() map[string]map[int32]int64 {
	offsets := make(map[string]map[int32]int64, len(c.streams))
	for stream, partitions := range c.streams {
		offsets[stream] = make(map[int32]int64, len(partitions))
		for partition, offset := range partitions {
			offsets[stream][partition] = offset
		}
	}
	return offsets
}

func (c *CheckpointSet) Clone() *CheckpointSet {
	return &CheckpointSet{streams: c.Offsets()}
}

func (c *CheckpointSet) Equal(other *CheckpointSet) bool {
	if other == nil || len(c.streams) != len(other.streams) {
		return false
	}

	for stream, partitions := range c.streams {
		otherPartitions, found := other.streams[stream]
		if !found || len(otherPartitions) != len(partitions) {
			return false
		}
		for partition, offset := range partitions {
			if otherOffset, found := otherPartitions[partition]; !found || otherOffset != offset {
				return false
			}
		}
	}

	return true
}

// State wraps the whole set as a persisted state payload
func (c *CheckpointSet) State() *types.State {
	return &types.State{
		Type: types.StreamType,
		Data: c.Clone(),
	}
}

func (c *CheckpointSet) MarshalJSON() ([]byte, error) {
	encoded := make(map[string]map[string]int64, len(c.streams))
	for stream, partitions := range c.streams {
		encoded[stream] = make(map[string]int64, len(partitions))
		for partition, offset := range partitions {
			encoded[stream][strconv.FormatInt(int64(partition), 10)] = offset
		}
	}

	return json.Marshal(encoded)
}

func (c *CheckpointSet) UnmarshalJSON(data []byte) error {
	var decoded map[string]map[string]int64
	if err := json.Unmarshal(data, &decoded); err != nil {
		return utils.StateError.Wrap(err, "checkpoints must map stream names to partition offsets")
	}

	streams := make(map[string]map[int32]int64, len(decoded))
	for stream, partitions := range decoded {
		streams[stream] = make(map[int32]int64, len(partitions))
		for key, offset := range partitions {
			partition, err := strconv.ParseInt(key, 10, 32)
			if err != nil || partition < 0 {
				return utils.StateError.New("invalid partition[%s] for stream[%s]", key, stream)
			}
			if offset < 0 {
				return utils.StateError.New("negative offset[%d] for stream[%s] partition[%d]", offset, stream, partition)
			}
			streams[stream][int32(partition)] = offset
		}
	}

	c.streams = streams
	return nil
}
