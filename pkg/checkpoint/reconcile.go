package checkpoint

import (
	"slices"
	"strings"

	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

// Reconcile builds the starting checkpoints of a run from the live partition
// layout (topic -> partitions), the selected catalog streams and the state
// persisted by a previous run.
//
// Only selected streams are tracked. Every live partition keeps its persisted
// offset, or starts at 0 when it was never seen before. Persisted partitions
// missing from the live layout are dropped.
func Reconcile(metadata map[string][]int32, catalog *types.Catalog, persisted *CheckpointSet) (*CheckpointSet, error) {
	if persisted == nil {
		persisted = New()
	}

	selected := catalog.Selected()
	missing := []string{}
	for _, stream := range selected {
		if _, found := metadata[stream.Name()]; !found {
			missing = append(missing, stream.Name())
		}
	}
	if len(missing) > 0 {
		return nil, utils.CatalogError.New("streams [%s] not found in topic metadata", strings.Join(missing, ", "))
	}

	reconciled := New()
	for _, stream := range selected {
		name := stream.Name()
		partitions := slices.Clone(metadata[name])
		slices.Sort(partitions)

		reconciled.streams[name] = make(map[int32]int64, len(partitions))
		for _, partition := range partitions {
			offset, tracked := persisted.Offset(name, partition)
			if !tracked {
				offset = 0
				if persisted.Tracks(name) {
					logger.Infof("new partition[%d] found for stream[%s], reading from offset 0", partition, name)
				}
			}
			reconciled.streams[name][partition] = offset
		}

		for _, partition := range persisted.Partitions(name) {
			if _, live := reconciled.streams[name][partition]; !live {
				logger.Warnf("partition[%d] of stream[%s] no longer exists, dropping its checkpoint", partition, name)
			}
		}
	}

	for _, name := range persisted.Streams() {
		if !reconciled.Tracks(name) {
			logger.Infof("stream[%s] is not selected anymore, dropping its checkpoints", name)
		}
	}

	return reconciled, nil
}
