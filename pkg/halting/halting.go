// Package halting decides when a read has consumed everything it was asked to.
//
// A run only halts when every selected stream is bounded (full refresh) and
// each of their partitions has been read up to the high watermark captured
// when the run subscribed. Data produced after that snapshot is left for the
// next run.
package halting

import (
	"github.com/datazip-inc/olake-kafka/pkg/checkpoint"
	"github.com/datazip-inc/olake-kafka/types"
)

type HaltCheck struct {
	unbounded  bool
	watermarks map[string]map[int32]int64 // bounded streams only
}

// New captures the watermarks of bounded streams; the passed map is copied
func New(catalog *types.Catalog, watermarks map[string]map[int32]int64) *HaltCheck {
	check := &HaltCheck{watermarks: make(map[string]map[int32]int64)}

	for _, stream := range catalog.Selected() {
		if !stream.Bounded() {
			check.unbounded = true
			continue
		}

		snapshot := make(map[int32]int64, len(watermarks[stream.Name()]))
		for partition, watermark := range watermarks[stream.Name()] {
			snapshot[partition] = watermark
		}
		check.watermarks[stream.Name()] = snapshot
	}

	return check
}

// Unbounded reports whether the run never halts on its own
func (h *HaltCheck) Unbounded() bool {
	return h.unbounded
}

// Watermark returns the snapshot watermark of a bounded stream partition
func (h *HaltCheck) Watermark(stream string, partition int32) (int64, bool) {
	watermark, found := h.watermarks[stream][partition]
	return watermark, found
}

// ShouldHalt reports whether every bounded partition reached its watermark
func (h *HaltCheck) ShouldHalt(checkpoints *checkpoint.CheckpointSet) bool {
	if h.unbounded {
		return false
	}

	for stream, partitions := range h.watermarks {
		for partition, watermark := range partitions {
			offset, _ := checkpoints.Offset(stream, partition)
			if offset < watermark {
				return false
			}
		}
	}

	return true
}

// Remaining returns how many messages bounded partitions still have to deliver
func (h *HaltCheck) Remaining(checkpoints *checkpoint.CheckpointSet) int64 {
	var remaining int64
	for stream, partitions := range h.watermarks {
		for partition, watermark := range partitions {
			offset, _ := checkpoints.Offset(stream, partition)
			if offset < watermark {
				remaining += watermark - offset
			}
		}
	}

	return remaining
}
