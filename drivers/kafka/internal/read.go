package driver

import (
	"context"
	"errors"

	"github.com/IBM/sarama"
	"github.com/joomcode/errorx"

	"github.com/datazip-inc/olake-kafka/logger"
	"github.com/datazip-inc/olake-kafka/pkg/checkpoint"
	"github.com/datazip-inc/olake-kafka/pkg/halting"
	"github.com/datazip-inc/olake-kafka/pkg/kafka"
	"github.com/datazip-inc/olake-kafka/pkg/metrics"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

type readerStatus string

const (
	initializing readerStatus = "initializing"
	subscribed   readerStatus = "subscribed"
	polling      readerStatus = "polling"
	halted       readerStatus = "halted"
	failed       readerStatus = "failed"
)

// reader is the consumption loop of a single run. It owns the checkpoints and
// is driven from one goroutine only.
type reader struct {
	client          kafka.Client
	writer          *logger.MessageWriter
	catalog         *types.Catalog
	includeMetadata bool
	// full state is persisted every batchSize emitted records; 0 persists at the end only
	batchSize int64
	metrics   *metrics.Metrics
	persist   func(ctx context.Context, state *types.State) error

	status      readerStatus
	checkpoints *checkpoint.CheckpointSet
	halt        *halting.HaltCheck
	emitted     int64
	flushed     int64 // emitted count at the last flush
}

func (r *reader) transition(status readerStatus) {
	logger.Debugf("reader %s -> %s", r.status, status)
	r.status = status
}

func (r *reader) run(ctx context.Context, persisted *checkpoint.CheckpointSet) (err error) {
	r.transition(initializing)
	defer func() {
		if err == nil {
			return
		}

		r.transition(failed)
		r.metrics.Failure(errorName(err))
		// checkpoints only ever cover emitted records, keep what was reached
		if r.checkpoints != nil {
			if flushErr := r.flush(context.WithoutCancel(ctx)); flushErr != nil {
				logger.Errorf("failed to persist state after failure: %s", flushErr)
			}
		}
	}()

	metadata, err := r.client.Metadata()
	if err != nil {
		return err
	}

	checkpoints, err := checkpoint.Reconcile(metadata, r.catalog, persisted)
	if err != nil {
		return err
	}

	if err := r.subscribe(ctx, checkpoints); err != nil {
		return err
	}

	r.transition(polling)
	for !r.halt.ShouldHalt(r.checkpoints) {
		msg, err := r.client.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				logger.Infof("read interrupted after %d records, saving state", r.emitted)
				return r.flush(context.WithoutCancel(ctx))
			}
			return err
		}

		if err := r.handle(msg); err != nil {
			return err
		}

		if r.batchSize > 0 && r.emitted-r.flushed >= r.batchSize {
			if err := r.flush(ctx); err != nil {
				return err
			}
		}
	}

	r.transition(halted)
	logger.Infof("read complete, %d records emitted", r.emitted)
	return r.flush(ctx)
}

// subscribe assigns every tracked partition at its checkpoint and captures
// the high watermarks bounding this run
func (r *reader) subscribe(ctx context.Context, checkpoints *checkpoint.CheckpointSet) error {
	started, err := r.client.Assign(checkpoints.Offsets())
	if err != nil {
		return err
	}

	tracked := kafka.Metadata{}
	for _, stream := range checkpoints.Streams() {
		tracked[stream] = checkpoints.Partitions(stream)
	}

	watermarks, err := r.client.HighWatermarks(ctx, tracked)
	if err != nil {
		return err
	}

	r.checkpoints = checkpoints
	r.halt = halting.New(r.catalog, watermarks)
	r.metrics.Watermarks(watermarks)
	r.transition(subscribed)

	// offsets removed by retention are skipped by the consumer, move past them too
	moved := false
	for stream, partitions := range started {
		for partition, offset := range partitions {
			if r.checkpoints.Add(checkpoint.Checkpoint{Stream: stream, Partition: partition, Offset: offset}) {
				moved = true
			}
		}
	}

	if r.halt.Unbounded() {
		logger.Infof("subscribed to %d partitions, reading until interrupted", r.checkpoints.Len())
	} else {
		logger.Infof("subscribed to %d partitions, %d messages to read", r.checkpoints.Len(), r.halt.Remaining(r.checkpoints))
	}

	if moved {
		return r.writer.State(r.checkpoints.State())
	}

	return nil
}

// handle emits the record of one message followed by its checkpoint
func (r *reader) handle(msg *sarama.ConsumerMessage) error {
	if msg != nil {
		// bounded streams stop at the snapshot, later messages belong to the next run
		if watermark, bounded := r.halt.Watermark(msg.Topic, msg.Partition); bounded && msg.Offset >= watermark {
			return r.advance(checkpoint.Checkpoint{Stream: msg.Topic, Partition: msg.Partition, Offset: watermark})
		}
	}

	record, delta, err := kafka.ProcessMessage(msg, r.includeMetadata)
	if err != nil {
		return err
	}

	if _, tracked := r.checkpoints.Offset(delta.Stream, delta.Partition); !tracked {
		return utils.ProcessingError.New("received message of unassigned partition %s", delta)
	}
	if !r.checkpoints.Advances(delta) {
		logger.Debugf("skipping already emitted message %s", delta)
		return nil
	}

	if err := r.writer.Record(record); err != nil {
		return errorx.Decorate(err, "failed to write record")
	}
	if err := r.writer.State(delta.State()); err != nil {
		return errorx.Decorate(err, "failed to write state")
	}

	r.checkpoints.Add(delta)
	r.emitted++
	r.metrics.Record(delta.Stream)
	r.metrics.Offset(delta.Stream, delta.Partition, delta.Offset)
	return nil
}

// advance moves a checkpoint without emitting a record
func (r *reader) advance(delta checkpoint.Checkpoint) error {
	if !r.checkpoints.Advances(delta) {
		return nil
	}

	if err := r.writer.State(delta.State()); err != nil {
		return errorx.Decorate(err, "failed to write state")
	}

	r.checkpoints.Add(delta)
	r.metrics.Offset(delta.Stream, delta.Partition, delta.Offset)
	return nil
}

// flush persists the full checkpoint set
func (r *reader) flush(ctx context.Context) error {
	state := r.checkpoints.State()
	if err := logger.SaveState(state); err != nil {
		return utils.StateError.Wrap(err, "failed to save state file")
	}

	if r.persist != nil {
		if err := r.persist(ctx, state); err != nil {
			return err
		}
	}

	r.flushed = r.emitted
	return nil
}

func errorName(err error) string {
	if e := errorx.Cast(err); e != nil {
		return e.Type().String()
	}

	return "unknown"
}
