package kafka

import (
	"bytes"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"

	"github.com/datazip-inc/olake-kafka/constants"
	"github.com/datazip-inc/olake-kafka/pkg/checkpoint"
	"github.com/datazip-inc/olake-kafka/types"
	"github.com/datazip-inc/olake-kafka/utils"
)

// ProcessMessage turns a consumed message into a record of its topic's stream
// and the checkpoint delta that covers it (offset + 1).
func ProcessMessage(msg *sarama.ConsumerMessage, includeMetadata bool) (*types.Record, checkpoint.Checkpoint, error) {
	if msg == nil {
		return nil, checkpoint.Checkpoint{}, utils.DecodeError.New("received an empty message")
	}
	if msg.Topic == "" {
		return nil, checkpoint.Checkpoint{}, utils.DecodeError.New("message at offset %d carries no topic", msg.Offset)
	}
	if msg.Partition < 0 || msg.Offset < 0 {
		return nil, checkpoint.Checkpoint{}, utils.DecodeError.New("message of topic[%s] carries invalid partition[%d] or offset[%d]", msg.Topic, msg.Partition, msg.Offset)
	}

	delta := checkpoint.Checkpoint{Stream: msg.Topic, Partition: msg.Partition, Offset: msg.Offset + 1}

	data, err := decodeObject(msg.Value)
	if err != nil {
		return nil, delta, utils.ProcessingError.Wrap(err, "failed to process %s", checkpoint.Checkpoint{Stream: msg.Topic, Partition: msg.Partition, Offset: msg.Offset})
	}

	if includeMetadata {
		data[constants.KafkaMetadataField] = metadataOf(msg)
	}

	emittedAt := msg.Timestamp
	if emittedAt.UnixMilli() <= 0 {
		emittedAt = time.Now()
	}

	return &types.Record{
		Stream:    msg.Topic,
		Data:      data,
		EmittedAt: emittedAt.UnixMilli(),
	}, delta, nil
}

// decodeObject decodes a payload holding exactly one json object, keeping
// numbers as json.Number so large integers survive the round trip
func decodeObject(value []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(value)) == 0 {
		return nil, utils.ProcessingError.New("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(value))
	decoder.UseNumber()

	var data map[string]any
	if err := decoder.Decode(&data); err != nil {
		return nil, utils.ProcessingError.Wrap(err, "payload is not a json object")
	}
	if data == nil {
		return nil, utils.ProcessingError.New("payload is not a json object")
	}
	if decoder.More() {
		return nil, utils.ProcessingError.New("payload holds more than one json value")
	}

	return data, nil
}

func metadataOf(msg *sarama.ConsumerMessage) map[string]any {
	var key any
	if msg.Key != nil {
		key = string(msg.Key)
	}

	headers := make(map[string]string, len(msg.Headers))
	for _, header := range msg.Headers {
		if header == nil {
			continue
		}
		headers[string(header.Key)] = string(header.Value)
	}

	return map[string]any{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
		"key":       key,
		"headers":   headers,
	}
}
