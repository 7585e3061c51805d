package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink exports audit entries to a Kafka topic for downstream
// consumers. Produces are asynchronous; a failed produce is logged, never
// retried here.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaSink(client *kgo.Client, topic string, logger *slog.Logger) *KafkaSink {
	return &KafkaSink{client: client, topic: topic, logger: logger}
}

func (s *KafkaSink) Export(ctx context.Context, entry Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode audit entry", "error", err)
		return
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(strconv.FormatUint(entry.Sequence, 10)),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("failed to export audit entry",
				"sequence", entry.Sequence,
				"error", err,
			)
		}
	})
}
