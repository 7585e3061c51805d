//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"namereg/internal/audit"
	"namereg/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())
}

func (s *KafkaSinkSuite) TearDownSuite() {
	_ = s.redpanda.Container.Terminate(context.Background())
}

func (s *KafkaSinkSuite) TestExportRoundTrip() {
	const topic = "namereg.audit.test"
	ctx := context.Background()

	producer := s.redpanda.NewClient(s.T(), kgo.AllowAutoTopicCreation())
	defer producer.Close()

	sink := audit.NewKafkaSink(producer, topic, slog.New(slog.NewTextHandler(io.Discard, nil)))
	store := audit.NewMemoryStore()

	entry, err := store.Append(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		Actor:     "root",
		Action:    audit.ActionNameRegistered,
		Subject:   "abc",
	})
	s.Require().NoError(err)

	sink.Export(ctx, entry)
	s.Require().NoError(producer.Flush(ctx))

	consumer := s.redpanda.NewClient(s.T(),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().Len(records, 1)

	var exported audit.Entry
	s.Require().NoError(json.Unmarshal(records[0].Value, &exported))
	s.Equal(entry.Sequence, exported.Sequence)
	s.Equal(entry.Checksum, exported.Checksum)
	s.Equal(audit.ActionNameRegistered, exported.Action)
}
