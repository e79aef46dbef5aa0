package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"stocktalk/internal/middleware"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by post id, so events of
// one post keep their order within a partition.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher creates a synchronous writer that waits for the leader ack.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(ev.PostID), 10)),
		Value: payload,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	return p.w.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Driver() string { return "kafka" }

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// ConsumeKafka reads events from topic with the given consumer group until ctx
// is done, committing each message after onEvent returns.
func ConsumeKafka(ctx context.Context, brokers []string, groupID, topic string, onEvent func(Event)) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
	defer func() { _ = reader.Close() }()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			middleware.Logger.Warn("Skipping malformed event",
				slog.Int64("offset", m.Offset), slog.String("error", err.Error()))
		} else {
			onEvent(ev)
		}

		if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			middleware.Logger.Warn("Kafka commit failed", slog.String("error", err.Error()))
		}
	}
}
