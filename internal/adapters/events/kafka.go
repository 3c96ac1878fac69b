// internal/adapters/events/kafka.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ammerola/stock-ledger/internal/core/domain"
	"github.com/ammerola/stock-ledger/internal/core/ports"
)

// EventMovementRecorded is the event type stamped on every ledger message.
const EventMovementRecorded = "stock.movement.recorded"

// MovementEvent is the Kafka payload for one appended movement.
type MovementEvent struct {
	EventType  string                 `json:"event_type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Movement   *domain.MovementRecord `json:"movement"`
}

// KafkaConfig holds producer settings.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes movements keyed by stock id, so every consumer
// sees one stock record's history in ledger order.
type KafkaPublisher struct {
	writer     messageWriter
	propagator propagation.TextMapPropagator
	logger     *slog.Logger
}

var _ ports.MovementPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher backed by a kafka.Writer.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(writer messageWriter, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:     writer,
		propagator: otel.GetTextMapPropagator(),
		logger:     logger.With(slog.String("component", "kafka_publisher")),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, movement *domain.MovementRecord) error {
	value, err := json.Marshal(MovementEvent{
		EventType:  EventMovementRecorded,
		OccurredAt: movement.CreatedAt,
		Movement:   movement,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal movement event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(movement.StockID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventMovementRecorded)},
			{Key: "movement_type", Value: []byte(movement.MovementType)},
		},
	}
	p.propagator.Inject(ctx, headerCarrier{headers: &msg.Headers})

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to produce movement %s: %w", movement.ID, err)
	}

	p.logger.DebugContext(ctx, "movement published",
		slog.String("movement_id", movement.ID.String()),
		slog.String("stock_id", movement.StockID.String()))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// headerCarrier lets the otel propagator read and write Kafka headers.
type headerCarrier struct {
	headers *[]kafka.Header
}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(*c.headers))
	for i, h := range *c.headers {
		keys[i] = h.Key
	}
	return keys
}

// NoopPublisher drops every movement. It stands in when no broker is set.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *domain.MovementRecord) error { return nil }

func (NoopPublisher) Close() error { return nil }
