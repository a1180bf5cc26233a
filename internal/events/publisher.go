// Package events publishes the console's audit trail: one event per
// successful order mutation, keyed by order id, with the acting session in
// the metadata.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/comercio-labs/admin-console-service/internal/config"
	"github.com/comercio-labs/admin-console-service/internal/models"
	"github.com/comercio-labs/admin-console-service/internal/session"
)

// EventType identifies an audit event.
type EventType string

const (
	EventTypeOrderCreated EventType = "order.created"
	EventTypeOrderUpdated EventType = "order.updated"
	EventTypeOrderDeleted EventType = "order.deleted"
)

// AuditEvent is the published payload.
type AuditEvent struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	OrderID   string            `json:"order_id"`
	Data      json.RawMessage   `json:"data,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp time.Time         `json:"timestamp"`
}

// Publisher records order mutations. Implementations must be safe for
// concurrent use.
type Publisher interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderUpdated(ctx context.Context, order *models.Order) error
	OrderDeleted(ctx context.Context, orderID string) error
	Close() error
}

// KafkaPublisher publishes audit events to Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		topic:  cfg.AuditTopic,
		logger: logger,
	}
}

func (p *KafkaPublisher) OrderCreated(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.publish(ctx, newEvent(ctx, EventTypeOrderCreated, order.ID, data))
}

func (p *KafkaPublisher) OrderUpdated(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.publish(ctx, newEvent(ctx, EventTypeOrderUpdated, order.ID, data))
}

func (p *KafkaPublisher) OrderDeleted(ctx context.Context, orderID string) error {
	return p.publish(ctx, newEvent(ctx, EventTypeOrderDeleted, orderID, nil))
}

func (p *KafkaPublisher) publish(ctx context.Context, event *AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("audit publish failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return err
	}

	p.logger.Debug("audit event published",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("order_id", event.OrderID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.logger.Info("closing audit publisher")
	return p.writer.Close()
}

func newEvent(ctx context.Context, eventType EventType, orderID string, data []byte) *AuditEvent {
	event := &AuditEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		OrderID:   orderID,
		Data:      data,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UTC(),
	}
	if sessionID, ok := session.IDFromContext(ctx); ok {
		event.Metadata["session_id"] = sessionID
	}
	return event
}

// NopPublisher is used when no Kafka brokers are configured.
type NopPublisher struct{}

var _ Publisher = (*NopPublisher)(nil)

func (NopPublisher) OrderCreated(context.Context, *models.Order) error { return nil }
func (NopPublisher) OrderUpdated(context.Context, *models.Order) error { return nil }
func (NopPublisher) OrderDeleted(context.Context, string) error        { return nil }
func (NopPublisher) Close() error                                      { return nil }

// MockPublisher records events for tests.
type MockPublisher struct {
	Events []*AuditEvent
}

var _ Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) OrderCreated(ctx context.Context, order *models.Order) error {
	m.Events = append(m.Events, newEvent(ctx, EventTypeOrderCreated, order.ID, nil))
	return nil
}

func (m *MockPublisher) OrderUpdated(ctx context.Context, order *models.Order) error {
	m.Events = append(m.Events, newEvent(ctx, EventTypeOrderUpdated, order.ID, nil))
	return nil
}

func (m *MockPublisher) OrderDeleted(ctx context.Context, orderID string) error {
	m.Events = append(m.Events, newEvent(ctx, EventTypeOrderDeleted, orderID, nil))
	return nil
}

func (m *MockPublisher) Close() error { return nil }
