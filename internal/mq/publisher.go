package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/time/rate"

	"github.com/shaiso/Deployer/internal/progress"
)

// MessageType — тип сообщения. Используется и как routing key.
type MessageType string

// Типы сообщений.
const (
	MessageTypeFlowStep         MessageType = "flow.step"
	MessageTypeTransferProgress MessageType = "transfer.progress"
	MessageTypeCommandOutput    MessageType = "command.output"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// StepPayload — payload сообщения flow.step.
type StepPayload struct {
	Stream uuid.UUID `json:"stream"`
	Flow   string    `json:"flow"`
	Host   string    `json:"host,omitempty"`
	Step   int       `json:"step"`
}

// TransferPayload — payload сообщения transfer.progress.
type TransferPayload struct {
	Stream uuid.UUID      `json:"stream"`
	Flow   string         `json:"flow"`
	Event  progress.Event `json:"event"`
}

// OutputPayload — payload сообщения command.output.
type OutputPayload struct {
	Stream uuid.UUID `json:"stream"`
	Flow   string    `json:"flow"`
	Output string    `json:"output"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Transient,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
		)
		return nil
	})
}

// MessagePublisher — то, что нужно ProgressPublisher. Реализуется *Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error
}

// DefaultProgressInterval — минимальный интервал между событиями
// transfer.progress одной передачи.
const DefaultProgressInterval = 500 * time.Millisecond

// ProgressPublisher — progress.Sink, публикующий события в RabbitMQ.
//
// Промежуточные события байтового прогресса прореживаются через
// rate.Sometimes; завершающее событие (processed == total) публикуется
// всегда. Ошибки публикации логируются и не прерывают flow.
type ProgressPublisher struct {
	pub    MessagePublisher
	stream uuid.UUID
	flow   string
	host   string
	logger *slog.Logger

	interval  time.Duration
	mu        sync.Mutex
	sometimes *rate.Sometimes
}

// NewProgressPublisher создаёт ProgressPublisher для одного запуска flow.
// interval <= 0 заменяется на DefaultProgressInterval.
func NewProgressPublisher(pub MessagePublisher, flow, host string, interval time.Duration, logger *slog.Logger) *ProgressPublisher {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressPublisher{
		pub:       pub,
		stream:    uuid.New(),
		flow:      flow,
		host:      host,
		logger:    logger,
		interval:  interval,
		sometimes: &rate.Sometimes{First: 1, Interval: interval},
	}
}

// Stream возвращает идентификатор потока событий этого запуска.
func (p *ProgressPublisher) Stream() uuid.UUID {
	return p.stream
}

// StepChanged реализует progress.Sink.
func (p *ProgressPublisher) StepChanged(ctx context.Context, index int) {
	p.resetThrottle()
	p.publish(ctx, MessageTypeFlowStep, StepPayload{Stream: p.stream, Flow: p.flow, Host: p.host, Step: index})
}

// Progress реализует progress.Sink.
func (p *ProgressPublisher) Progress(ctx context.Context, ev progress.Event) {
	payload := TransferPayload{Stream: p.stream, Flow: p.flow, Event: ev}

	if ev.Done() {
		p.publish(ctx, MessageTypeTransferProgress, payload)
		p.resetThrottle()
		return
	}

	p.mu.Lock()
	s := p.sometimes
	p.mu.Unlock()
	s.Do(func() {
		p.publish(ctx, MessageTypeTransferProgress, payload)
	})
}

// Output реализует progress.Sink.
func (p *ProgressPublisher) Output(ctx context.Context, chunk []byte) {
	p.publish(ctx, MessageTypeCommandOutput, OutputPayload{Stream: p.stream, Flow: p.flow, Output: string(chunk)})
}

// resetThrottle начинает прореживание заново: первое событие
// следующей передачи публикуется сразу.
func (p *ProgressPublisher) resetThrottle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sometimes = &rate.Sometimes{First: 1, Interval: p.interval}
}

func (p *ProgressPublisher) publish(ctx context.Context, msgType MessageType, payload any) {
	msg := NewMessage(msgType, payload)
	if err := p.pub.Publish(ctx, ExchangeProgress, RoutingKey(msgType), msg); err != nil {
		p.logger.Warn("failed to publish progress event", "type", msgType, "error", err)
	}
}
