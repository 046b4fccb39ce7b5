// Package service holds the application services behind the HTTP handlers:
// canvas sessions, the guest directory and event publishing.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/iliyamo/desk-reservation-planner/internal/queue"
)

// Publisher sends domain events to the broker.  Failures are returned so the
// caller can decide to ignore them; publishing never blocks the main flow.
type Publisher interface {
	PublishReservationExpired(ctx context.Context, ev q.ReservationExpiredEvent) error
	PublishGuestMessage(ctx context.Context, ev q.GuestMessageEvent) error
}

// QueuePublisher publishes persistent JSON messages to RabbitMQ.  It dials a
// fresh connection per message, which is plenty for the low event rate of
// the planner and survives broker restarts without reconnect logic.
type QueuePublisher struct {
	url    string
	logger *zap.Logger
}

// NewQueuePublisher returns a publisher for the broker at url.
func NewQueuePublisher(url string, logger *zap.Logger) *QueuePublisher {
	if url == "" {
		url = q.DefaultURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueuePublisher{url: url, logger: logger.Named("rabbitmq")}
}

func (p *QueuePublisher) PublishReservationExpired(ctx context.Context, ev q.ReservationExpiredEvent) error {
	return p.publish(ctx, q.ReservationExpiredQueue, ev)
}

func (p *QueuePublisher) PublishGuestMessage(ctx context.Context, ev q.GuestMessageEvent) error {
	return p.publish(ctx, q.GuestMessageQueue, ev)
}

func (p *QueuePublisher) publish(ctx context.Context, queue string, event any) error {
	log := p.logger.With(zap.String("queue", queue))

	body, err := json.Marshal(event)
	if err != nil {
		log.Error("marshal event failed", zap.Error(err))
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Warn("dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Warn("queue declare failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.Warn("publish failed", zap.Error(err))
		return err
	}
	return nil
}

// LogPublisher writes events to the structured log instead of a broker.  It
// is used when QUEUE_ENABLED is false.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) PublishReservationExpired(_ context.Context, ev q.ReservationExpiredEvent) error {
	p.logger.Info("reservation expired",
		zap.String("floor", ev.FloorName),
		zap.String("desk", ev.DeskLabel),
		zap.String("guest", ev.GuestName),
		zap.String("reserved_until", ev.ReservedUntil),
	)
	return nil
}

func (p *LogPublisher) PublishGuestMessage(_ context.Context, ev q.GuestMessageEvent) error {
	p.logger.Info("guest message",
		zap.String("floor", ev.FloorName),
		zap.String("desk", ev.DeskLabel),
		zap.String("guest", ev.GuestName),
		zap.String("phone", ev.Phone),
		zap.String("message", ev.Message),
	)
	return nil
}
