package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hackgods/spa-bookings/internal/booking"
)

// EventMessage is the JSON body published for each booking event.
type EventMessage struct {
	Type            booking.EventType `json:"type"`
	OccurredAt      time.Time         `json:"occurredAt"`
	BookingID       string            `json:"bookingId"`
	Service         string            `json:"service"`
	TherapistName   string            `json:"therapistName"`
	CustomerName    string            `json:"customerName"`
	CustomerPhone   string            `json:"customerPhone"`
	Price           string            `json:"price"`
	DurationMinutes int               `json:"durationMinutes"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	PaymentStatus   string            `json:"paymentStatus"`
}

func NewEventMessage(ev booking.Event) EventMessage {
	b := ev.Booking
	return EventMessage{
		Type:            ev.Type,
		OccurredAt:      ev.At,
		BookingID:       b.ID.String(),
		Service:         b.Service,
		TherapistName:   b.TherapistName,
		CustomerName:    b.CustomerName,
		CustomerPhone:   b.CustomerPhone,
		Price:           b.Price.StringFixed(2),
		DurationMinutes: b.DurationMinutes,
		StartTime:       booking.FormatTime(b.StartTime),
		EndTime:         booking.FormatTime(b.EndTime()),
		PaymentStatus:   string(b.PaymentStatus),
	}
}

// AMQPPublisher publishes events to a topic exchange keyed by event type.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Notify(ctx context.Context, ev booking.Event) error {
	body, err := json.Marshal(NewEventMessage(ev))
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	// amqp channels are not safe for concurrent publishes
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.At,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
