package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends domain events.  Callers treat failures as non fatal: the
// database transaction has already committed when an event is published.
type Publisher interface {
	Publish(ctx context.Context, queue string, data any) error
}

// AMQPPublisher publishes to RabbitMQ through the default exchange, using
// the queue name as routing key.  Each publish dials its own connection.
type AMQPPublisher struct {
	URL string
	Log *slog.Logger
}

func NewAMQPPublisher(url string, log *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Log: log}
}

// Publish declares the durable queue and sends data wrapped in an Event as
// a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, data any) error {
	conn, err := dialContext(ctx, p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq dial failed", "queue", queue, "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq channel open failed", "queue", queue, "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.Log.Warn("rabbitmq queue declare failed", "queue", queue, "err", err)
		return err
	}

	ev := NewEvent(queue, data)
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         queue,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.Log.Warn("rabbitmq publish failed", "queue", queue, "err", err)
		return err
	}
	return nil
}

// dialContext is amqp.Dial bounded by ctx: the TCP dial honours
// cancellation and the handshake inherits ctx's deadline.
func dialContext(ctx context.Context, url string) (*amqp.Connection, error) {
	var d net.Dialer
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if dl, ok := ctx.Deadline(); ok {
				if err := conn.SetDeadline(dl); err != nil {
					_ = conn.Close()
					return nil, err
				}
			}
			return conn, nil
		},
	})
}

// NopPublisher drops every event; used when EVENTS_ENABLED is off.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
