package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ActivityConsumer drains the attendance and payment queues and appends a
// single human readable line per event to <Dir>/activity.log.
type ActivityConsumer struct {
	URL string
	Dir string
	Log *slog.Logger
}

func NewActivityConsumer(url, dir string, log *slog.Logger) *ActivityConsumer {
	if dir == "" {
		dir = "logs"
	}
	return &ActivityConsumer{URL: url, Dir: dir, Log: log}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the broker goes away.
func (c *ActivityConsumer) Run(ctx context.Context) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := dialContext(ctx, c.URL)
		if err != nil {
			c.Log.Warn("activity-consumer: dial failed", "err", err, "retry_in", backoff.String())
			if !sleepCtx(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.Log.Warn("activity-consumer: consume loop ended; reconnecting", "err", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return
		}
	}
}

func (c *ActivityConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("activity-consumer: set QoS failed", "err", err)
	}

	var streams []<-chan amqp.Delivery
	for _, q := range []string{AttendanceRecordedQueue, PaymentRecordedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		streams = append(streams, msgs)
	}

	attendance, payment := streams[0], streams[1]
	for {
		var (
			d  amqp.Delivery
			ok bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-attendance:
		case d, ok = <-payment:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.HandleMessage(d.Body); err != nil {
			c.Log.Error("activity-consumer: handle message failed", "err", err)
			_ = d.Nack(false, false) // do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

// HandleMessage decodes one event and appends its log line.
func (c *ActivityConsumer) HandleMessage(body []byte) error {
	var env struct {
		ID         string          `json:"id"`
		Type       string          `json:"type"`
		OccurredAt time.Time       `json:"occurred_at"`
		Data       json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	var line string
	switch env.Type {
	case AttendanceRecordedQueue:
		var ev AttendanceRecorded
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return fmt.Errorf("unmarshal attendance: %w", err)
		}
		remaining := "unlimited"
		if ev.RemainingClasses != nil {
			remaining = fmt.Sprint(*ev.RemainingClasses)
		}
		line = fmt.Sprintf("[%s] Check-in | attendance_id=%d | user_id=%d | class=%q | session_id=%d | date=%s | membership_id=%d | remaining=%s\n",
			ev.CheckInAt, ev.AttendanceID, ev.UserID, ev.ClassName, ev.SessionID, ev.SessionDate, ev.MembershipID, remaining)
	case PaymentRecordedQueue:
		var ev PaymentRecorded
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return fmt.Errorf("unmarshal payment: %w", err)
		}
		line = fmt.Sprintf("[%s] Payment | payment_id=%d | user_id=%d | plan=%q | membership_id=%d | amount=%d cents | method=%s\n",
			ev.PaidAt, ev.PaymentID, ev.UserID, ev.PlanName, ev.MembershipID, ev.AmountCents, ev.Method)
	default:
		return fmt.Errorf("unknown event type %q", env.Type)
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(c.Dir, "activity.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
