// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the activity log consumer.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Queue names double as event types.
const (
	AttendanceRecordedQueue = "attendance.recorded"
	PaymentRecordedQueue    = "payment.recorded"
)

// Event is the envelope every message is wrapped in.  ID is unique per
// publish so consumers can de-duplicate redeliveries.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// NewEvent wraps data with a fresh id.
func NewEvent(eventType string, data any) Event {
	return Event{ID: uuid.NewString(), Type: eventType, OccurredAt: time.Now().UTC(), Data: data}
}

// AttendanceRecorded is published after a check-in commits.
type AttendanceRecorded struct {
	AttendanceID     uint64 `json:"attendance_id"`
	UserID           uint64 `json:"user_id"`
	SessionID        uint64 `json:"session_id"`
	ClassID          uint64 `json:"class_id"`
	ClassName        string `json:"class_name"`
	SessionDate      string `json:"session_date"`
	MembershipID     uint64 `json:"membership_id"`
	RemainingClasses *int   `json:"remaining_classes"`
	CheckInAt        string `json:"check_in_at"`
}

// PaymentRecorded is published after a payment, its revenue row and the
// resulting membership commit.
type PaymentRecorded struct {
	PaymentID    uint64 `json:"payment_id"`
	UserID       uint64 `json:"user_id"`
	PlanID       uint64 `json:"plan_id"`
	PlanName     string `json:"plan_name"`
	MembershipID uint64 `json:"membership_id"`
	AmountCents  int64  `json:"amount_cents"`
	Method       string `json:"method,omitempty"`
	PaidAt       string `json:"paid_at"`
}
