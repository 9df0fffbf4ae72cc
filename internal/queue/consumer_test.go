package queue

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHandleMessageAppendsActivityLines(t *testing.T) {
	dir := t.TempDir()
	c := NewActivityConsumer("", dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	remaining := 7
	att, _ := json.Marshal(NewEvent(AttendanceRecordedQueue, AttendanceRecorded{
		AttendanceID: 3, UserID: 9, SessionID: 4, ClassName: "Yoga", SessionDate: "2024-01-02",
		MembershipID: 2, RemainingClasses: &remaining, CheckInAt: "2024-01-02T09:00:00Z",
	}))
	pay, _ := json.Marshal(NewEvent(PaymentRecordedQueue, PaymentRecorded{
		PaymentID: 5, UserID: 9, PlanName: "Mensual", AmountCents: 4990, Method: "cash", PaidAt: "2024-01-01T10:00:00Z",
	}))
	for _, body := range [][]byte{att, pay} {
		if err := c.HandleMessage(body); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "activity.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), data)
	}
	if !strings.Contains(lines[0], "attendance_id=3") || !strings.Contains(lines[0], "remaining=7") {
		t.Fatalf("attendance line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "amount=4990 cents") || !strings.Contains(lines[1], `plan="Mensual"`) {
		t.Fatalf("payment line = %q", lines[1])
	}
}

func TestHandleMessageRejectsUnknownType(t *testing.T) {
	c := NewActivityConsumer("", t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	body, _ := json.Marshal(NewEvent("booking.confirmed", map[string]int{"x": 1}))
	if err := c.HandleMessage(body); err == nil {
		t.Fatal("expected error for unknown event type")
	}
	if err := c.HandleMessage([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestNewEventIDsAreUnique(t *testing.T) {
	a := NewEvent(PaymentRecordedQueue, nil)
	b := NewEvent(PaymentRecordedQueue, nil)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids not unique: %q %q", a.ID, b.ID)
	}
}
