package model

import "time"

// Class is a weekly scheduled activity.  Capacity nil means unbounded.
type Class struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Weekday    Weekday   `json:"weekday"`
	StartTime  Clock     `json:"start_time"`
	EndTime    Clock     `json:"end_time"`
	Capacity   *int      `json:"capacity"`
	Instructor *string   `json:"instructor"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ClassSession is one dated occurrence of a Class.
type ClassSession struct {
	ID        uint64    `json:"id"`
	ClassID   uint64    `json:"class_id"`
	ClassName string    `json:"class_name,omitempty"`
	Date      Date      `json:"date"`
	StartTime Clock     `json:"start_time"`
	EndTime   Clock     `json:"end_time"`
	Attendees int       `json:"attendees"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attendance records one check-in of a user into a session.  MembershipID
// points at the membership that paid for it and is cleared if that
// membership is removed.
type Attendance struct {
	ID           uint64     `json:"id"`
	UserID       uint64     `json:"user_id"`
	SessionID    uint64     `json:"session_id"`
	MembershipID *uint64    `json:"membership_id"`
	CheckInAt    time.Time  `json:"check_in_at"`
	CheckOutAt   *time.Time `json:"check_out_at"`
	ClassID      uint64     `json:"class_id,omitempty"`
	ClassName    string     `json:"class_name,omitempty"`
	SessionDate  *Date      `json:"session_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
