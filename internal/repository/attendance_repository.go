package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/gym-membership/internal/model"
)

const attendanceSelect = `SELECT a.id, a.user_id, a.session_id, a.membership_id, a.check_in_at, a.check_out_at,
       s.class_id, COALESCE(c.name, ''), s.session_date, a.created_at
  FROM attendances a
  JOIN class_sessions s ON s.id = a.session_id
  LEFT JOIN classes c ON c.id = s.class_id`

// AttendanceRepo records check-ins.  The unique (user_id, session_id) index
// is what guarantees a single check-in per session.
type AttendanceRepo struct {
	db *sql.DB
}

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

// CreateTx inserts a inside tx.  A second check-in for the same user and
// session returns ErrDuplicate.
func (r *AttendanceRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.Attendance) error {
	a.CreatedAt = nowUTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO attendances (user_id, session_id, membership_id, check_in_at, created_at) VALUES (?, ?, ?, ?, ?)",
		a.UserID, a.SessionID, a.MembershipID, a.CheckInAt.UTC(), a.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// ExistsTx reports whether the user already checked into the session.
func (r *AttendanceRepo) ExistsTx(ctx context.Context, tx *sql.Tx, userID, sessionID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendances WHERE user_id = ? AND session_id = ?", userID, sessionID).Scan(&n)
	return n > 0, err
}

// CountBySessionTx returns how many check-ins a session has.  On MySQL it is
// a locking read, so it sees rows committed after the transaction's snapshot.
func (r *AttendanceRepo) CountBySessionTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendances WHERE session_id = ?"+forUpdate(r.db), sessionID).Scan(&n)
	return n, err
}

func (r *AttendanceRepo) GetByID(ctx context.Context, id uint64) (*model.Attendance, error) {
	a, err := scanAttendance(r.db.QueryRowContext(ctx, attendanceSelect+" WHERE a.id = ?", id))
	return a, notFound(err, ErrAttendanceNotFound)
}

// ListByUser returns a user's attendances, most recent first.
func (r *AttendanceRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Attendance, error) {
	return r.list(ctx, " WHERE a.user_id = ? ORDER BY a.check_in_at DESC, a.id DESC", userID)
}

// ListBySession returns the attendees of a session in check-in order.
func (r *AttendanceRepo) ListBySession(ctx context.Context, sessionID uint64) ([]*model.Attendance, error) {
	return r.list(ctx, " WHERE a.session_id = ? ORDER BY a.check_in_at, a.id", sessionID)
}

func (r *AttendanceRepo) list(ctx context.Context, tail string, args ...any) ([]*model.Attendance, error) {
	rows, err := r.db.QueryContext(ctx, attendanceSelect+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Attendance{}
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CheckOut stamps the check-out time once.  A second call returns
// ErrConflict.
func (r *AttendanceRepo) CheckOut(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE attendances SET check_out_at = ? WHERE id = ? AND check_out_at IS NULL", at.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

func scanAttendance(s rowScanner) (*model.Attendance, error) {
	var (
		a   model.Attendance
		day model.Date
	)
	if err := s.Scan(&a.ID, &a.UserID, &a.SessionID, &a.MembershipID, &a.CheckInAt, &a.CheckOutAt,
		&a.ClassID, &a.ClassName, &day, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.SessionDate = &day
	return &a, nil
}
