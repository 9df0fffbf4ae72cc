package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/gym-membership/internal/model"
)

const sessionSelect = `SELECT s.id, s.class_id, COALESCE(c.name, ''), s.session_date, s.start_time, s.end_time,
       (SELECT COUNT(*) FROM attendances a WHERE a.session_id = s.id), s.created_at, s.updated_at
  FROM class_sessions s LEFT JOIN classes c ON c.id = s.class_id`

// SessionRepo stores dated class sessions.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts s.  A second session for the same class, date and start
// time yields ErrDuplicate; an unknown class yields ErrClassNotFound.
func (r *SessionRepo) Create(ctx context.Context, s *model.ClassSession) error {
	return r.create(ctx, r.db, s)
}

func (r *SessionRepo) create(ctx context.Context, q querier, s *model.ClassSession) error {
	now := nowUTC()
	res, err := q.ExecContext(ctx,
		"INSERT INTO class_sessions (class_id, session_date, start_time, end_time, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		s.ClassID, s.Date, s.StartTime, s.EndTime, now, now)
	if err != nil {
		switch {
		case isDuplicate(err):
			return ErrDuplicate
		case isForeignKeyViolation(err):
			return ErrClassNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.ClassSession, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *SessionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.ClassSession, error) {
	return r.getByID(ctx, tx, id)
}

func (r *SessionRepo) getByID(ctx context.Context, q querier, id uint64) (*model.ClassSession, error) {
	s, err := scanSession(q.QueryRowContext(ctx, sessionSelect+" WHERE s.id = ?", id))
	return s, notFound(err, ErrSessionNotFound)
}

// LockTx locks the session row until tx ends.  Check-ins against a capped
// session take it before counting attendees.
func (r *SessionRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var got uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM class_sessions WHERE id = ?"+forUpdate(r.db), id).Scan(&got)
	return notFound(err, ErrSessionNotFound)
}

// ListByClass returns a class's sessions ordered by date and start time.
func (r *SessionRepo) ListByClass(ctx context.Context, classID uint64) ([]*model.ClassSession, error) {
	rows, err := r.db.QueryContext(ctx, sessionSelect+" WHERE s.class_id = ? ORDER BY s.session_date, s.start_time", classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.ClassSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindOrCreateTx returns the session of class c on day, creating it from
// the class's schedule when missing.
func (r *SessionRepo) FindOrCreateTx(ctx context.Context, tx *sql.Tx, c *model.Class, day model.Date) (*model.ClassSession, error) {
	find := func() (*model.ClassSession, error) {
		s, err := scanSession(tx.QueryRowContext(ctx,
			sessionSelect+" WHERE s.class_id = ? AND s.session_date = ? AND s.start_time = ?", c.ID, day, c.StartTime))
		return s, notFound(err, ErrSessionNotFound)
	}
	s, err := find()
	if err == nil || !errors.Is(err, ErrSessionNotFound) {
		return s, err
	}
	s = &model.ClassSession{ClassID: c.ID, ClassName: c.Name, Date: day, StartTime: c.StartTime, EndTime: c.EndTime}
	if err := r.create(ctx, tx, s); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return find()
		}
		return nil, err
	}
	return s, nil
}

func (r *SessionRepo) Update(ctx context.Context, s *model.ClassSession) error {
	s.UpdatedAt = nowUTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE class_sessions SET session_date = ?, start_time = ?, end_time = ?, updated_at = ? WHERE id = ?",
		s.Date, s.StartTime, s.EndTime, s.UpdatedAt, s.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a session and its attendances.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM attendances WHERE session_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM class_sessions WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}

func scanSession(s rowScanner) (*model.ClassSession, error) {
	var cs model.ClassSession
	if err := s.Scan(&cs.ID, &cs.ClassID, &cs.ClassName, &cs.Date, &cs.StartTime, &cs.EndTime, &cs.Attendees, &cs.CreatedAt, &cs.UpdatedAt); err != nil {
		return nil, err
	}
	return &cs, nil
}
