package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-membership/internal/model"
)

const classColumns = "id, name, weekday, start_time, end_time, capacity, instructor, created_at, updated_at"

// ClassRepo stores the weekly class catalog.
type ClassRepo struct {
	db *sql.DB
}

func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{db: db} }

func (r *ClassRepo) Create(ctx context.Context, c *model.Class) error {
	now := nowUTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO classes (name, weekday, start_time, end_time, capacity, instructor, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Weekday, c.StartTime, c.EndTime, c.Capacity, c.Instructor, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (r *ClassRepo) GetByID(ctx context.Context, id uint64) (*model.Class, error) {
	return r.getByID(ctx, r.db, id)
}

func (r *ClassRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Class, error) {
	return r.getByID(ctx, tx, id)
}

func (r *ClassRepo) getByID(ctx context.Context, q querier, id uint64) (*model.Class, error) {
	row := q.QueryRowContext(ctx, "SELECT "+classColumns+" FROM classes WHERE id = ?", id)
	c, err := scanClass(row)
	return c, notFound(err, ErrClassNotFound)
}

// List returns the catalog ordered by id.
func (r *ClassRepo) List(ctx context.Context) ([]*model.Class, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+classColumns+" FROM classes ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Class{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ClassRepo) Update(ctx context.Context, c *model.Class) error {
	c.UpdatedAt = nowUTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE classes SET name = ?, weekday = ?, start_time = ?, end_time = ?, capacity = ?, instructor = ?, updated_at = ? WHERE id = ?",
		c.Name, c.Weekday, c.StartTime, c.EndTime, c.Capacity, c.Instructor, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a class, its sessions and their attendances in one
// transaction.
func (r *ClassRepo) Delete(ctx context.Context, id uint64) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := r.getByID(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM attendances WHERE session_id IN (SELECT id FROM class_sessions WHERE class_id = ?)", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM class_sessions WHERE class_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM classes WHERE id = ?", id)
		return err
	})
}

func scanClass(s rowScanner) (*model.Class, error) {
	var c model.Class
	if err := s.Scan(&c.ID, &c.Name, &c.Weekday, &c.StartTime, &c.EndTime, &c.Capacity, &c.Instructor, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
