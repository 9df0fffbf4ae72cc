package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-membership/internal/model"
)

const paymentColumns = "id, user_id, plan_id, paid_at, amount_cents, method, notes, created_at"

// PaymentRepo stores payments.  Payments are immutable once written, so
// there is no update or delete.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts p inside tx and sets its ID.  Callers verify the plan
// first, so a foreign key failure means the user is missing.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	p.CreatedAt = nowUTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO payments (user_id, plan_id, paid_at, amount_cents, method, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.UserID, p.PlanID, p.PaidAt.UTC(), p.Amount, p.Method, p.Notes, p.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payments WHERE id = ?", id)
	p, err := scanPayment(row)
	return p, notFound(err, ErrPaymentNotFound)
}

// List returns payments newest first; userID 0 means every user.
func (r *PaymentRepo) List(ctx context.Context, userID uint64) ([]*model.Payment, error) {
	q := "SELECT " + paymentColumns + " FROM payments"
	var args []any
	if userID != 0 {
		q += " WHERE user_id = ?"
		args = append(args, userID)
	}
	q += " ORDER BY paid_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPayment(s rowScanner) (*model.Payment, error) {
	var p model.Payment
	if err := s.Scan(&p.ID, &p.UserID, &p.PlanID, &p.PaidAt, &p.Amount, &p.Method, &p.Notes, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
