package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-membership/internal/model"
)

// RevenueRepo maintains the daily_revenue ledger.  Rows are only ever
// inserted, one per payment.
type RevenueRepo struct {
	db *sql.DB
}

func NewRevenueRepo(db *sql.DB) *RevenueRepo { return &RevenueRepo{db: db} }

// InsertTx appends the ledger row for a payment.  A second row for the same
// payment is rejected with ErrDuplicate.
func (r *RevenueRepo) InsertTx(ctx context.Context, tx *sql.Tx, rev *model.DailyRevenue) error {
	rev.CreatedAt = nowUTC()
	_, err := tx.ExecContext(ctx,
		"INSERT INTO daily_revenue (revenue_date, user_id, payment_id, amount_cents, method, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		rev.Date, rev.UserID, rev.PaymentID, rev.Amount, rev.Method, rev.CreatedAt)
	if err != nil && isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// List returns ledger rows within [from, to] (zero bounds are open),
// joined with the user's name, ordered by day.
func (r *RevenueRepo) List(ctx context.Context, from, to model.Date) ([]*model.DailyRevenue, error) {
	where, args := dateRange("d.revenue_date", from, to)
	rows, err := r.db.QueryContext(ctx,
		`SELECT d.revenue_date, d.user_id, COALESCE(u.name, ''), d.payment_id, d.amount_cents, d.method, d.created_at
		   FROM daily_revenue d LEFT JOIN users u ON u.id = d.user_id`+where+`
		  ORDER BY d.revenue_date, d.payment_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.DailyRevenue{}
	for rows.Next() {
		var d model.DailyRevenue
		if err := rows.Scan(&d.Date, &d.UserID, &d.UserName, &d.PaymentID, &d.Amount, &d.Method, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// Totals aggregates the ledger per day within [from, to].
func (r *RevenueRepo) Totals(ctx context.Context, from, to model.Date) ([]*model.DailyRevenueTotal, error) {
	where, args := dateRange("revenue_date", from, to)
	rows, err := r.db.QueryContext(ctx,
		`SELECT revenue_date, COUNT(*), COALESCE(SUM(amount_cents), 0)
		   FROM daily_revenue`+where+`
		  GROUP BY revenue_date ORDER BY revenue_date`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.DailyRevenueTotal{}
	for rows.Next() {
		var t model.DailyRevenueTotal
		if err := rows.Scan(&t.Date, &t.Payments, &t.Amount); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func dateRange(col string, from, to model.Date) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, col+" >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		conds = append(conds, col+" <= ?")
		args = append(args, to)
	}
	if len(conds) == 0 {
		return "", nil
	}
	where := " WHERE " + conds[0]
	for _, c := range conds[1:] {
		where += " AND " + c
	}
	return where, args
}
