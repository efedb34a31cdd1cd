package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teamloop/feedbackhub/internal/domain/feedback"
	"github.com/teamloop/feedbackhub/internal/domain/user"
	"github.com/teamloop/feedbackhub/internal/observability"
)

type FeedbackRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewFeedbackRepo(pool *pgxpool.Pool, prom *observability.Prom) *FeedbackRepo {
	return &FeedbackRepo{pool: pool, prom: prom}
}

func (r *FeedbackRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create validates the referenced employee and inserts the record inside one
// transaction, so the employee cannot disappear between check and insert.
func (r *FeedbackRepo) Create(ctx context.Context, req feedback.CreateRequest) (fb feedback.Feedback, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() { _ = tx.Rollback(ctx) }()

	var role string

	err = r.observe("feedback.create.employee_check", func() error {
		return tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, req.EmployeeID).Scan(&role)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = feedback.ErrEmployeeNotFound
		}
		return
	}

	if role != user.RoleEmployee {
		err = feedback.ErrEmployeeNotFound
		return
	}

	fb = feedback.NewFromCreateRequest(req)

	err = r.observe("feedback.create.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO feedbacks (id, employee_id, manager_id, strengths, improvements, sentiment, acknowledged, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, fb.ID, fb.EmployeeID, fb.ManagerID, fb.Strengths, fb.Improvements, fb.Sentiment, fb.Acknowledged, fb.CreatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			err = feedback.ErrEmployeeNotFound
		}
		return
	}

	err = tx.Commit(ctx)
	return
}

func (r *FeedbackRepo) ListForEmployee(ctx context.Context, employeeID string) ([]feedback.Feedback, error) {
	return r.list(ctx, "feedback.list_for_employee", `
		SELECT id, employee_id, manager_id, strengths, improvements, sentiment, acknowledged, created_at
		FROM feedbacks
		WHERE employee_id = $1
		ORDER BY created_at DESC, id`, employeeID)
}

func (r *FeedbackRepo) ListForManager(ctx context.Context, managerID string) ([]feedback.Feedback, error) {
	return r.list(ctx, "feedback.list_for_manager", `
		SELECT id, employee_id, manager_id, strengths, improvements, sentiment, acknowledged, created_at
		FROM feedbacks
		WHERE manager_id = $1
		ORDER BY created_at DESC, id`, managerID)
}

func (r *FeedbackRepo) list(ctx context.Context, op, query string, arg any) ([]feedback.Feedback, error) {
	items := make([]feedback.Feedback, 0)

	err := r.observe(op, func() error {
		rows, e := r.pool.Query(ctx, query, arg)
		if e != nil {
			return e
		}
		defer rows.Close()

		for rows.Next() {
			var fb feedback.Feedback
			e = rows.Scan(
				&fb.ID,
				&fb.EmployeeID,
				&fb.ManagerID,
				&fb.Strengths,
				&fb.Improvements,
				&fb.Sentiment,
				&fb.Acknowledged,
				&fb.CreatedAt,
			)
			if e != nil {
				return e
			}
			items = append(items, fb)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return items, nil
}

// SetAcknowledged flips the acknowledged flag in a single conditional UPDATE
// keyed by id AND owner, so two concurrent acknowledge calls never split a
// read-modify-write. Zero rows means "not found" whether the record is
// missing or belongs to a different employee; callers cannot distinguish.
func (r *FeedbackRepo) SetAcknowledged(ctx context.Context, id, employeeID string, acknowledged bool) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("feedback.set_acknowledged", func() error {
		tag, err = r.pool.Exec(ctx, `
		UPDATE feedbacks
		SET acknowledged = $3
		WHERE id = $1 AND employee_id = $2
	`, id, employeeID, acknowledged)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return feedback.ErrNotFound
	}
	return nil
}
