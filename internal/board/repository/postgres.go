package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"task-board/backend/internal/board/domain"
	"task-board/backend/internal/db"
)

// Postgres error codes mapped to domain errors.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

type PostgresRepository struct {
	db  db.DBTX
	now func() time.Time
}

// NewPostgresRepository returns a board repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, now: time.Now}
}

const taskColumns = `id, column_id, title, description, due_date, assignees, priority, tags, completed, created_by, created_at, updated_at`

// ListColumns returns the board columns in display order.
func (r *PostgresRepository) ListColumns(ctx context.Context) ([]*domain.Column, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, position FROM board_columns ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*domain.Column
	for rows.Next() {
		var c domain.Column
		if err := rows.Scan(&c.ID, &c.Title, &c.Position); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// ListTasks returns every task, oldest first.
func (r *PostgresRepository) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// GetTask returns the task for id, or nil if not found.
func (r *PostgresRepository) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// CreateTask inserts t. Returns ErrTaskExists for a duplicate id and ErrColumnNotFound for an unknown column.
func (r *PostgresRepository) CreateTask(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	now := r.now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.ColumnID, t.Title, t.Description, t.DueDate, t.Assignees, t.Priority, tags, t.Completed,
		t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return mapWriteError(err)
}

// UpdateTask overwrites the mutable fields of t. Returns ErrTaskNotFound if no row matched.
func (r *PostgresRepository) UpdateTask(ctx context.Context, t *domain.Task) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	t.UpdatedAt = r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET column_id = $2, title = $3, description = $4, due_date = $5, assignees = $6,
		priority = $7, tags = $8, completed = $9, updated_at = $10 WHERE id = $1`,
		t.ID, t.ColumnID, t.Title, t.Description, t.DueDate, t.Assignees, t.Priority, tags, t.Completed, t.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return expectOneRow(res)
}

// DeleteTask removes the task. Returns ErrTaskNotFound if no row matched.
func (r *PostgresRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.ErrTaskExists
		case pgForeignKeyViolation:
			return domain.ErrColumnNotFound
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*domain.Task, error) {
	var t domain.Task
	var tags []byte
	if err := s.Scan(&t.ID, &t.ColumnID, &t.Title, &t.Description, &t.DueDate, &t.Assignees, &t.Priority,
		&tags, &t.Completed, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &t.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &t, nil
}
