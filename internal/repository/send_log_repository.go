package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/popeskul/insdr-dispatch/internal/models"
)

var ErrInvalidPagination = errors.New("offset and limit must not be negative")

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type sendLogRepository struct {
	db *sqlx.DB
}

func NewSendLogRepository(db *sqlx.DB) SendLogRepository {
	return &sendLogRepository{
		db: db,
	}
}

// Create appends a send attempt. ID and CreatedAt are filled from the database.
func (r *sendLogRepository) Create(ctx context.Context, entry *models.SendLog) error {
	query := `
		INSERT INTO sms_logs (actor, recipient, message, url, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		entry.Actor, entry.Recipient, entry.Message, entry.URL, entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create send log: %w", err)
	}

	return nil
}

// List returns log rows newest first. A zero limit returns every matching row.
func (r *sendLogRepository) List(ctx context.Context, filter models.LogFilter) ([]*models.SendLog, error) {
	if filter.Offset < 0 || filter.Limit < 0 {
		return nil, ErrInvalidPagination
	}

	builder := psql.
		Select("id", "actor", "recipient", "message", "url", "status", "created_at").
		From("sms_logs").
		OrderBy("created_at DESC", "id DESC")

	if filter.Actor != "" {
		builder = builder.Where(sq.Eq{"actor": filter.Actor})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build send log query: %w", err)
	}

	logs := make([]*models.SendLog, 0)
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list send logs: %w", err)
	}

	return logs, nil
}

// Count returns the number of rows for actor, or for everyone when actor is empty.
func (r *sendLogRepository) Count(ctx context.Context, actor string) (int64, error) {
	builder := psql.Select("COUNT(*)").From("sms_logs")
	if actor != "" {
		builder = builder.Where(sq.Eq{"actor": actor})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count send logs: %w", err)
	}

	return count, nil
}
