package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/popeskul/insdr-dispatch/internal/models"
)

type creditRepository struct {
	db *sqlx.DB
}

func NewCreditRepository(db *sqlx.DB) CreditRepository {
	return &creditRepository{
		db: db,
	}
}

// Get returns the balance of actor. An actor without a row has zero credits.
func (r *creditRepository) Get(ctx context.Context, actor string) (int, error) {
	var credits int
	err := r.db.GetContext(ctx, &credits, `SELECT credits FROM sms_credits WHERE actor = $1`, actor)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get credits: %w", err)
	}

	return credits, nil
}

// List returns every balance ordered by actor.
func (r *creditRepository) List(ctx context.Context) ([]models.CreditBalance, error) {
	balances := make([]models.CreditBalance, 0)
	err := r.db.SelectContext(ctx, &balances, `
		SELECT actor, credits, updated_at
		FROM sms_credits
		ORDER BY actor ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list credits: %w", err)
	}

	return balances, nil
}

// Total returns the sum of all balances.
func (r *creditRepository) Total(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(credits), 0) FROM sms_credits`); err != nil {
		return 0, fmt.Errorf("failed to sum credits: %w", err)
	}

	return total, nil
}

// SetMany overwrites the balances of the given actors in one transaction.
func (r *creditRepository) SetMany(ctx context.Context, credits map[string]int) error {
	actors := make([]string, 0, len(credits))
	for actor := range credits {
		actors = append(actors, actor)
	}
	sort.Strings(actors)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO sms_credits (actor, credits, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (actor) DO UPDATE
		SET credits = EXCLUDED.credits, updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	for _, actor := range actors {
		if _, err := tx.ExecContext(ctx, query, actor, credits[actor], now); err != nil {
			return fmt.Errorf("failed to set credits for %s: %w", actor, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credits: %w", err)
	}

	return nil
}

// Decrement takes one credit from actor. The balance never goes below zero:
// ErrNoCredit is returned instead.
func (r *creditRepository) Decrement(ctx context.Context, actor string) error {
	query := `
		UPDATE sms_credits
		SET credits = credits - 1, updated_at = $2
		WHERE actor = $1 AND credits > 0
	`

	res, err := r.db.ExecContext(ctx, query, actor, time.Now())
	if err != nil {
		return fmt.Errorf("failed to decrement credits: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNoCredit
	}

	return nil
}
