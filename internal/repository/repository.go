// Package repository provides PostgreSQL storage for send logs and credits.
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// repositoryImpl is the concrete implementation of Repository interface.
type repositoryImpl struct {
	db      *sqlx.DB
	sendLog SendLogRepository
	credit  CreditRepository
}

// NewRepository creates a new repository instance.
func NewRepository(db *sqlx.DB) Repository {
	return &repositoryImpl{
		db:      db,
		sendLog: NewSendLogRepository(db),
		credit:  NewCreditRepository(db),
	}
}

// SendLog returns the send log repository.
func (r *repositoryImpl) SendLog() SendLogRepository {
	return r.sendLog
}

// Credit returns the credit repository.
func (r *repositoryImpl) Credit() CreditRepository {
	return r.credit
}

// Ping checks if the database connection is healthy.
func (r *repositoryImpl) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return r.db.PingContext(ctx)
}
