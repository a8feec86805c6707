package repository_test

import (
	"database/sql"
	"fmt"
	"time"
)

func insertTestLog(db *sql.DB, actor, recipient, status string, createdAt time.Time) (int64, error) {
	var id int64
	query := `
		INSERT INTO sms_logs (actor, recipient, message, url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := db.QueryRow(query, actor, recipient, "Bonjour, veuillez remplir votre formulaire ici : http://form",
		"http://form", status, createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert test log: %w", err)
	}

	return id, nil
}

// insertBulkTestLogs inserts count rows for actor, each step newer than the previous one.
func insertBulkTestLogs(db *sql.DB, count int, actor string, base time.Time, step time.Duration) error {
	for i := 0; i < count; i++ {
		recipient := fmt.Sprintf("+3361111%04d", i)
		if _, err := insertTestLog(db, actor, recipient, "sent", base.Add(time.Duration(i)*step)); err != nil {
			return fmt.Errorf("failed to insert log %d: %w", i, err)
		}
	}
	return nil
}

func insertTestCredit(db *sql.DB, actor string, credits int) error {
	_, err := db.Exec(`INSERT INTO sms_credits (actor, credits) VALUES ($1, $2)`, actor, credits)
	if err != nil {
		return fmt.Errorf("failed to insert test credit: %w", err)
	}
	return nil
}
