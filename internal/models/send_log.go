// Package models defines data structures used throughout the application.
package models

import (
	"strings"
	"time"
)

const (
	StatusSent         = "sent"
	failedStatusPrefix = "failed: "
)

// FailedStatus returns the log status recorded for a failed send.
func FailedStatus(errText string) string {
	return failedStatusPrefix + errText
}

// IsFailedStatus reports whether status was produced by FailedStatus.
func IsFailedStatus(status string) bool {
	return strings.HasPrefix(status, failedStatusPrefix)
}

// SendLog is one row of the append-only sms_logs table.
type SendLog struct {
	ID        int64     `db:"id" json:"id"`
	Actor     string    `db:"actor" json:"actor"`
	Recipient string    `db:"recipient" json:"recipient"`
	Message   string    `db:"message" json:"message"`
	URL       string    `db:"url" json:"url"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LogFilter selects history rows. An empty Actor selects every actor.
type LogFilter struct {
	Actor  string
	Offset int
	Limit  int
}

// SendOutcome is the per-recipient result of a batch.
type SendOutcome struct {
	Recipient         string `json:"recipient"`
	Status            string `json:"status"`
	Error             string `json:"error,omitempty"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	LogID             int64  `json:"log_id,omitempty"`
	LogError          string `json:"log_error,omitempty"`
}

// Sent reports whether the provider accepted the message.
func (o SendOutcome) Sent() bool {
	return o.Status == StatusSent
}

// BatchResult aggregates the outcomes of one batch.
type BatchResult struct {
	Actor    string        `json:"actor"`
	Message  string        `json:"message"`
	URL      string        `json:"url"`
	Outcomes []SendOutcome `json:"outcomes"`
	Rejected []string      `json:"rejected"`
	Warnings []string      `json:"warnings,omitempty"`
}

// SentCount returns the number of accepted messages.
func (r *BatchResult) SentCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Sent() {
			n++
		}
	}
	return n
}

// FailedCount returns the number of provider failures.
func (r *BatchResult) FailedCount() int {
	return len(r.Outcomes) - r.SentCount()
}
