package models

import "time"

// CreditBalance is the remaining SMS quota of one actor.
type CreditBalance struct {
	Actor     string    `db:"actor" json:"actor"`
	Credits   int       `db:"credits" json:"credits"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreditSummary is the administrative view over all balances.
type CreditSummary struct {
	TotalPurchased int             `json:"total_purchased"`
	Allocated      int             `json:"allocated"`
	Unallocated    int             `json:"unallocated"`
	Balances       []CreditBalance `json:"balances"`
}
