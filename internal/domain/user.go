package domain

import "time"

// User represents a reader account tracked by the ledger.
type User struct {
	ID             string
	Email          string
	DisplayName    string
	Points         int64
	ActiveSession  bool
	PaymentStatus  bool
	LastActive     *time.Time
	LastSessionEnd *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPaid reports whether the account has a verified payment on record.
func (u User) HasPaid() bool {
	return u.PaymentStatus
}
