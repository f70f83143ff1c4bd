package domain

import "time"

// PaymentStatus enumerates the provider-facing states of a payment record.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment is a provider transaction keyed by its reference string. The
// reference is generated server-side at intent creation and reused verbatim
// when verifying with the provider.
type Payment struct {
	Reference         string
	UserID            string
	Email             string
	Amount            int64
	Currency          string
	Status            PaymentStatus
	Provider          string
	ProviderReference string
	CreatedAt         time.Time
	VerifiedAt        *time.Time
}

// Verified reports whether the payment has been confirmed by the provider.
func (p Payment) Verified() bool {
	return p.Status == PaymentSuccess
}
