package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// PaymentRepositoryPG implements domain.PaymentRepository backed by PostgreSQL.
type PaymentRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewPaymentRepository creates a new PaymentRepositoryPG.
func NewPaymentRepository(sql infra.SQLExecutor) *PaymentRepositoryPG {
	return &PaymentRepositoryPG{sql: sql}
}

// Create inserts a new pending payment record.
func (r *PaymentRepositoryPG) Create(ctx context.Context, payment *domain.Payment) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertPayment,
		payment.Reference, payment.UserID, payment.Email, payment.Amount, payment.Currency)
	return err
}

// GetByReference fetches a payment by its reference string.
func (r *PaymentRepositoryPG) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectPaymentByReference, reference)
	var p domain.Payment
	if err := row.Scan(&p.Reference, &p.UserID, &p.Email, &p.Amount, &p.Currency, &p.Status,
		&p.Provider, &p.ProviderReference, &p.CreatedAt, &p.VerifiedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// MarkVerified records the provider confirmation on the payment row.
func (r *PaymentRepositoryPG) MarkVerified(ctx context.Context, reference, providerReference string, amount int64, currency string, verifiedAt time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkPaymentVerified, reference, providerReference, amount, currency, verifiedAt)
	return err
}

var _ domain.PaymentRepository = (*PaymentRepositoryPG)(nil)
