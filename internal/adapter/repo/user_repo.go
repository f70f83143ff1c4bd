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

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// GetByID fetches a user by its external identifier.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id)
	return scanUser(row)
}

// ClaimActiveSession atomically flips active_session from false to true,
// inserting the user when absent. The statement returns a row only when the
// claim succeeded.
func (r *UserRepositoryPG) ClaimActiveSession(ctx context.Context, userID, email, displayName string, now time.Time) (bool, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QClaimActiveSession, userID, email, displayName, now)
	var claimedID string
	if err := row.Scan(&claimedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReleaseActiveSession clears the active-session flag and stamps the end
// time. The statement is guarded on no open session existing, so a replay
// after the user started again changes nothing.
func (r *UserRepositoryPG) ReleaseActiveSession(ctx context.Context, userID string, endedAt time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QReleaseActiveSession, userID, endedAt)
	return err
}

// MarkPaid records a verified payment on the user record, inserting the
// record when the payer has no row yet.
func (r *UserRepositoryPG) MarkPaid(ctx context.Context, userID, email, reference string, verifiedAt time.Time) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkUserPaid, userID, email, reference, verifiedAt)
	return err
}

// TopByPoints returns up to limit users ordered by points descending.
func (r *UserRepositoryPG) TopByPoints(ctx context.Context, limit int) ([]domain.User, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QTopUsersByPoints, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Points, &u.ActiveSession, &u.PaymentStatus,
			&u.LastActive, &u.LastSessionEnd, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Points, &u.ActiveSession, &u.PaymentStatus,
		&u.LastActive, &u.LastSessionEnd, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
