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

// SessionRepositoryPG implements domain.SessionRepository backed by
// PostgreSQL. Lifecycle transitions are single conditional statements; the
// returned bool reports whether the guarded update actually matched a row.
type SessionRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewSessionRepository creates a new SessionRepositoryPG.
func NewSessionRepository(sql infra.SQLExecutor) *SessionRepositoryPG {
	return &SessionRepositoryPG{sql: sql}
}

// Create inserts a new active session record.
func (r *SessionRepositoryPG) Create(ctx context.Context, session *domain.Session) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertSession, session.ID, session.UserID, session.StartedAt)
	return err
}

// GetByID fetches a session by its identifier.
func (r *SessionRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectSessionByID, id)
	return scanSession(row)
}

// MarkPaused transitions active→paused, guarded on the current status.
func (r *SessionRepositoryPG) MarkPaused(ctx context.Context, id string, pausedAt time.Time) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QPauseSession, id, pausedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkResumed transitions paused→active and stores the new accumulated pause
// duration, guarded on the current status.
func (r *SessionRepositoryPG) MarkResumed(ctx context.Context, id string, pausedAccumMillis int64) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QResumeSession, id, pausedAccumMillis)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkEnded performs the terminal transition, guarded on the session not yet
// being ended. At most one caller ever observes true for a given session.
func (r *SessionRepositoryPG) MarkEnded(ctx context.Context, id string, endedAt time.Time, totalActiveMillis int64, pointsAwarded, autoEnded bool, reason string) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QEndSession, id, endedAt, totalActiveMillis, pointsAwarded, autoEnded, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SettleEnd awards the point and releases the owner's active-session flag in
// a single statement guarded on points_awarded still being false. The
// returned bool reports whether this call won the payout.
func (r *SessionRepositoryPG) SettleEnd(ctx context.Context, id string, endedAt time.Time) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QSettleSessionEnd, id, endedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListStale returns non-terminal sessions started before the cutoff, oldest first.
func (r *SessionRepositoryPG) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.Session, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListStaleSessions, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Status, &s.StartedAt, &s.PausedAt, &s.PausedAccumMillis,
			&s.EndedAt, &s.TotalActiveMillis, &s.Completed, &s.PointsAwarded, &s.AutoEnded, &s.AutoEndReason); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Status, &s.StartedAt, &s.PausedAt, &s.PausedAccumMillis,
		&s.EndedAt, &s.TotalActiveMillis, &s.Completed, &s.PointsAwarded, &s.AutoEnded, &s.AutoEndReason); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

var _ domain.SessionRepository = (*SessionRepositoryPG)(nil)
