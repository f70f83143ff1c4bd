// Package ledger enforces the reading-session lifecycle: a session starts
// active, may alternate between active and paused, and is terminal once
// ended. Completing a session awards a point, gated on a minimum active
// duration. All persistence goes through injected repositories whose
// mutations are compare-and-set, so concurrent duplicate requests never
// record a transition twice.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
)

// DefaultMinActiveDuration is the minimum active time a session must reach
// before it can be ended with a point award.
const DefaultMinActiveDuration = 5 * time.Minute

// Options configures the session ledger.
type Options struct {
	Users             domain.UserRepository
	Sessions          domain.SessionRepository
	Logger            *infra.Logger
	Clock             func() time.Time
	MinActiveDuration time.Duration
}

// Ledger validates and executes session lifecycle transitions and the
// duration accounting that follows from them.
type Ledger struct {
	users     domain.UserRepository
	sessions  domain.SessionRepository
	logger    zerolog.Logger
	clock     func() time.Time
	minActive time.Duration
}

// StartInput carries the authenticated identity starting a session.
type StartInput struct {
	UserID      string
	Email       string
	DisplayName string
}

// New constructs a ledger with injected dependencies.
func New(opts Options) (*Ledger, error) {
	if opts.Users == nil || opts.Sessions == nil {
		return nil, errors.New("ledger: user and session repositories are required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	minActive := opts.MinActiveDuration
	if minActive == 0 {
		minActive = DefaultMinActiveDuration
	}
	if minActive < 0 {
		return nil, errors.New("ledger: minimum active duration must not be negative")
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Ledger{
		users:     opts.Users,
		sessions:  opts.Sessions,
		logger:    logger,
		clock:     clock,
		minActive: minActive,
	}, nil
}

// Start creates a new active session for the user. The user's active-session
// flag is claimed with a single conditional write, so two concurrent starts
// cannot both succeed.
func (l *Ledger) Start(ctx context.Context, in StartInput) (string, error) {
	if in.UserID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	now := l.clock()
	claimed, err := l.users.ClaimActiveSession(ctx, in.UserID, in.Email, in.DisplayName, now)
	if err != nil {
		return "", fmt.Errorf("claim active session: %w", err)
	}
	if !claimed {
		return "", domain.ErrAlreadyActive
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Status:    domain.SessionActive,
		StartedAt: now,
	}
	if err := l.sessions.Create(ctx, session); err != nil {
		// Roll the claim back so the user is not wedged with a flag pointing
		// at a session that was never written.
		if relErr := l.users.ReleaseActiveSession(ctx, in.UserID, now); relErr != nil {
			l.logger.Error().Err(relErr).Str("user_id", in.UserID).Msg("release claim after failed session create")
		}
		return "", fmt.Errorf("create session: %w", err)
	}

	l.logger.Info().Str("user_id", in.UserID).Str("session_id", session.ID).Msg("session started")
	return session.ID, nil
}

// Pause transitions an active session to paused. Pausing an already-paused
// session is a no-op; the returned bool reports whether a transition was
// actually recorded.
func (l *Ledger) Pause(ctx context.Context, userID, sessionID string) (bool, error) {
	session, err := l.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return false, err
	}
	if session.Terminal() {
		return false, domain.ErrAlreadyEnded
	}
	if session.Status == domain.SessionPaused {
		return false, nil
	}

	now := l.clock()
	ok, err := l.sessions.MarkPaused(ctx, sessionID, now)
	if err != nil {
		return false, fmt.Errorf("pause session: %w", err)
	}
	if !ok {
		// Lost the guarded update; map whatever state won.
		current, err := l.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return false, fmt.Errorf("reload session after pause conflict: %w", err)
		}
		if current.Terminal() {
			return false, domain.ErrAlreadyEnded
		}
		if current.Status == domain.SessionPaused {
			return false, nil
		}
		return false, fmt.Errorf("session %s changed concurrently during pause", sessionID)
	}

	l.logger.Info().Str("session_id", sessionID).Msg("session paused")
	return true, nil
}

// Resume transitions a paused session back to active and returns the new
// cumulative paused duration in milliseconds.
func (l *Ledger) Resume(ctx context.Context, userID, sessionID string) (int64, error) {
	session, err := l.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return 0, err
	}
	if session.Terminal() {
		return 0, domain.ErrAlreadyEnded
	}
	if session.Status != domain.SessionPaused {
		return 0, domain.ErrNotPaused
	}

	now := l.clock()
	if session.PausedAt == nil {
		l.logger.Warn().Str("session_id", sessionID).Msg("paused session has no pausedAt, counting zero paused time")
	}
	accum := session.PausedAccumMillis + session.PausedDeltaAt(now)

	ok, err := l.sessions.MarkResumed(ctx, sessionID, accum)
	if err != nil {
		return 0, fmt.Errorf("resume session: %w", err)
	}
	if !ok {
		current, err := l.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return 0, fmt.Errorf("reload session after resume conflict: %w", err)
		}
		if current.Terminal() {
			return 0, domain.ErrAlreadyEnded
		}
		return 0, domain.ErrNotPaused
	}

	l.logger.Info().Str("session_id", sessionID).Int64("paused_accum_millis", accum).Msg("session resumed")
	return accum, nil
}

// End performs the terminal transition and returns the total active duration
// in milliseconds. Ending an already-ended session succeeds idempotently with
// the recorded total and never awards a second point. Sessions shorter than
// the configured minimum are rejected and stay non-terminal.
//
// The terminal write and the payout (point award plus active-session release)
// are separate steps, so a failed payout surfaces as an error and the next
// End on the same session retries it. The payout itself is a single guarded
// repository write that commits at most once per session.
func (l *Ledger) End(ctx context.Context, userID, sessionID string) (int64, error) {
	session, err := l.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return 0, err
	}
	if session.Terminal() {
		if err := l.settleEnd(ctx, session); err != nil {
			return 0, err
		}
		return session.TotalActiveMillis, nil
	}

	now := l.clock()
	total := session.ActiveMillisAt(now)
	if total < l.minActive.Milliseconds() {
		return 0, fmt.Errorf("%w: %dms active, minimum %s", domain.ErrSessionTooShort, total, l.minActive)
	}

	ok, err := l.sessions.MarkEnded(ctx, sessionID, now, total, false, false, domain.EndReasonManual)
	if err != nil {
		return 0, fmt.Errorf("end session: %w", err)
	}
	if !ok {
		// A concurrent end won the terminal transition; settle on its behalf
		// and return its result.
		current, err := l.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return 0, fmt.Errorf("reload session after end conflict: %w", err)
		}
		if current.Terminal() {
			if err := l.settleEnd(ctx, current); err != nil {
				return 0, err
			}
			return current.TotalActiveMillis, nil
		}
		return 0, fmt.Errorf("session %s changed concurrently during end", sessionID)
	}

	session.Status = domain.SessionEnded
	session.Completed = true
	session.EndedAt = &now
	session.TotalActiveMillis = total
	if err := l.settleEnd(ctx, session); err != nil {
		return 0, err
	}

	l.logger.Info().
		Str("user_id", userID).
		Str("session_id", sessionID).
		Int64("total_active_millis", total).
		Msg("session ended")
	return total, nil
}

// settleEnd finishes a terminal session's bookkeeping. For manual ends the
// point award and flag release are one atomic guarded write; for already
// settled or auto-ended sessions only the (also guarded) release remains.
func (l *Ledger) settleEnd(ctx context.Context, session *domain.Session) error {
	endedAt := l.clock()
	if session.EndedAt != nil {
		endedAt = *session.EndedAt
	}
	if !session.AutoEnded && !session.PointsAwarded {
		// Losing the guard means another caller settled first, and that
		// caller's write already released the flag.
		if _, err := l.sessions.SettleEnd(ctx, session.ID, endedAt); err != nil {
			return fmt.Errorf("settle session end: %w", err)
		}
		return nil
	}
	if err := l.users.ReleaseActiveSession(ctx, session.UserID, endedAt); err != nil {
		return fmt.Errorf("release active session: %w", err)
	}
	return nil
}

// SweepExpired ends non-terminal sessions older than maxAge, marking them
// auto-ended. Abandoned sessions earn no point. Returns the number of
// sessions closed.
func (l *Ledger) SweepExpired(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	if maxAge <= 0 {
		return 0, fmt.Errorf("%w: max age must be positive", domain.ErrInvalidArgument)
	}
	now := l.clock()
	stale, err := l.sessions.ListStale(ctx, now.Add(-maxAge), limit)
	if err != nil {
		return 0, fmt.Errorf("list stale sessions: %w", err)
	}

	closed := 0
	for _, session := range stale {
		total := session.ActiveMillisAt(now)
		ok, err := l.sessions.MarkEnded(ctx, session.ID, now, total, false, true, domain.EndReasonTimeout)
		if err != nil {
			l.logger.Error().Err(err).Str("session_id", session.ID).Msg("auto-end failed")
			continue
		}
		if !ok {
			continue
		}
		if err := l.users.ReleaseActiveSession(ctx, session.UserID, now); err != nil {
			l.logger.Error().Err(err).Str("user_id", session.UserID).Msg("release after auto-end failed")
		}
		l.logger.Info().
			Str("session_id", session.ID).
			Str("user_id", session.UserID).
			Int64("total_active_millis", total).
			Msg("session auto-ended")
		closed++
	}
	return closed, nil
}

// ownedSession loads a session and verifies the caller owns it. Ownership
// mismatch is reported as ErrNotOwner, never folded into ErrNotFound.
func (l *Ledger) ownedSession(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidArgument)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidArgument)
	}
	session, err := l.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrNotOwner
	}
	return session, nil
}
