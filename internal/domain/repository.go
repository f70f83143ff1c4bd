package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users. Mutations that guard a
// lifecycle invariant are conditional writes: ClaimActiveSession succeeds at
// most once while the user has no open session.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// ClaimActiveSession atomically flips the user's active-session flag from
	// false to true, creating the user record (points=0) when absent. It
	// returns false when the flag was already set.
	ClaimActiveSession(ctx context.Context, userID, email, displayName string, now time.Time) (bool, error)
	// ReleaseActiveSession clears the flag only while the user has no open
	// session, so a replayed release cannot clobber a newer session's claim.
	ReleaseActiveSession(ctx context.Context, userID string, endedAt time.Time) error
	// MarkPaid records a verified payment on the user, creating the record
	// when the payer has never started a session.
	MarkPaid(ctx context.Context, userID, email, reference string, verifiedAt time.Time) error
	TopByPoints(ctx context.Context, limit int) ([]User, error)
}

// SessionRepository persists sessions. The Mark* methods are compare-and-set
// updates guarded on the expected prior status; they report whether the row
// actually transitioned so concurrent duplicate requests cannot both win.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	MarkPaused(ctx context.Context, id string, pausedAt time.Time) (bool, error)
	MarkResumed(ctx context.Context, id string, pausedAccumMillis int64) (bool, error)
	MarkEnded(ctx context.Context, id string, endedAt time.Time, totalActiveMillis int64, pointsAwarded, autoEnded bool, reason string) (bool, error)
	// SettleEnd pays out a manually ended session in one atomic step: it flips
	// the session's points-awarded flag from false to true and, for the
	// winning caller only, increments the owner's points and releases their
	// active-session flag. Safe to retry; repeated calls are no-ops.
	SettleEnd(ctx context.Context, id string, endedAt time.Time) (bool, error)
	// ListStale returns non-terminal sessions started before the cutoff,
	// oldest first.
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]Session, error)
}

// PaymentRepository persists provider payment records keyed by reference.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByReference(ctx context.Context, reference string) (*Payment, error)
	MarkVerified(ctx context.Context, reference, providerReference string, amount int64, currency string, verifiedAt time.Time) error
}
