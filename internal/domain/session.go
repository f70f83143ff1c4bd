package domain

import "time"

// SessionStatus enumerates the lifecycle states of a reading session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionPaused SessionStatus = "paused"
	SessionEnded  SessionStatus = "ended"
)

// End reasons recorded on terminal sessions.
const (
	EndReasonManual  = "manual_end"
	EndReasonTimeout = "auto_end_timeout"
)

// Session is one timed reading interval owned by a single user. A session is
// created active, may alternate between active and paused, and is terminal
// once ended. Completed is a redundant terminal flag kept in lockstep with
// Status for older records.
type Session struct {
	ID                string
	UserID            string
	Status            SessionStatus
	StartedAt         time.Time
	PausedAt          *time.Time
	PausedAccumMillis int64
	EndedAt           *time.Time
	TotalActiveMillis int64
	Completed         bool
	PointsAwarded     bool
	AutoEnded         bool
	AutoEndReason     string
}

// Terminal reports whether the session has ended. Either signal counts, so a
// record with a stale Completed flag is still treated as terminal.
func (s Session) Terminal() bool {
	return s.Completed || s.Status == SessionEnded
}

// ActiveMillisAt returns the active duration accumulated by now: wall-clock
// elapsed since the start minus time spent paused, floored at zero so clock
// skew or a corrupt record can never produce a negative duration.
func (s Session) ActiveMillisAt(now time.Time) int64 {
	total := now.Sub(s.StartedAt).Milliseconds() - s.PausedAccumMillis
	if total < 0 {
		return 0
	}
	return total
}

// PausedDeltaAt returns the length of the open pause interval at now. A
// session without a recorded pause timestamp yields zero, as does a pause
// timestamp in the future.
func (s Session) PausedDeltaAt(now time.Time) int64 {
	if s.PausedAt == nil {
		return 0
	}
	delta := now.Sub(*s.PausedAt).Milliseconds()
	if delta < 0 {
		return 0
	}
	return delta
}
