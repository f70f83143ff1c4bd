package repo

import (
	"context"
	"sync"
	"time"

	"server/internal/domain"
)

// In-memory repositories with the same conditional-write semantics as the
// PostgreSQL implementations. They back the ledger and handler tests so the
// state machine can be exercised without a live database.

// MemoryUsers implements domain.UserRepository in memory.
type MemoryUsers struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	sessions *MemorySessions
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]*domain.User)}
}

// BindMemory links the user and session stores so the cross-table writes
// (guarded release, end settlement) behave like their SQL counterparts.
func BindMemory(users *MemoryUsers, sessions *MemorySessions) {
	users.sessions = sessions
	sessions.users = users
}

func (m *MemoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *MemoryUsers) ClaimActiveSession(ctx context.Context, userID, email, displayName string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		lastActive := now
		m.users[userID] = &domain.User{
			ID:            userID,
			Email:         email,
			DisplayName:   displayName,
			ActiveSession: true,
			LastActive:    &lastActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return true, nil
	}
	if u.ActiveSession {
		return false, nil
	}
	u.ActiveSession = true
	u.Email = email
	if displayName != "" {
		u.DisplayName = displayName
	}
	lastActive := now
	u.LastActive = &lastActive
	u.UpdatedAt = now
	return true, nil
}

func (m *MemoryUsers) ReleaseActiveSession(ctx context.Context, userID string, endedAt time.Time) error {
	// Guard check is taken before the users lock; the stores lock
	// independently, never nested.
	if m.sessions != nil && m.sessions.hasOpenFor(userID) {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.ActiveSession = false
	end := endedAt
	u.LastSessionEnd = &end
	u.LastActive = &end
	u.UpdatedAt = endedAt
	return nil
}

func (m *MemoryUsers) MarkPaid(ctx context.Context, userID, email, reference string, verifiedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		m.users[userID] = &domain.User{
			ID:            userID,
			Email:         email,
			PaymentStatus: true,
			CreatedAt:     verifiedAt,
			UpdatedAt:     verifiedAt,
		}
		return nil
	}
	u.PaymentStatus = true
	u.UpdatedAt = verifiedAt
	return nil
}

// settlePayout applies the user half of a session-end settlement.
func (m *MemoryUsers) settlePayout(userID string, endedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return
	}
	u.Points++
	u.ActiveSession = false
	end := endedAt
	u.LastSessionEnd = &end
	u.LastActive = &end
	u.UpdatedAt = endedAt
}

func (m *MemoryUsers) TopByPoints(ctx context.Context, limit int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	// insertion sort by points descending, small n
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Points > out[j-1].Points; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Put seeds a user record directly, for tests.
func (m *MemoryUsers) Put(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := u
	m.users[u.ID] = &clone
}

// MemorySessions implements domain.SessionRepository in memory.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	users    *MemoryUsers
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]*domain.Session)}
}

func (m *MemorySessions) Create(ctx context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *session
	m.sessions[session.ID] = &clone
	return nil
}

func (m *MemorySessions) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *MemorySessions) MarkPaused(ctx context.Context, id string, pausedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != domain.SessionActive || s.Completed {
		return false, nil
	}
	s.Status = domain.SessionPaused
	at := pausedAt
	s.PausedAt = &at
	return true, nil
}

func (m *MemorySessions) MarkResumed(ctx context.Context, id string, pausedAccumMillis int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != domain.SessionPaused || s.Completed {
		return false, nil
	}
	s.Status = domain.SessionActive
	s.PausedAt = nil
	s.PausedAccumMillis = pausedAccumMillis
	return true, nil
}

func (m *MemorySessions) MarkEnded(ctx context.Context, id string, endedAt time.Time, totalActiveMillis int64, pointsAwarded, autoEnded bool, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status == domain.SessionEnded || s.Completed {
		return false, nil
	}
	s.Status = domain.SessionEnded
	s.Completed = true
	at := endedAt
	s.EndedAt = &at
	s.TotalActiveMillis = totalActiveMillis
	s.PointsAwarded = pointsAwarded
	s.AutoEnded = autoEnded
	s.AutoEndReason = reason
	s.PausedAt = nil
	return true, nil
}

func (m *MemorySessions) SettleEnd(ctx context.Context, id string, endedAt time.Time) (bool, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || !s.Completed || s.AutoEnded || s.PointsAwarded {
		m.mu.Unlock()
		return false, nil
	}
	s.PointsAwarded = true
	userID := s.UserID
	m.mu.Unlock()

	if m.users != nil {
		m.users.settlePayout(userID, endedAt)
	}
	return true, nil
}

func (m *MemorySessions) hasOpenFor(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && !s.Completed && s.Status != domain.SessionEnded {
			return true
		}
	}
	return false
}

func (m *MemorySessions) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Session
	for _, s := range m.sessions {
		if s.Completed || s.Status == domain.SessionEnded {
			continue
		}
		if s.StartedAt.Before(cutoff) {
			out = append(out, *s)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StartedAt.Before(out[j-1].StartedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryPayments implements domain.PaymentRepository in memory.
type MemoryPayments struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func NewMemoryPayments() *MemoryPayments {
	return &MemoryPayments{payments: make(map[string]*domain.Payment)}
}

func (m *MemoryPayments) Create(ctx context.Context, payment *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *payment
	m.payments[payment.Reference] = &clone
	return nil
}

func (m *MemoryPayments) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[reference]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *MemoryPayments) MarkVerified(ctx context.Context, reference, providerReference string, amount int64, currency string, verifiedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[reference]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = domain.PaymentSuccess
	p.ProviderReference = providerReference
	p.Amount = amount
	p.Currency = currency
	at := verifiedAt
	p.VerifiedAt = &at
	return nil
}

var (
	_ domain.UserRepository    = (*MemoryUsers)(nil)
	_ domain.SessionRepository = (*MemorySessions)(nil)
	_ domain.PaymentRepository = (*MemoryPayments)(nil)
)
