package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/formleszs/music-app/internal/domain"
	"github.com/formleszs/music-app/internal/ports"
)

// DefaultSessionTTL is how long a stored token is offered after login or
// registration.
const DefaultSessionTTL = 30 * 24 * time.Hour

// SessionService manages login, registration, logout and session restore.
//
// Inputs are validated locally before any network call. Only one submission
// runs at a time; a second Login or Register while one is in flight fails with
// domain.ErrSubmissionInProgress. A Logout while a submission is in flight
// wins: the late result is dropped with domain.ErrSubmissionCancelled. A
// restored token is trusted without asking the server.
type SessionService struct {
	logger *slog.Logger
	client ports.AuthClient
	repo   ports.SessionRepository
	bus    ports.EventBus

	ttl time.Duration
	now func() time.Time

	session    *domain.Session
	submitting bool
	generation uint64 // bumped by Logout
	mu         sync.Mutex
}

// SessionOption configures a SessionService.
type SessionOption func(*SessionService)

// WithSessionTTL sets the token lifetime applied after login and registration.
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *SessionService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionService creates a session service.
func NewSessionService(
	logger *slog.Logger,
	client ports.AuthClient,
	repo ports.SessionRepository,
	bus ports.EventBus,
	opts ...SessionOption,
) *SessionService {
	s := &SessionService{
		logger: logger.With(slog.String("service", "session")),
		client: client,
		repo:   repo,
		bus:    bus,
		ttl:    DefaultSessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateLogin checks login input and returns the normalized phone digits.
func ValidateLogin(phone, password string) (string, error) {
	if strings.TrimSpace(phone) == "" || password == "" {
		return "", domain.NewValidationError("credentials", "", "phone and password are required")
	}
	digits := domain.NormalizePhone(phone)
	if len(digits) != domain.PhoneDigits {
		return "", domain.NewValidationError("phone", digits, "phone number must have 11 digits")
	}
	return digits, nil
}

// ValidateRegistration checks registration input and returns the normalized
// phone digits.
func ValidateRegistration(phone, password, confirm string) (string, error) {
	if strings.TrimSpace(phone) == "" || password == "" || confirm == "" {
		return "", domain.NewValidationError("credentials", "", "phone and both passwords are required")
	}
	digits := domain.NormalizePhone(phone)
	if len(digits) != domain.PhoneDigits {
		return "", domain.NewValidationError("phone", digits, "phone number must have 11 digits")
	}
	if digits[0] != '7' {
		return "", domain.NewValidationError("phone", digits, "phone number must start with 7")
	}
	if password != confirm {
		return "", domain.NewValidationError("confirm", "", "passwords do not match")
	}
	return digits, nil
}

// Login authenticates with phone and password and persists the session.
func (s *SessionService) Login(ctx context.Context, phone, password string) (domain.Session, error) {
	digits, err := ValidateLogin(phone, password)
	if err != nil {
		return domain.Session{}, err
	}
	return s.submit(ctx, "login", digits, password, s.client.Login, domain.OriginLogin)
}

// Register creates an account and persists the resulting session.
func (s *SessionService) Register(ctx context.Context, phone, password, confirm string) (domain.Session, error) {
	digits, err := ValidateRegistration(phone, password, confirm)
	if err != nil {
		return domain.Session{}, err
	}
	return s.submit(ctx, "register", digits, password, s.client.Register, domain.OriginRegister)
}

func (s *SessionService) submit(
	ctx context.Context,
	op, digits, password string,
	call func(context.Context, ports.Credentials) (string, error),
	origin domain.SessionOrigin,
) (domain.Session, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		s.logger.Debug("submission rejected, another is in flight", slog.String("op", op))
		return domain.Session{}, domain.ErrSubmissionInProgress
	}
	s.submitting = true
	gen := s.generation
	s.mu.Unlock()

	s.bus.Publish(domain.NewSubmissionChangedEvent(op, true))
	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		s.bus.Publish(domain.NewSubmissionChangedEvent(op, false))
	}()

	log := s.logger.With(slog.String("op", op), slog.String("phone", domain.MaskPhone(digits)))

	token, err := call(ctx, ports.Credentials{Phone: digits, Password: password})
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			log.Info("auth rejected", slog.String("reason", string(authErr.Reason)))
		} else {
			log.Warn("auth request failed", slog.Any("error", err))
		}
		return domain.Session{}, err
	}

	session := domain.Session{
		Token:     token,
		Phone:     digits,
		ExpiresAt: s.now().Add(s.ttl),
	}

	// Save and adopt under the lock so a concurrent Logout either sees the
	// session and deletes it, or bumps the generation first.
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		log.Info("auth result dropped, logged out meanwhile")
		return domain.Session{}, domain.ErrSubmissionCancelled
	}
	if err := s.repo.Save(session); err != nil {
		s.mu.Unlock()
		log.Error("failed to persist session", slog.Any("error", err))
		return domain.Session{}, err
	}
	s.session = &session
	s.mu.Unlock()

	log.Info("session started", slog.Time("expires_at", session.ExpiresAt))
	s.bus.Publish(domain.NewSessionStartedEvent(origin, session.ExpiresAt))
	return session, nil
}

// Logout forgets the session locally. No server call is made.
func (s *SessionService) Logout() error {
	s.mu.Lock()
	wasAuthenticated := s.session != nil
	s.session = nil
	s.generation++
	s.mu.Unlock()

	err := s.repo.Delete()
	if err != nil {
		s.logger.Error("failed to delete stored session", slog.Any("error", err))
	}
	if wasAuthenticated {
		s.logger.Info("session ended")
		s.bus.Publish(domain.NewSessionEndedEvent())
	}
	return err
}

// RestoreSession adopts a stored, unexpired token. Expired entries are removed.
func (s *SessionService) RestoreSession() bool {
	stored, err := s.repo.Load()
	if err != nil {
		if !errors.Is(err, domain.ErrNoSession) {
			s.logger.Warn("failed to read stored session", slog.Any("error", err))
		}
		return false
	}
	if stored.Token == "" {
		return false
	}
	if stored.Expired(s.now()) {
		s.logger.Info("stored session expired", slog.Time("expired_at", stored.ExpiresAt))
		if err := s.repo.Delete(); err != nil {
			s.logger.Warn("failed to delete expired session", slog.Any("error", err))
		}
		return false
	}

	s.mu.Lock()
	s.session = &stored
	s.mu.Unlock()

	s.logger.Debug("session restored", slog.Time("expires_at", stored.ExpiresAt))
	s.bus.Publish(domain.NewSessionStartedEvent(domain.OriginRestore, stored.ExpiresAt))
	return true
}

// IsAuthenticated reports whether a session is present.
func (s *SessionService) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Session returns the current session, if any.
func (s *SessionService) Session() (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return domain.Session{}, false
	}
	return *s.session, true
}

// State returns the session manager state.
func (s *SessionService) State() domain.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.submitting:
		return domain.AuthSubmitting
	case s.session != nil:
		return domain.AuthAuthenticated
	default:
		return domain.AuthAnonymous
	}
}

var _ SessionChecker = (*SessionService)(nil)
