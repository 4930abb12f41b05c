package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AuthKey is the storage key of the persisted session.
const AuthKey = "airbrb_auth"

// MsgPasswordsMismatch is returned by Register when the confirmation differs.
const MsgPasswordsMismatch = "Passwords do not match."

// SessionUsecase owns the local session: login, registration, logout and
// restoring the persisted session on startup.
type SessionUsecase struct {
	auth   AuthGateway
	store  domain.StateStore
	logger *logger.Logger
	now    func() time.Time

	mu        sync.RWMutex
	current   domain.Session
	listeners []func(domain.Session)
}

// NewSessionUsecase creates a SessionUsecase in the logged-out state.
func NewSessionUsecase(auth AuthGateway, store domain.StateStore, log *logger.Logger) *SessionUsecase {
	return &SessionUsecase{
		auth:   auth,
		store:  store,
		logger: log.Named("SessionUsecase"),
		now:    time.Now,
	}
}

// OnChange registers fn to be called with the new session after every
// login, logout or invalidation. Callbacks run outside the session lock.
func (uc *SessionUsecase) OnChange(fn func(domain.Session)) {
	uc.mu.Lock()
	uc.listeners = append(uc.listeners, fn)
	uc.mu.Unlock()
}

// Current returns the active session; the zero value when logged out.
func (uc *SessionUsecase) Current() domain.Session {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.current
}

// Load restores the persisted session. Corrupt or expired state is cleared
// and yields a logged-out session rather than an error.
func (uc *SessionUsecase) Load(ctx context.Context) (domain.Session, error) {
	raw, err := uc.store.Get(ctx, AuthKey)
	if errors.Is(err, domain.ErrNotFound) {
		uc.set(domain.Session{}, false)
		return domain.Session{}, nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		uc.logger.Warn("Stored session is malformed, discarding", zap.Error(err))
		uc.clearStored(ctx)
		uc.set(domain.Session{}, false)
		return domain.Session{}, nil
	}
	if n := s.Normalize(); n != s {
		uc.logger.Warn("Stored session is incomplete, discarding")
		uc.clearStored(ctx)
		s = n
	}
	if s.Authenticated() && uc.expired(s.Token) {
		uc.logger.Info("Stored session token has expired", zap.String("email", s.Email))
		uc.clearStored(ctx)
		s = domain.Session{}
	}
	uc.set(s, false)
	return s, nil
}

// expired reads the exp claim without verifying the signature. Opaque
// tokens are treated as valid; the backend is the authority.
func (uc *SessionUsecase) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !uc.now().Before(exp.Time)
}

// Login authenticates against the backend and persists the session.
func (uc *SessionUsecase) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, domain.Invalid("Please enter your email and password.")
	}
	uc.logger.Info("Logging in", zap.String("email", email))
	res, err := uc.auth.Login(ctx, email, password)
	if err != nil {
		uc.logger.Warn("Login failed", zap.String("email", email), zap.Error(err))
		return domain.Session{}, err
	}
	s := domain.Session{Token: res.Token, Email: email, Name: res.Name}
	if err := uc.persist(ctx, s); err != nil {
		return domain.Session{}, err
	}
	uc.set(s, true)
	return s, nil
}

// Register creates an account and logs in as it.
func (uc *SessionUsecase) Register(ctx context.Context, email, password, confirm, name string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return domain.Session{}, domain.Invalid("Please fill in email, name and password.")
	}
	if password != confirm {
		return domain.Session{}, domain.Invalid(MsgPasswordsMismatch)
	}
	uc.logger.Info("Registering", zap.String("email", email))
	res, err := uc.auth.Register(ctx, email, password, name)
	if err != nil {
		uc.logger.Warn("Registration failed", zap.String("email", email), zap.Error(err))
		return domain.Session{}, err
	}
	if res.Name == "" {
		res.Name = name
	}
	s := domain.Session{Token: res.Token, Email: email, Name: res.Name}
	if err := uc.persist(ctx, s); err != nil {
		return domain.Session{}, err
	}
	uc.set(s, true)
	return s, nil
}

// Logout notifies the backend and clears the local session. The local
// session is cleared even if the backend call fails.
func (uc *SessionUsecase) Logout(ctx context.Context) error {
	s := uc.Current()
	if s.Authenticated() {
		if err := uc.auth.Logout(ctx, s.Token); err != nil {
			uc.logger.Warn("Logout request failed, clearing local session anyway", zap.Error(err))
		}
	}
	return uc.Invalidate(ctx)
}

// Invalidate drops the local session without contacting the backend, e.g.
// after the backend rejected the token.
func (uc *SessionUsecase) Invalidate(ctx context.Context) error {
	err := uc.store.Delete(ctx, AuthKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		uc.logger.Error("Failed to delete stored session", zap.Error(err))
	} else {
		err = nil
	}
	uc.set(domain.Session{}, true)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (uc *SessionUsecase) persist(ctx context.Context, s domain.Session) error {
	s = s.Normalize()
	if !s.Authenticated() {
		return uc.store.Delete(ctx, AuthKey)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := uc.store.Set(ctx, AuthKey, raw); err != nil {
		uc.logger.Error("Failed to persist session", zap.Error(err))
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (uc *SessionUsecase) clearStored(ctx context.Context) {
	if err := uc.store.Delete(ctx, AuthKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
		uc.logger.Error("Failed to delete stored session", zap.Error(err))
	}
}

func (uc *SessionUsecase) set(s domain.Session, notify bool) {
	uc.mu.Lock()
	uc.current = s
	listeners := slices.Clone(uc.listeners)
	uc.mu.Unlock()
	if !notify {
		return
	}
	for _, fn := range listeners {
		fn(s)
	}
}
