package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pricelist/internal/ratelimit"
)

// bcrypt ignores everything past 72 bytes, newer versions refuse it.
const maxPasswordBytes = 72

type Options struct {
	TokenTTL      time.Duration
	InviteCode    string
	AdminPassword string
	AdminEmail    string
	Policy        ratelimit.Policy
}

// Service composes the credential store, hasher, token codec and rate
// limiters into the login, register and current-user flows.
type Service struct {
	store      UserStore
	hasher     Hasher
	codec      *TokenCodec
	loginRL    ratelimit.Backend
	registerRL ratelimit.Backend
	opts       Options
	logger     *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService wires the facade. loginRL and registerRL may share a backend:
// their keys live in separate namespaces.
func NewService(
	store UserStore,
	hasher Hasher,
	codec *TokenCodec,
	loginRL, registerRL ratelimit.Backend,
	opts Options,
	logger *slog.Logger,
) *Service {
	if opts.Policy == "" {
		opts.Policy = ratelimit.PolicyFailures
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		hasher:     hasher,
		codec:      codec,
		loginRL:    loginRL,
		registerRL: registerRL,
		opts:       opts,
		logger:     logger,
	}
}

// EnsureAdmin provisions the bootstrap admin account when it is missing. It
// is safe to call concurrently: the store's unique index decides the race and
// a duplicate insert counts as success.
func (s *Service) EnsureAdmin(ctx context.Context) error {
	_, err := s.store.GetByUsername(ctx, AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}
	hash, err := s.hasher.Hash(s.opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	var email *string
	if s.opts.AdminEmail != "" {
		e := s.opts.AdminEmail
		email = &e
	}
	if _, err := s.store.Create(ctx, AdminUsername, email, hash); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", "username", AdminUsername)
	return nil
}

// Login takes a slot in the client's window, verifies the credentials and
// returns a signed token. Unknown users and wrong passwords produce the same
// error. Under PolicyFailures the slot is handed back unless the credentials
// were wrong, so only failures stay in the window.
func (s *Service) Login(ctx context.Context, username, password, clientKey string) (token string, err error) {
	key := s.loginKey(username, clientKey)

	d, err := s.loginRL.Allow(ctx, key)
	if err != nil {
		return "", fmt.Errorf("login rate limit: %w", err)
	}
	if !d.Allowed {
		s.logger.Warn("login throttled", "client", clientKey, "retry_after", d.RetryAfter)
		return "", &TooManyAttemptsError{RetryAfter: d.RetryAfter}
	}
	if s.opts.Policy == ratelimit.PolicyFailures {
		defer func() {
			if errors.Is(err, ErrInvalidCredentials) {
				return
			}
			if rerr := s.loginRL.Release(ctx, key); rerr != nil {
				s.logger.Error("release login slot", "err", rerr)
			}
		}()
	}

	if err := s.EnsureAdmin(ctx); err != nil {
		return "", err
	}

	user, err := s.store.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrUserNotFound):
		// Burn the same hashing time as a real comparison.
		s.hasher.Verify(password, s.dummyDigest())
		return "", s.loginFailed(clientKey)
	case err != nil:
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", s.loginFailed(clientKey)
	}

	token, err = s.codec.Issue(user.Username, s.opts.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *Service) loginFailed(clientKey string) error {
	s.logger.Info("login failed", "client", clientKey)
	return ErrInvalidCredentials
}

func (s *Service) loginKey(username, clientKey string) string {
	if s.opts.Policy == ratelimit.PolicyAllAttempts {
		return "login:" + clientKey
	}
	return "login:" + username + ":" + clientKey
}

func (s *Service) dummyDigest() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("timing-equalizer")
		if err != nil {
			s.logger.Error("hash dummy password", "err", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Register creates an account when the invite code matches.
func (s *Service) Register(ctx context.Context, in RegisterInput, clientKey string) (*UserSummary, error) {
	d, err := s.registerRL.Allow(ctx, "register:"+clientKey)
	if err != nil {
		return nil, fmt.Errorf("register rate limit: %w", err)
	}
	if !d.Allowed {
		s.logger.Warn("register throttled", "client", clientKey, "retry_after", d.RetryAfter)
		return nil, &TooManyAttemptsError{RetryAfter: d.RetryAfter}
	}

	if subtle.ConstantTimeCompare([]byte(in.InviteCode), []byte(s.opts.InviteCode)) != 1 {
		return nil, ErrForbidden
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Password == "" || len(in.Password) > maxPasswordBytes {
		return nil, ErrInvalidInput
	}

	if _, err := s.store.GetByUsername(ctx, in.Username); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	var email *string
	if in.Email != "" {
		if _, err := s.store.GetByEmail(ctx, in.Email); err == nil {
			return nil, ErrConflict
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("lookup email: %w", err)
		}
		email = &in.Email
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.store.Create(ctx, in.Username, email, hash)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", "id", u.ID, "username", u.Username)
	return &UserSummary{ID: u.ID, Username: u.Username}, nil
}

// CurrentUser resolves a bearer token to a live account. A user deleted
// after the token was issued is rejected.
func (s *Service) CurrentUser(ctx context.Context, token string) (*User, error) {
	subject, err := s.codec.Verify(token)
	if err != nil {
		s.logger.Debug("token rejected", "reason", err)
		return nil, ErrUnauthorized
	}
	user, err := s.store.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Info("token subject no longer exists", "username", subject)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("lookup token subject: %w", err)
	}
	return user, nil
}
