package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/authgate/authgate/internal/shared/config"
)

// dummyPasswordDigest is verified against when a username doesn't exist, so
// login takes the same time whether or not the user is present. It is not a
// real credential and never matches any password submitted here.
const dummyPasswordDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	minPasswordLen = 8
	// bcrypt reads at most 72 bytes of input; anything longer must be
	// rejected at validation instead of surfacing as a hashing failure.
	maxPasswordLen = 72
)

type (
	servicer interface {
		Signup(ctx context.Context, in SignupIn) (*UserOut, error)
		Login(ctx context.Context, in LoginIn) (*UserOut, string, error)
		VerifySession(ctx context.Context, token string) (*UserOut, error)
		Logout(ctx context.Context, token string) error
		CookieSecret() []byte
		SessionTTL() time.Duration
	}

	service struct {
		users      UserRepository
		sessions   SessionRepository
		hasher     PasswordHasher
		secret     []byte
		sessionTTL time.Duration
		logger     zerolog.Logger
	}
)

func NewService(cfg *config.Config, users UserRepository, sessions SessionRepository, hasher PasswordHasher, logger zerolog.Logger) (servicer, error) {
	secret, err := cfg.CookieSecret()
	if err != nil {
		return nil, err
	}
	return &service{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		secret:     secret,
		sessionTTL: cfg.SessionTTL,
		logger:     logger.With().Str("component", "auth").Logger(),
	}, nil
}

// Signup validates the input, hashes the password and persists a new user
// record. Duplicate usernames and emails surface as ConflictError regardless
// of how many writers race: the store's unique indexes serialize them.
func (s *service) Signup(ctx context.Context, in SignupIn) (*UserOut, error) {
	if err := validateSignup(in); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: digest,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		var dup *DuplicateKeyError
		if errors.As(err, &dup) {
			return nil, &ConflictError{
				Field:   dup.Field,
				Message: fmt.Sprintf("%s is already taken", dup.Field),
			}
		}
		return nil, fmt.Errorf("storing user: %w", err)
	}

	s.logger.Debug().Str("username", user.Username).Str("user_id", user.ID).Msg("User created")
	return user.PublicView(), nil
}

// Login verifies the credentials and issues a new session token bound to the
// user. Unknown username and wrong password yield the same error.
func (s *service) Login(ctx context.Context, in LoginIn) (*UserOut, string, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, "", fmt.Errorf("looking up user: %w", err)
	}

	// Always run the hash comparison so response time doesn't reveal whether
	// the username exists.
	digest := dummyPasswordDigest
	if user != nil {
		digest = user.PasswordHash
	}
	if !s.hasher.Verify(in.Password, digest) || user == nil {
		return nil, "", ErrInvalidCredentials
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", fmt.Errorf("generating session token: %w", err)
	}

	session := &Session{
		TokenHash: tokenHash,
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", fmt.Errorf("storing session: %w", err)
	}

	s.logger.Debug().Str("username", user.Username).Str("user_id", user.ID).Msg("Session issued")
	return user.PublicView(), token, nil
}

// VerifySession resolves a token to its user's public view. A missing,
// malformed, expired or revoked token, or a token whose user was deleted,
// yields ErrSessionInvalid. Expiry is checked here on every call; there is
// no background eviction.
func (s *service) VerifySession(ctx context.Context, token string) (*UserOut, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	if session.Expired(time.Now().UTC()) {
		// Opportunistic cleanup; the session is already unusable.
		if err := s.sessions.DeleteByTokenHash(ctx, session.TokenHash); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to delete expired session")
		}
		return nil, ErrSessionInvalid
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("looking up session user: %w", err)
	}

	return user.PublicView(), nil
}

// Logout invalidates the session token. Unknown or already-revoked tokens
// are not an error, so calling it twice is fine.
func (s *service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByTokenHash(ctx, HashSessionToken(token)); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CookieSecret returns the key for cookie encryption.
func (s *service) CookieSecret() []byte {
	return s.secret
}

// SessionTTL returns the configured session lifetime.
func (s *service) SessionTTL() time.Duration {
	return s.sessionTTL
}

func validateSignup(in SignupIn) error {
	if in.Username == "" {
		return &ValidationError{Field: "username", Message: "username is required"}
	}
	if !emailPattern.MatchString(in.Email) {
		return &ValidationError{Field: "email", Message: "email is not valid"}
	}
	if len(in.Password) < minPasswordLen {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", minPasswordLen),
		}
	}
	if len(in.Password) > maxPasswordLen {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at most %d bytes", maxPasswordLen),
		}
	}
	return nil
}
