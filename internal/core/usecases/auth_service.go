package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/core/ports"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
	"github.com/samirrijal/tripplanner/internal/pkg/metrics"
)

const revokedKeyPrefix = "auth:revoked:"

// AuthService handles signup, login, logout and session lookup.
type AuthService struct {
	users   ports.UserRepository
	tokens  ports.TokenIssuer
	revoked ports.CacheService
	cost    int
	now     func() time.Time
}

// NewAuthService creates an AuthService. Without revoked, logout cannot
// invalidate tokens before they expire.
func NewAuthService(users ports.UserRepository, tokens ports.TokenIssuer, revoked ports.CacheService) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers a user and returns a session token.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.AuthEvents.WithLabelValues("signup", "invalid").Inc()
		return nil, domain.ErrMissingCredentials
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		metrics.AuthEvents.WithLabelValues("signup", "taken").Inc()
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			metrics.AuthEvents.WithLabelValues("signup", "taken").Inc()
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	tok, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	metrics.AuthEvents.WithLabelValues("signup", "ok").Inc()
	logging.FromContext(ctx).Info("user signed up", "user_id", user.ID)
	return &domain.AuthResult{Token: tok, User: *user}, nil
}

// Login checks credentials and returns a session token. Unknown emails and
// wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.AuthEvents.WithLabelValues("login", "invalid").Inc()
		return nil, domain.ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil || user == nil {
		metrics.AuthEvents.WithLabelValues("login", "denied").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.AuthEvents.WithLabelValues("login", "denied").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	tok, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	metrics.AuthEvents.WithLabelValues("login", "ok").Inc()
	return &domain.AuthResult{Token: tok, User: *user}, nil
}

// Authenticate verifies a bearer token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	sess, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if !sess.Valid(s.now()) {
		return nil, domain.ErrUnauthorized
	}
	if s.revoked != nil && sess.TokenID != "" {
		_, err := s.revoked.Get(ctx, revokedKeyPrefix+sess.TokenID)
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: token revoked", domain.ErrUnauthorized)
		case !errors.Is(err, domain.ErrCacheMiss):
			// Revocation state unknown: reject rather than accept a logged out token.
			logging.FromContext(ctx).Error("revocation check failed", "user_id", sess.UserID, "error", err)
			return nil, fmt.Errorf("%w: revocation check: %v", domain.ErrUnauthorized, err)
		}
	}
	return sess, nil
}

// Logout revokes the session's token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, sess *domain.Session) error {
	if !sess.Valid(s.now()) {
		return domain.ErrUnauthorized
	}
	if s.revoked == nil || sess.TokenID == "" {
		logging.FromContext(ctx).Warn("logout without revocation store", "user_id", sess.UserID)
		return nil
	}

	ttl := int(sess.ExpiresAt.Sub(s.now()).Seconds()) + 1
	if err := s.revoked.Set(ctx, revokedKeyPrefix+sess.TokenID, []byte(sess.UserID), ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	metrics.AuthEvents.WithLabelValues("logout", "ok").Inc()
	return nil
}

// Me returns the account behind a session.
func (s *AuthService) Me(ctx context.Context, sess *domain.Session) (*domain.User, error) {
	if !sess.Valid(s.now()) {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil || user == nil {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}
