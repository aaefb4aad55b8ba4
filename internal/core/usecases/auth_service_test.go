package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/tripplanner/internal/core/domain"
	"github.com/samirrijal/tripplanner/internal/core/usecases"
	"github.com/samirrijal/tripplanner/internal/pkg/token"
)

func newAuth(t *testing.T, cache *memCache) (*usecases.AuthService, *memUserRepo) {
	t.Helper()
	tokens, err := token.NewManager("0123456789abcdef0123456789abcdef", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	users := newMemUserRepo()
	if cache == nil {
		return usecases.NewAuthService(users, tokens, nil), users
	}
	return usecases.NewAuthService(users, tokens, cache), users
}

func TestAuthService_SignupNormalizesEmail(t *testing.T) {
	auth, users := newAuth(t, nil)

	res, err := auth.Signup(context.Background(), "  Alice@Example.COM ", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token == "" {
		t.Error("expected token")
	}
	if res.User.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", res.User.Email)
	}
	stored, err := users.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("expected stored user: %v", err)
	}
	if stored.PasswordHash == "hunter2" || stored.PasswordHash == "" {
		t.Error("expected bcrypt hash, not plaintext")
	}

	sess, err := auth.Authenticate(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if sess.UserID != res.User.ID {
		t.Errorf("expected session for %s, got %s", res.User.ID, sess.UserID)
	}
}

func TestAuthService_SignupErrors(t *testing.T) {
	auth, _ := newAuth(t, nil)

	if _, err := auth.Signup(context.Background(), "", "pw"); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := auth.Signup(context.Background(), "a@b.c", ""); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := auth.Signup(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := auth.Signup(context.Background(), "A@B.C", "other"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	auth, _ := newAuth(t, nil)
	if _, err := auth.Signup(context.Background(), "bob@example.com", "s3cret"); err != nil {
		t.Fatalf("signup: %v", err)
	}

	res, err := auth.Login(context.Background(), "BOB@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token == "" || res.User.Email != "bob@example.com" {
		t.Errorf("unexpected login result: %+v", res)
	}

	if _, err := auth.Login(context.Background(), "bob@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := auth.Login(context.Background(), "nobody@example.com", "s3cret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	cache := newMemCache()
	auth, _ := newAuth(t, cache)

	res, err := auth.Signup(context.Background(), "carol@example.com", "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	sess, err := auth.Authenticate(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	if err := auth.Logout(context.Background(), sess); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := auth.Authenticate(context.Background(), res.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}

	ttl := cache.ttls["auth:revoked:"+sess.TokenID]
	if ttl <= 0 || ttl > 7*24*3600+1 {
		t.Errorf("expected revocation ttl within token lifetime, got %d", ttl)
	}
}

func TestAuthService_Authenticate_FailsClosedOnCacheError(t *testing.T) {
	cache := newMemCache()
	auth, _ := newAuth(t, cache)

	res, err := auth.Signup(context.Background(), "erin@example.com", "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	sess, err := auth.Authenticate(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := auth.Logout(context.Background(), sess); err != nil {
		t.Fatalf("logout: %v", err)
	}

	cache.mu.Lock()
	cache.getErr = errors.New("read tcp 127.0.0.1:6379: i/o timeout")
	cache.mu.Unlock()

	got, err := auth.Authenticate(context.Background(), res.Token)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized when revocation state is unknown, got %v", err)
	}
	if got != nil {
		t.Errorf("expected no session, got %+v", got)
	}
}

func TestAuthService_Authenticate_Garbage(t *testing.T) {
	auth, _ := newAuth(t, nil)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		if _, err := auth.Authenticate(context.Background(), tok); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("token %q: expected ErrUnauthorized, got %v", tok, err)
		}
	}
}

func TestAuthService_Me(t *testing.T) {
	auth, _ := newAuth(t, nil)
	res, err := auth.Signup(context.Background(), "dan@example.com", "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	sess, _ := auth.Authenticate(context.Background(), res.Token)

	user, err := auth.Me(context.Background(), sess)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user.ID != res.User.ID || user.Email != "dan@example.com" {
		t.Errorf("unexpected user: %+v", user)
	}

	ghost := &domain.Session{UserID: "ghost", ExpiresAt: time.Now().Add(time.Hour)}
	if _, err := auth.Me(context.Background(), ghost); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for unknown user, got %v", err)
	}
}
