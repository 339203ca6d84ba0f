// ABOUTME: Tests for registration, login and token resolution.
// ABOUTME: Uses the in-memory store so no database is needed.
package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/storage"
)

func setupService(t *testing.T) (*Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewService(store, "test-secret", time.Hour), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupService(t)

	u, err := svc.Register("alice", "secret1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected user ID to be assigned")
	}
	if u.PasswordHash == "secret1" {
		t.Error("password stored in plain text")
	}

	token, got, err := svc.Login("alice", "secret1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" || got.Username != "alice" {
		t.Errorf("Login returned token=%q user=%v", token, got)
	}

	resolved, err := svc.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.ID != u.ID {
		t.Errorf("Resolve ID = %d, want %d", resolved.ID, u.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setupService(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "secret1"},
		{"empty password", "bob", ""},
		{"short password", "bob", "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.username, tt.password)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := setupService(t)
	if _, err := svc.Register("alice", "secret1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.Register("alice", "another"); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate Register: err = %v, want ErrConflict", err)
	}
}

func TestLoginInvalid(t *testing.T) {
	svc, _ := setupService(t)
	if _, err := svc.Register("alice", "secret1"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, err := svc.Login("alice", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, _, err := svc.Login("nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestResolveRejects(t *testing.T) {
	svc, store := setupService(t)
	u, err := svc.Register("alice", "secret1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	t.Run("empty", func(t *testing.T) {
		if _, err := svc.Resolve(""); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := svc.Resolve("not.a.token"); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(store, "other-secret", time.Hour)
		token, err := other.Issue(u)
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if _, err := svc.Resolve(token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		past := NewService(store, "test-secret", time.Hour)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.Issue(u)
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if _, err := svc.Resolve(token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("deleted user", func(t *testing.T) {
		token, err := svc.Issue(&models.User{ID: 999, Username: "ghost"})
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if _, err := svc.Resolve(token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := Claims{UserID: u.ID, Username: u.Username, RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign failed: %v", err)
		}
		if _, err := svc.Resolve(token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := BearerToken(tt.header); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
