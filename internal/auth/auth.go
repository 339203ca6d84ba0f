// ABOUTME: Account registration, password login and bearer token resolution.
// ABOUTME: Passwords use bcrypt; tokens are HS256 JWTs carrying the user id.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/harperreed/medrec/internal/models"
	"github.com/harperreed/medrec/internal/storage"
)

var (
	// ErrUnauthorized means the credential is missing, invalid, expired,
	// or names a user that no longer exists.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials means the username/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DefaultTokenTTL matches the lifetime of a login session.
const DefaultTokenTTL = 24 * time.Hour

// Users is the slice of storage the service needs.
type Users interface {
	CreateUser(u *models.User) error
	GetUser(id int64) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
}

// Claims is the token payload.
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service issues and checks credentials.
type Service struct {
	users  Users
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a Service. A zero ttl falls back to DefaultTokenTTL.
func NewService(users Users, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// HashPassword hashes a plaintext password with bcrypt's default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Register creates a new account. It returns a *models.ValidationError for
// bad input and wraps storage.ErrConflict when the username is taken.
func (s *Service) Register(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := models.ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := models.NewUser(username, hash)
	if err := s.users.CreateUser(u); err != nil {
		return nil, fmt.Errorf("register %s: %w", username, err)
	}
	return u, nil
}

// Login checks the password and returns a signed token for the user.
func (s *Service) Login(username, password string) (string, *models.User, error) {
	u, err := s.users.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.Issue(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Issue signs a token for u that expires after the service ttl.
func (s *Service) Issue(u *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Resolve turns a bearer token into the user it names.
func (s *Service) Resolve(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(s.now()) {
		return nil, ErrUnauthorized
	}

	u, err := s.users.GetUser(claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return u, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
