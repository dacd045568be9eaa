package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/elman-pos/elman/internal/shared"
)

// ErrInvalidCredentials indicates login failure.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken indicates a malformed, forged or expired token.
var ErrInvalidToken = errors.New("invalid or expired token")

type claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Authenticate validates username/password credentials and issues a token.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	expiresAt := s.now().UTC().Add(s.ttl)
	token, err := s.sign(user, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResponse{
		Token:     token,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyToken parses a bearer token and returns the actor it identifies.
func (s *Service) VerifyToken(token string) (shared.Actor, error) {
	parsed := &claims{}
	tok, err := jwt.ParseWithClaims(token, parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now))
	if err != nil || !tok.Valid {
		return shared.Actor{}, ErrInvalidToken
	}
	if parsed.Subject == "" || !Role(parsed.Role).Valid() {
		return shared.Actor{}, ErrInvalidToken
	}
	return shared.Actor{
		ID:       parsed.Subject,
		Username: parsed.Username,
		Role:     parsed.Role,
	}, nil
}

// ListUsers returns all accounts. Password hashes never serialize.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// ProvisionUser creates an account with a freshly hashed password.
func (s *Service) ProvisionUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreateUser(ctx, req.Username, hash, req.Role)
	if err != nil {
		return nil, err
	}
	return &User{ID: id, Username: req.Username, Role: req.Role, CreatedAt: s.now().UTC()}, nil
}

// ResetPassword replaces the password of an existing account.
func (s *Service) ResetPassword(ctx context.Context, id int64, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) sign(user *User, expiresAt time.Time) (string, error) {
	now := s.now().UTC()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: user.Username,
		Role:     string(user.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}
