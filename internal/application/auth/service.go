package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/rubenrizquez10/comicstore/internal/domain/user"
	"github.com/rubenrizquez10/comicstore/internal/pkg/logging"
)

var (
	ErrInvalidToken = errors.New("Token inválido")
	ErrExpiredToken = errors.New("Token expirado")
)

// Claims carries the user identity inside the bearer token.
type Claims struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service handles registration, login and bearer-token verification.
type Service struct {
	users  user.Repository
	secret []byte
	ttl    time.Duration
}

func NewService(users user.Repository, secret string, ttl time.Duration) *Service {
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Register creates an account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, fullName, email, password string) (*user.User, string, error) {
	if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, "", user.ErrEmailTaken
	}
	u := &user.User{FullName: fullName, Email: email}
	if err := u.SetPassword(password); err != nil {
		return nil, "", err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}
	token, err := s.sign(u)
	if err != nil {
		return nil, "", err
	}
	logging.FromContext(ctx).Info("user_registered", zap.Uint("user_id", u.ID))
	return u, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
// Unknown email and wrong password surface the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", user.ErrInvalidCredentials
	}
	if !u.CheckPassword(password) {
		return nil, "", user.ErrInvalidCredentials
	}
	token, err := s.sign(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ProfileInput is the write payload for account updates. Empty fields keep
// their current value; a non-empty Password is re-hashed.
type ProfileInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) GetUser(ctx context.Context, id uint) (*user.User, error) {
	return s.users.FindByID(ctx, id)
}

// UpdateUser applies the input to an account. Changing the email to one
// already registered fails with ErrEmailTaken.
func (s *Service) UpdateUser(ctx context.Context, id uint, in ProfileInput) (*user.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != "" && in.Email != u.Email {
		if existing, err := s.users.FindByEmail(ctx, in.Email); err == nil && existing != nil {
			return nil, user.ErrEmailTaken
		}
		u.Email = in.Email
	}
	if in.FullName != "" {
		u.FullName = in.FullName
	}
	if in.Password != "" {
		if err := u.SetPassword(in.Password); err != nil {
			return nil, err
		}
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("user_updated", zap.Uint("user_id", u.ID))
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.users.List(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// Verify parses a bearer token and loads the account it names.
func (s *Service) Verify(ctx context.Context, tokenString string) (*user.User, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func (s *Service) sign(u *user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
