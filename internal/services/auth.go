package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/flowhabit/flow-api/internal/config"
	"github.com/flowhabit/flow-api/internal/models"
	"github.com/flowhabit/flow-api/internal/repository"
	"github.com/flowhabit/flow-api/pkg/cache"
	"github.com/flowhabit/flow-api/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("invalid or expired session")
)

type AuthService struct {
	repo  *repository.Repository
	cache *cache.Cache
	cfg   *config.AuthConfig
}

func NewAuthService(repo *repository.Repository, cache *cache.Cache, cfg *config.AuthConfig) *AuthService {
	return &AuthService{
		repo:  repo,
		cache: cache,
		cfg:   cfg,
	}
}

// Register creates an account from an already-validated, sanitized input
// and opens a session. Duplicate username/email surfaces as
// repository.ErrDuplicate.
func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		UserID:       uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: string(hash),
		DateOfBirth:  in.DateOfBirth,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	_ = s.cache.IncrementMetric(ctx, "registrations")

	return s.mintSession(ctx, user)
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords return the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	_ = s.cache.IncrementMetric(ctx, "logins")

	return s.mintSession(ctx, user)
}

// Logout revokes a session immediately.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.cache.DeleteSession(ctx, token)
}

// Authenticate resolves a bearer token to its session. The token is
// format-validated before any store lookup.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if res := validator.ValidateSessionToken(token); !res.Valid {
		return nil, ErrUnauthorized
	}

	session, err := s.cache.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.ExpiresAt.After(time.Now().UTC()) {
		return nil, ErrUnauthorized
	}

	return session, nil
}

// GetUser fetches the account behind a session.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.repo.GetUser(ctx, userID)
}

// UpdateProfile applies sanitized profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, username, email, displayName string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Username = username
	user.Email = email
	user.DisplayName = displayName

	if err := s.repo.UpdateUserProfile(ctx, user); err != nil {
		return nil, err
	}

	return s.repo.GetUser(ctx, userID)
}

func (s *AuthService) mintSession(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &models.Session{
		Token:     token,
		UserID:    user.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}

	if err := s.cache.SetSession(ctx, session, s.cfg.SessionTTL); err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	}, nil
}

// newSessionToken returns 256 bits of randomness as 64 hex characters,
// comfortably above the validator's minimum token length.
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
