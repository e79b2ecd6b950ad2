package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/modules/user/dto"
	"anoa.com/taskmanager/internal/modules/user/repository"
	"anoa.com/taskmanager/pkg/apperror"
	"anoa.com/taskmanager/pkg/ratelimiter"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid credentials", apperror.ErrUnauthorized)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Logout(ctx context.Context, claims *jwt.RegisteredClaims) error
	Me(ctx context.Context, userID uuid.UUID) (*dto.AuthResponse, error)
}

type authService struct {
	repo     repository.UserRepository
	tokens   repository.TokenRepository
	limiter  *ratelimiter.AttemptLimiter
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(repo repository.UserRepository, tokens repository.TokenRepository, limiter *ratelimiter.AttemptLimiter, secret string, tokenTTL time.Duration) AuthService {
	return &authService{
		repo:     repo,
		tokens:   tokens,
		limiter:  limiter,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	email := normalizeEmail(input.Email)

	taken, err := s.repo.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.NewValidationError("email", "the email has already been taken")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleDeveloper,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return &dto.AuthResponse{Message: "user created successfully", User: user}, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	email := normalizeEmail(input.Email)

	if err := s.limiter.Check(ctx, email); err != nil {
		if errors.Is(err, apperror.ErrRateLimitExceeded) {
			return nil, err
		}
		log.Printf("login limiter unavailable: %v", err)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.recordFailure(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}

	if err := s.limiter.Clear(ctx, email); err != nil {
		log.Printf("failed to clear login attempts for %s: %v", email, err)
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Message:     "login successful",
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
	}, nil
}

func (s *authService) recordFailure(ctx context.Context, email string) {
	if err := s.limiter.Hit(ctx, email); err != nil {
		log.Printf("failed to record login attempt for %s: %v", email, err)
	}
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, claims *jwt.RegisteredClaims) error {
	if claims == nil || claims.ID == "" {
		return apperror.ErrUnauthorized
	}

	ttl := s.tokenTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}

	if err := s.tokens.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	return &dto.AuthResponse{Message: "user data retrieved successfully", User: user}, nil
}

func (s *authService) generateToken(user *entity.User) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", 0, err
	}

	return signed, int64(s.tokenTTL.Seconds()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPasswordBytes), nil
}
