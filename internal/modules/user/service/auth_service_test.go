package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/modules/user/dto"
	"anoa.com/taskmanager/pkg/apperror"
	"anoa.com/taskmanager/pkg/ratelimiter"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func userWithPassword(t *testing.T, email, password string, role entity.Role) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &entity.User{ID: uuid.New(), Name: email, Email: email, PasswordHash: string(hash), Role: role}
}

func newAuthService(repo *mockUserRepo, tokens *mockTokenRepo, limiter *ratelimiter.AttemptLimiter) AuthService {
	return NewAuthService(repo, tokens, limiter, testSecret, time.Hour)
}

func TestRegister_AlwaysDeveloper(t *testing.T) {
	repo := newMockUserRepo()
	svc := newAuthService(repo, &mockTokenRepo{revoked: map[string]time.Duration{}}, nil)

	resp, err := svc.Register(context.Background(), dto.RegisterInput{
		Name:     " New Dev ",
		Email:    "New@Example.com",
		Password: "Password1234.",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleDeveloper, resp.User.Role)
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.Equal(t, "New Dev", resp.User.Name)
	assert.NotEqual(t, "Password1234.", resp.User.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(resp.User.PasswordHash), []byte("Password1234.")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	existing := userWithPassword(t, "dev@example.com", "Password1234.", entity.RoleDeveloper)
	svc := newAuthService(newMockUserRepo(existing), &mockTokenRepo{}, nil)

	_, err := svc.Register(context.Background(), dto.RegisterInput{Name: "x", Email: "dev@example.com", Password: "Password1234."})
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "email")
}

func TestLogin(t *testing.T) {
	user := userWithPassword(t, "dev@example.com", "Password1234.", entity.RoleDeveloper)
	svc := newAuthService(newMockUserRepo(user), &mockTokenRepo{}, nil)

	t.Run("success issues a token for the user", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), dto.LoginInput{Email: "dev@example.com", Password: "Password1234."})
		require.NoError(t, err)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, int64(3600), resp.ExpiresIn)
		assert.Equal(t, user.ID, resp.User.ID)

		claims := &jwt.RegisteredClaims{}
		_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.Subject)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), dto.LoginInput{Email: "dev@example.com", Password: "nope"})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.Equal(t, "invalid credentials", err.Error())
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), dto.LoginInput{Email: "ghost@example.com", Password: "Password1234."})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})
}

func TestLogin_RateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	user := userWithPassword(t, "dev@example.com", "Password1234.", entity.RoleDeveloper)
	limiter := ratelimiter.NewAttemptLimiter(rdb, "login", 2, time.Minute)
	svc := newAuthService(newMockUserRepo(user), &mockTokenRepo{}, limiter)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Login(ctx, dto.LoginInput{Email: "dev@example.com", Password: "wrong"})
		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	}

	_, err := svc.Login(ctx, dto.LoginInput{Email: "dev@example.com", Password: "Password1234."})
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)

	mr.FastForward(2 * time.Minute)
	_, err = svc.Login(ctx, dto.LoginInput{Email: "dev@example.com", Password: "Password1234."})
	assert.NoError(t, err)
}

func TestLogout_RevokesForRemainingLifetime(t *testing.T) {
	tokens := &mockTokenRepo{revoked: map[string]time.Duration{}}
	svc := newAuthService(newMockUserRepo(), tokens, nil)

	claims := &jwt.RegisteredClaims{ID: "jti-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * time.Minute))}
	require.NoError(t, svc.Logout(context.Background(), claims))

	ttl, ok := tokens.revoked["jti-1"]
	require.True(t, ok)
	assert.InDelta(t, (30 * time.Minute).Seconds(), ttl.Seconds(), 5)

	assert.ErrorIs(t, svc.Logout(context.Background(), &jwt.RegisteredClaims{}), apperror.ErrUnauthorized)
}

func TestMe(t *testing.T) {
	user := userWithPassword(t, "dev@example.com", "Password1234.", entity.RoleDeveloper)
	svc := newAuthService(newMockUserRepo(user), &mockTokenRepo{}, nil)

	resp, err := svc.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, resp.User.Email)

	_, err = svc.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
