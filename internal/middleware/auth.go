package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	userRepo "anoa.com/taskmanager/internal/modules/user/repository"
	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/pkg/apperror"
	"anoa.com/taskmanager/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	tokens   userRepo.TokenRepository
	secret   string
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, tokens userRepo.TokenRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		tokens:   tokens,
		secret:   secret,
	}
}

// RequireAuth resolves the bearer token to a stored user and places the actor on the context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = parts[1]
			}
		}

		// Browsers cannot set headers on websocket upgrades.
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			abortUnauthorized(c, "authorization required")
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.secret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			abortUnauthorized(c, "invalid token claims")
			return
		}

		revoked, err := m.tokens.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}
		if revoked {
			abortUnauthorized(c, "token has been revoked")
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			abortUnauthorized(c, "invalid token claims")
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				abortUnauthorized(c, "user not found")
				return
			}
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		c.Set(response.ContextUserID, user.ID.String())
		c.Set(response.ContextActor, policy.ActorFromUser(user))
		c.Set(response.ContextToken, claims)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := response.GetActor(c)
		if err != nil {
			abortUnauthorized(c, "user not authenticated")
			return
		}

		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}

// GetClaims returns the verified token claims stored by RequireAuth.
func GetClaims(c *gin.Context) (*jwt.RegisteredClaims, error) {
	v, exists := c.Get(response.ContextToken)
	if !exists {
		return nil, apperror.ErrUnauthorized
	}
	claims, ok := v.(*jwt.RegisteredClaims)
	if !ok {
		return nil, apperror.ErrUnauthorized
	}
	return claims, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
