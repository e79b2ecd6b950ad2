package response

import (
	"errors"
	"log"
	"net/http"

	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextUserID = "user_id"
	ContextActor  = "actor"
	ContextToken  = "token_id"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// GetActor retrieves the authenticated actor placed by the auth middleware.
func GetActor(c *gin.Context) (policy.Actor, error) {
	v, exists := c.Get(ContextActor)
	if !exists {
		return policy.Actor{}, apperror.ErrUnauthorized
	}

	actor, ok := v.(policy.Actor)
	if !ok {
		return policy.Actor{}, apperror.ErrUnauthorized
	}

	return actor, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	var validationErr *apperror.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(code, gin.H{"error": apperror.ErrValidation.Error(), "fields": validationErr.Fields})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
