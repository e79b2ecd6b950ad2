package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestResponseError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantFields bool
	}{
		{"not found", fmt.Errorf("project: %w", apperror.ErrNotFound), http.StatusNotFound, "project: resource not found", false},
		{"forbidden with reason", policy.Deny("unauthorized to view this project").Err(), http.StatusForbidden, "unauthorized to view this project: forbidden", false},
		{"validation", apperror.NewValidationError("status", "the selected status is invalid"), http.StatusUnprocessableEntity, "validation failed", true},
		{"internal is hidden", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			ResponseError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body["error"])
			_, hasFields := body["fields"]
			assert.Equal(t, tt.wantFields, hasFields)
		})
	}
}

func TestGetActor(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetActor(c)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	actor := policy.Actor{ID: uuid.New(), Role: entity.RoleDeveloper}
	c.Set(ContextActor, actor)
	got, err := GetActor(c)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}
