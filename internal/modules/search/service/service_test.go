package service

import (
	"testing"
	"time"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskDoc(t *testing.T) {
	assignee := uuid.New()
	desc := "<p>Wire the <b>login</b></p><p>form</p>"
	task := &entity.Task{
		ID:          uuid.New(),
		ProjectID:   uuid.New(),
		Project:     &entity.Project{Name: "Core"},
		AssigneeID:  &assignee,
		Title:       "Login",
		Description: &desc,
		Status:      entity.TaskStatusInProgress,
		CreatedAt:   time.Unix(1700000000, 0),
	}

	doc := newTaskDoc(task)
	assert.Equal(t, task.ID.String(), doc.ID)
	assert.Equal(t, "Wire the login form", doc.Description)
	assert.Equal(t, "in_progress", doc.Status)
	assert.Equal(t, "Core", doc.ProjectName)
	assert.Equal(t, assignee.String(), doc.AssigneeID)
	assert.Equal(t, int64(1700000000), doc.CreatedAt)
}

func TestParseHitIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	raw := []byte(`{"hits":[{"id":"` + a.String() + `"},{"id":"garbage"},{"id":"` + b.String() + `"}],"query":"x"}`)

	ids, err := parseHitIDs(raw)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	_, err = parseHitIDs([]byte(`not json`))
	assert.Error(t, err)
}

func TestDisabledIndex(t *testing.T) {
	idx := NewMeiliSearchService(nil)
	assert.False(t, idx.Enabled())
	assert.NoError(t, idx.IndexTask(&entity.Task{ID: uuid.New()}))
	assert.NoError(t, idx.DeleteTask(uuid.New()))

	_, err := idx.SearchTaskIDs("login", nil, 20)
	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}
