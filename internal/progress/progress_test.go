package progress_test

import (
	"context"
	"testing"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/progress"
	"anoa.com/taskmanager/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		completed int64
		want      float64
	}{
		{"no tasks", 0, 0, 0},
		{"half", 4, 2, 50},
		{"one third", 3, 1, 33.33},
		{"two thirds rounds up", 3, 2, 66.67},
		{"exact half cent rounds up", 32, 1, 3.13},
		{"all completed", 4, 4, 100},
		{"none completed", 5, 0, 0},
		{"negative total treated as empty", -1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progress.Calculate(tt.total, tt.completed))
		})
	}
}

func TestCalculate_Range(t *testing.T) {
	for total := int64(1); total <= 50; total++ {
		for completed := int64(0); completed <= total; completed++ {
			got := progress.Calculate(total, completed)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		}
	}
}

func storedProgress(t *testing.T, db *gorm.DB, p *entity.Project) float64 {
	t.Helper()
	var fresh entity.Project
	require.NoError(t, db.First(&fresh, "id = ?", p.ID).Error)
	return fresh.ProgressPercentage
}

func recompute(t *testing.T, db *gorm.DB, p *entity.Project) progress.Result {
	t.Helper()
	var res progress.Result
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = progress.Recompute(context.Background(), tx, p.ID)
		return err
	})
	require.NoError(t, err)
	return res
}

func TestRecompute_CompletionAndDeletion(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner", entity.RoleDeveloper)
	project := testutil.CreateProject(t, db, owner, "P")

	testutil.CreateTask(t, db, project, nil, entity.TaskStatusCompleted)
	doneToDelete := testutil.CreateTask(t, db, project, nil, entity.TaskStatusCompleted)
	testutil.CreateTask(t, db, project, nil, entity.TaskStatusInProgress)
	testutil.CreateTask(t, db, project, nil, entity.TaskStatusPending)

	res := recompute(t, db, project)
	assert.Equal(t, 50.0, res.ProgressPercentage)
	assert.Equal(t, project.ID, res.ProjectID)
	assert.Equal(t, 50.0, storedProgress(t, db, project))

	require.NoError(t, db.Delete(&entity.Task{}, "id = ?", doneToDelete.ID).Error)
	res = recompute(t, db, project)
	assert.Equal(t, 33.33, res.ProgressPercentage)
	assert.Equal(t, 33.33, storedProgress(t, db, project))
}

func TestRecompute_EmptyThenPendingThenCompleted(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner", entity.RoleDeveloper)
	project := testutil.CreateProject(t, db, owner, "P")

	assert.Equal(t, 0.0, recompute(t, db, project).ProgressPercentage)

	task := testutil.CreateTask(t, db, project, nil, entity.TaskStatusPending)
	assert.Equal(t, 0.0, recompute(t, db, project).ProgressPercentage)

	require.NoError(t, db.Model(&entity.Task{}).Where("id = ?", task.ID).
		Update("status", entity.TaskStatusCompleted).Error)
	assert.Equal(t, 100.0, recompute(t, db, project).ProgressPercentage)
	assert.Equal(t, 100.0, storedProgress(t, db, project))
}

func TestRecompute_Idempotent(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner", entity.RoleDeveloper)
	project := testutil.CreateProject(t, db, owner, "P")
	testutil.CreateTask(t, db, project, nil, entity.TaskStatusCompleted)
	testutil.CreateTask(t, db, project, nil, entity.TaskStatusPending)
	testutil.CreateTask(t, db, project, nil, entity.TaskStatusPending)

	first := recompute(t, db, project)
	second := recompute(t, db, project)
	assert.Equal(t, first, second)
	assert.Equal(t, 33.33, storedProgress(t, db, project))
}

func TestRecompute_OnlyCountsOwnProject(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner", entity.RoleDeveloper)
	a := testutil.CreateProject(t, db, owner, "A")
	b := testutil.CreateProject(t, db, owner, "B")
	testutil.CreateTask(t, db, a, nil, entity.TaskStatusCompleted)
	testutil.CreateTask(t, db, b, nil, entity.TaskStatusPending)

	assert.Equal(t, 100.0, recompute(t, db, a).ProgressPercentage)
	assert.Equal(t, 0.0, recompute(t, db, b).ProgressPercentage)
}

func TestRecomputeAll(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner", entity.RoleDeveloper)
	a := testutil.CreateProject(t, db, owner, "A")
	b := testutil.CreateProject(t, db, owner, "B")
	testutil.CreateTask(t, db, a, nil, entity.TaskStatusCompleted)
	testutil.CreateTask(t, db, a, nil, entity.TaskStatusPending)

	// Stale cached value must be overwritten.
	require.NoError(t, db.Model(&entity.Project{}).Where("id = ?", b.ID).
		UpdateColumn("progress_percentage", 75).Error)

	results, err := progress.RecomputeAll(context.Background(), db)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 50.0, storedProgress(t, db, a))
	assert.Equal(t, 0.0, storedProgress(t, db, b))
}

func TestPublisher_DisabledWithoutRedis(t *testing.T) {
	p := progress.NewPublisher(nil)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), progress.Result{}))

	_, err := p.Subscribe(context.Background(), uuid.New())
	assert.Error(t, err)

	var nilPub *progress.Publisher
	assert.False(t, nilPub.Enabled())
}
