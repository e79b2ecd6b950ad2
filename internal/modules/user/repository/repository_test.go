package repository_test

import (
	"context"
	"testing"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/modules/user/repository"
	"anoa.com/taskmanager/internal/testutil"
	"anoa.com/taskmanager/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_FindAllByRoleOrderedByName(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "zed", entity.RoleDeveloper)
	testutil.CreateUser(t, db, "amy", entity.RoleDeveloper)
	testutil.CreateUser(t, db, "boss", entity.RoleAdmin)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"amy", "boss", "zed"}, []string{all[0].Name, all[1].Name, all[2].Name})

	devs, err := repo.FindAll(ctx, entity.RoleDeveloper)
	require.NoError(t, err)
	require.Len(t, devs, 2)
	for _, u := range devs {
		assert.Equal(t, entity.RoleDeveloper, u.Role)
	}

	admins, err := repo.FindAll(ctx, entity.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "boss", admins[0].Name)
}

func TestUserRepository_FindNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserRepository_EmailTaken(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "dev", entity.RoleDeveloper)

	taken, err := repo.EmailTaken(ctx, u.Email, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTaken(ctx, u.Email, u.ID)
	require.NoError(t, err)
	assert.False(t, taken, "own email is ignored on update")

	taken, err = repo.EmailTaken(ctx, "fresh@example.com", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	doomed := testutil.CreateUser(t, db, "doomed", entity.RoleDeveloper)
	other := testutil.CreateUser(t, db, "other", entity.RoleDeveloper)

	ownProject := testutil.CreateProject(t, db, doomed, "own")
	ownTask := testutil.CreateTask(t, db, ownProject, other, entity.TaskStatusPending)

	otherProject := testutil.CreateProject(t, db, other, "other")
	assignedTask := testutil.CreateTask(t, db, otherProject, doomed, entity.TaskStatusPending)

	require.NoError(t, repo.Delete(ctx, doomed.ID))

	var count int64
	require.NoError(t, db.Model(&entity.Project{}).Where("id = ?", ownProject.ID).Count(&count).Error)
	assert.Zero(t, count, "created projects are removed")
	require.NoError(t, db.Model(&entity.Task{}).Where("id = ?", ownTask.ID).Count(&count).Error)
	assert.Zero(t, count, "tasks of removed projects are removed")

	var kept entity.Task
	require.NoError(t, db.First(&kept, "id = ?", assignedTask.ID).Error)
	assert.Nil(t, kept.AssigneeID, "assignment is cleared")

	_, err := repo.FindByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), apperror.ErrNotFound)
}

func TestUserRepository_Update(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "dev", entity.RoleDeveloper)

	u.Name = "renamed"
	u.Role = entity.RoleAdmin
	require.NoError(t, repo.Update(ctx, u))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, entity.RoleAdmin, got.Role)
}
