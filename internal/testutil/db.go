// Package testutil holds helpers shared by repository and service tests.
package testutil

import (
	"path/filepath"
	"testing"

	"anoa.com/taskmanager/internal/bootstrap"
	"anoa.com/taskmanager/internal/entity"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database in a temp dir with foreign keys enforced.
// The pool is limited to one connection, so a query issued outside an open transaction blocks.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate database: %v", err)
	}

	return db
}

func CreateUser(t *testing.T, db *gorm.DB, name string, role entity.Role) *entity.User {
	t.Helper()

	u := &entity.User{
		Name:         name,
		Email:        name + "-" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func CreateProject(t *testing.T, db *gorm.DB, creator *entity.User, name string) *entity.Project {
	t.Helper()

	p := &entity.Project{CreatorID: creator.ID, Name: name}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

// CreateTask inserts a task directly, without recomputing project progress.
func CreateTask(t *testing.T, db *gorm.DB, project *entity.Project, assignee *entity.User, status entity.TaskStatus) *entity.Task {
	t.Helper()

	task := &entity.Task{ProjectID: project.ID, Title: "task " + uuid.NewString()[:8], Status: status}
	if assignee != nil {
		task.AssigneeID = &assignee.ID
	}
	if err := db.Omit("Project", "Assignee").Create(task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}
