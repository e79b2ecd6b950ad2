package service

import (
	"context"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/modules/task/dto"
	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/internal/progress"
	"anoa.com/taskmanager/pkg/apperror"
	"github.com/google/uuid"
)

type mockTaskRepo struct {
	tasks       map[uuid.UUID]*entity.Task
	projects    map[uuid.UUID]*entity.Project
	lastScope   policy.TaskScope
	lastFilter  dto.TaskFilter
	findAll     []*entity.Task
	statusFlags []bool
	deleted     []uuid.UUID
}

func newMockTaskRepo(projects *mockProjects) *mockTaskRepo {
	return &mockTaskRepo{tasks: map[uuid.UUID]*entity.Task{}, projects: projects.projects}
}

func (m *mockTaskRepo) add(project *entity.Project, assignee *uuid.UUID, status entity.TaskStatus) *entity.Task {
	t := &entity.Task{ID: uuid.New(), ProjectID: project.ID, AssigneeID: assignee, Title: "task", Status: status}
	m.tasks[t.ID] = t
	return t
}

func (m *mockTaskRepo) Create(ctx context.Context, task *entity.Task) (progress.Result, error) {
	task.ID = uuid.New()
	copied := *task
	m.tasks[task.ID] = &copied
	return progress.Result{ProjectID: task.ProjectID, ProgressPercentage: 50}, nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *entity.Task, statusChanged bool) (*progress.Result, error) {
	m.statusFlags = append(m.statusFlags, statusChanged)
	copied := *task
	m.tasks[task.ID] = &copied
	if !statusChanged {
		return nil, nil
	}
	return &progress.Result{ProjectID: task.ProjectID, ProgressPercentage: 100}, nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, task *entity.Task) (progress.Result, error) {
	m.deleted = append(m.deleted, task.ID)
	delete(m.tasks, task.ID)
	return progress.Result{ProjectID: task.ProjectID}, nil
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	copied := *t
	copied.Project = m.projects[t.ProjectID]
	return &copied, nil
}

func (m *mockTaskRepo) FindAll(ctx context.Context, scope policy.TaskScope, filter dto.TaskFilter) ([]*entity.Task, error) {
	m.lastScope = scope
	m.lastFilter = filter
	return m.findAll, nil
}

func (m *mockTaskRepo) Summary(ctx context.Context, scope policy.TaskScope) (dto.TaskSummary, error) {
	m.lastScope = scope
	return dto.TaskSummary{Pending: 1, Total: 1}, nil
}

type mockProjects struct {
	projects map[uuid.UUID]*entity.Project
}

func newMockProjects() *mockProjects {
	return &mockProjects{projects: map[uuid.UUID]*entity.Project{}}
}

func (m *mockProjects) add(creator uuid.UUID) *entity.Project {
	p := &entity.Project{ID: uuid.New(), CreatorID: creator, Name: "P"}
	m.projects[p.ID] = p
	return p
}

func (m *mockProjects) FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return p, nil
}

type mockUsers struct {
	users map[uuid.UUID]*entity.User
}

func (m *mockUsers) add(role entity.Role) *entity.User {
	u := &entity.User{ID: uuid.New(), Name: "u", Role: role}
	m.users[u.ID] = u
	return u
}

func (m *mockUsers) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	return u, nil
}

type mockIndex struct {
	enabled bool
	hits    []uuid.UUID
	indexed []uuid.UUID
	removed []uuid.UUID
	err     error
}

func (m *mockIndex) Enabled() bool { return m.enabled }

func (m *mockIndex) IndexTask(task *entity.Task) error {
	m.indexed = append(m.indexed, task.ID)
	return nil
}

func (m *mockIndex) DeleteTask(id uuid.UUID) error {
	m.removed = append(m.removed, id)
	return nil
}

func (m *mockIndex) SearchTaskIDs(query string, status *entity.TaskStatus, limit int64) ([]uuid.UUID, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}
