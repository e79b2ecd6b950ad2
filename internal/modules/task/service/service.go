package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"anoa.com/taskmanager/internal/entity"
	searchService "anoa.com/taskmanager/internal/modules/search/service"
	"anoa.com/taskmanager/internal/modules/task/dto"
	"anoa.com/taskmanager/internal/modules/task/repository"
	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/internal/progress"
	"anoa.com/taskmanager/pkg/apperror"
	"anoa.com/taskmanager/pkg/sanitizer"
	"github.com/google/uuid"
)

const defaultSearchLimit = 20

type TaskService interface {
	List(ctx context.Context, actor policy.Actor, query dto.TaskQuery) ([]*entity.Task, error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Task, error)
	Create(ctx context.Context, actor policy.Actor, req dto.CreateTaskRequest) (*entity.Task, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.UpdateTaskRequest) (*entity.Task, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	Summary(ctx context.Context, actor policy.Actor, userID string) (dto.TaskSummary, error)
	Search(ctx context.Context, actor policy.Actor, query dto.SearchQuery) ([]*entity.Task, error)
}

// ProjectFinder loads the parent project of a new task.
type ProjectFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error)
}

// UserFinder resolves assignees.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type taskService struct {
	repo      repository.TaskRepository
	projects  ProjectFinder
	users     UserFinder
	index     searchService.TaskIndex
	publisher *progress.Publisher
}

func NewTaskService(
	repo repository.TaskRepository,
	projects ProjectFinder,
	users UserFinder,
	index searchService.TaskIndex,
	publisher *progress.Publisher,
) TaskService {
	return &taskService{
		repo:      repo,
		projects:  projects,
		users:     users,
		index:     index,
		publisher: publisher,
	}
}

func (s *taskService) List(ctx context.Context, actor policy.Actor, query dto.TaskQuery) ([]*entity.Task, error) {
	userID, err := s.targetUser(actor, query.UserID)
	if err != nil {
		return nil, err
	}

	filter, err := parseFilter(query)
	if err != nil {
		return nil, err
	}

	return s.repo.FindAll(ctx, policy.ScopeTasks(actor, userID), filter)
}

func (s *taskService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Task, error) {
	return s.authorize(ctx, actor, id, policy.ActionView)
}

func (s *taskService) Create(ctx context.Context, actor policy.Actor, req dto.CreateTaskRequest) (*entity.Task, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, apperror.NewValidationError("project_id", "the project id field must be a valid UUID")
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NewValidationError("project_id", "the selected project id is invalid")
		}
		return nil, err
	}

	if err := policy.Enforce(actor, policy.ActionCreateTask, policy.ProjectSubject{Project: project}); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.NewValidationError("title", "the title field is required")
	}

	task := &entity.Task{
		ProjectID:   project.ID,
		Title:       title,
		Description: sanitizer.OptionalPlainText(req.Description),
		Status:      entity.TaskStatusPending,
	}

	if req.Status != nil {
		status, err := entity.ParseTaskStatus(*req.Status)
		if err != nil {
			return nil, apperror.NewValidationError("status", "the selected status is invalid")
		}
		task.Status = status
	}

	if req.AssigneeID != nil {
		task.AssigneeID, err = s.resolveAssignee(ctx, *req.AssigneeID)
		if err != nil {
			return nil, err
		}
	}

	res, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, res)

	created, err := s.repo.FindByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	s.reindex(created)
	return created, nil
}

func (s *taskService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.UpdateTaskRequest) (*entity.Task, error) {
	task, err := s.authorize(ctx, actor, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.NewValidationError("title", "the title field is required")
		}
		task.Title = title
	}

	if req.Description.Set {
		task.Description = sanitizer.OptionalPlainText(req.Description.Value)
	}

	if req.AssigneeID.Set {
		if req.AssigneeID.Raw == nil {
			task.AssigneeID = nil
		} else {
			task.AssigneeID, err = s.resolveAssignee(ctx, *req.AssigneeID.Raw)
			if err != nil {
				return nil, err
			}
		}
	}

	statusChanged := false
	if req.Status != nil {
		status, err := entity.ParseTaskStatus(*req.Status)
		if err != nil {
			return nil, apperror.NewValidationError("status", "the selected status is invalid")
		}
		statusChanged = status != task.Status
		task.Status = status
	}

	res, err := s.repo.Update(ctx, task, statusChanged)
	if err != nil {
		return nil, err
	}
	if res != nil {
		s.publish(ctx, *res)
	}

	updated, err := s.repo.FindByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	s.reindex(updated)
	return updated, nil
}

func (s *taskService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	task, err := s.authorize(ctx, actor, id, policy.ActionDelete)
	if err != nil {
		return err
	}

	res, err := s.repo.Delete(ctx, task)
	if err != nil {
		return fmt.Errorf("task: %w", err)
	}
	s.publish(ctx, res)

	if err := s.index.DeleteTask(task.ID); err != nil {
		log.Printf("failed to remove task %s from search index: %v", task.ID, err)
	}
	return nil
}

func (s *taskService) Summary(ctx context.Context, actor policy.Actor, userID string) (dto.TaskSummary, error) {
	target, err := s.targetUser(actor, userID)
	if err != nil {
		return dto.TaskSummary{}, err
	}
	return s.repo.Summary(ctx, policy.ScopeTasks(actor, target))
}

// Search asks the index for matching ids, then reloads them through the listing scope so
// the index never widens what the actor may see. Index relevance order is kept.
func (s *taskService) Search(ctx context.Context, actor policy.Actor, query dto.SearchQuery) ([]*entity.Task, error) {
	var status *entity.TaskStatus
	if query.Status != "" {
		st, err := entity.ParseTaskStatus(query.Status)
		if err != nil {
			return nil, apperror.NewValidationError("status", "the selected status is invalid")
		}
		status = &st
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ids, err := s.index.SearchTaskIDs(strings.TrimSpace(query.Q), status, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*entity.Task{}, nil
	}

	tasks, err := s.repo.FindAll(ctx, policy.ScopeTasks(actor, nil), dto.TaskFilter{Status: status, IDs: ids})
	if err != nil {
		return nil, err
	}

	rank := make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	ordered := make([]*entity.Task, len(ids))
	for _, t := range tasks {
		ordered[rank[t.ID]] = t
	}

	result := make([]*entity.Task, 0, len(tasks))
	for _, t := range ordered {
		if t != nil {
			result = append(result, t)
		}
	}
	return result, nil
}

// authorize loads the task with its project and checks action for actor.
func (s *taskService) authorize(ctx context.Context, actor policy.Actor, id uuid.UUID, action policy.Action) (*entity.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}

	if err := policy.Enforce(actor, action, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) resolveAssignee(ctx context.Context, raw string) (*uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, apperror.NewValidationError("assignee_id", "the assignee id field must be a valid UUID")
	}

	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NewValidationError("assignee_id", "the selected assignee id is invalid")
		}
		return nil, err
	}
	return &id, nil
}

// targetUser parses the user_id query parameter. Only administrators may target another user.
func (s *taskService) targetUser(actor policy.Actor, raw string) (*uuid.UUID, error) {
	if !actor.IsAdmin() || raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.NewValidationError("user_id", "the user id field must be a valid UUID")
	}
	return &id, nil
}

func (s *taskService) publish(ctx context.Context, res progress.Result) {
	if err := s.publisher.Publish(ctx, res); err != nil {
		log.Printf("failed to publish progress for project %s: %v", res.ProjectID, err)
	}
}

func (s *taskService) reindex(task *entity.Task) {
	if err := s.index.IndexTask(task); err != nil {
		log.Printf("failed to index task %s: %v", task.ID, err)
	}
}

func parseFilter(query dto.TaskQuery) (dto.TaskFilter, error) {
	var filter dto.TaskFilter
	fields := map[string]string{}

	if query.ProjectID != "" {
		id, err := uuid.Parse(query.ProjectID)
		if err != nil {
			fields["project_id"] = "the project id field must be a valid UUID"
		} else {
			filter.ProjectID = &id
		}
	}

	if query.Status != "" {
		status, err := entity.ParseTaskStatus(query.Status)
		if err != nil {
			fields["status"] = "the selected status is invalid"
		} else {
			filter.Status = &status
		}
	}

	if query.AssigneeID != "" {
		id, err := uuid.Parse(query.AssigneeID)
		if err != nil {
			fields["assignee_id"] = "the assignee id field must be a valid UUID"
		} else {
			filter.AssigneeID = &id
		}
	}

	if len(fields) > 0 {
		return dto.TaskFilter{}, &apperror.ValidationError{Fields: fields}
	}
	return filter, nil
}
