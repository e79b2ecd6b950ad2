package repository

import (
	"context"
	"errors"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/modules/task/dto"
	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/internal/progress"
	"anoa.com/taskmanager/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskRepository persists tasks. Every mutation that can change a project's completion ratio
// recomputes the project's progress in the same transaction.
type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) (progress.Result, error)
	// Update saves title, description, assignee and status. Progress is recomputed only
	// when statusChanged is set.
	Update(ctx context.Context, task *entity.Task, statusChanged bool) (*progress.Result, error)
	Delete(ctx context.Context, task *entity.Task) (progress.Result, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	// FindAll lists tasks inside scope matching filter, newest first, with project and assignee.
	FindAll(ctx context.Context, scope policy.TaskScope, filter dto.TaskFilter) ([]*entity.Task, error)
	Summary(ctx context.Context, scope policy.TaskScope) (dto.TaskSummary, error)
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *entity.Task) (progress.Result, error) {
	var res progress.Result
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}
		var err error
		res, err = progress.Recompute(ctx, tx, task.ProjectID)
		return err
	})
	return res, err
}

func (r *taskRepository) Update(ctx context.Context, task *entity.Task, statusChanged bool) (*progress.Result, error) {
	var res *progress.Result
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(task).
			Select("title", "description", "assignee_id", "status").
			Omit(clause.Associations).
			Updates(task).Error; err != nil {
			return err
		}
		if !statusChanged {
			return nil
		}
		recomputed, err := progress.Recompute(ctx, tx, task.ProjectID)
		if err != nil {
			return err
		}
		res = &recomputed
		return nil
	})
	return res, err
}

func (r *taskRepository) Delete(ctx context.Context, task *entity.Task) (progress.Result, error) {
	var res progress.Result
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&entity.Task{}, "id = ?", task.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.ErrNotFound
		}
		var err error
		res, err = progress.Recompute(ctx, tx, task.ProjectID)
		return err
	})
	return res, err
}

func (r *taskRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	var task entity.Task
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Assignee").
		First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, scope policy.TaskScope, filter dto.TaskFilter) ([]*entity.Task, error) {
	var tasks []*entity.Task
	query := r.scoped(r.db.WithContext(ctx).Model(&entity.Task{}), scope)

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.IDs != nil {
		query = query.Where("id IN ?", filter.IDs)
	}

	err := query.
		Preload("Project").
		Preload("Assignee").
		Order("created_at DESC").
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

type statusCount struct {
	Status entity.TaskStatus
	Count  int64
}

func (r *taskRepository) Summary(ctx context.Context, scope policy.TaskScope) (dto.TaskSummary, error) {
	var rows []statusCount
	err := r.scoped(r.db.WithContext(ctx).Model(&entity.Task{}), scope).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return dto.TaskSummary{}, err
	}

	var summary dto.TaskSummary
	for _, row := range rows {
		switch row.Status {
		case entity.TaskStatusPending:
			summary.Pending = row.Count
		case entity.TaskStatusInProgress:
			summary.InProgress = row.Count
		case entity.TaskStatusCompleted:
			summary.Completed = row.Count
		default:
			continue
		}
		summary.Total += row.Count
	}
	return summary, nil
}

func (r *taskRepository) scoped(query *gorm.DB, scope policy.TaskScope) *gorm.DB {
	switch {
	case scope.All:
		return query
	case scope.AssigneeID != nil:
		return query.Where("assignee_id = ?", *scope.AssigneeID)
	case scope.VisibleTo != nil:
		created := r.db.Model(&entity.Project{}).Select("id").Where("creator_id = ?", *scope.VisibleTo)
		return query.Where("assignee_id = ? OR project_id IN (?)", *scope.VisibleTo, created)
	default:
		return query.Where("1 = 0")
	}
}
