package repository

import (
	"context"
	"errors"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/internal/progress"
	"anoa.com/taskmanager/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error)
	// FindDetail loads the project with its creator and tasks including assignees.
	FindDetail(ctx context.Context, id uuid.UUID) (*entity.Project, error)
	// FindAll lists the projects matched by scope with creator and tasks, oldest first.
	FindAll(ctx context.Context, scope policy.ProjectScope) ([]*entity.Project, error)
	// HasAssignedTask reports whether userID is assignee of any task in the project.
	HasAssignedTask(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	Update(ctx context.Context, project *entity.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	RecomputeAll(ctx context.Context) ([]progress.Result, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *entity.Project) error {
	project.ProgressPercentage = 0
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	var project entity.Project
	if err := r.db.WithContext(ctx).Preload("Creator").First(&project, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

func (r *projectRepository) FindDetail(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	var project entity.Project
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Tasks.Assignee").
		First(&project, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

func (r *projectRepository) FindAll(ctx context.Context, scope policy.ProjectScope) ([]*entity.Project, error) {
	var projects []*entity.Project
	query := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Tasks").
		Order("created_at ASC")

	if !scope.All {
		// A single predicate keeps created and assigned projects deduplicated by id.
		assigned := r.db.Model(&entity.Task{}).Select("project_id").Where("assignee_id = ?", scope.MemberID)
		query = query.Where("creator_id = ? OR id IN (?)", scope.MemberID, assigned)
	}

	if err := query.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepository) HasAssignedTask(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Task{}).
		Where("project_id = ? AND assignee_id = ?", projectID, userID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update persists name and description only.
func (r *projectRepository) Update(ctx context.Context, project *entity.Project) error {
	return r.db.WithContext(ctx).
		Model(project).
		Select("name", "description").
		Updates(project).Error
}

// Delete removes the project and its tasks in one transaction.
func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&entity.Task{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.Project{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.ErrNotFound
		}
		return nil
	})
}

func (r *projectRepository) RecomputeAll(ctx context.Context) ([]progress.Result, error) {
	return progress.RecomputeAll(ctx, r.db)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}
