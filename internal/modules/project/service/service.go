package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/internal/modules/project/dto"
	"anoa.com/taskmanager/internal/modules/project/repository"
	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/internal/progress"
	"anoa.com/taskmanager/pkg/sanitizer"
	"github.com/google/uuid"
)

type ProjectService interface {
	List(ctx context.Context, actor policy.Actor) ([]*entity.Project, error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Project, error)
	Create(ctx context.Context, actor policy.Actor, req dto.ProjectRequest) (*entity.Project, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.ProjectRequest) (*entity.Project, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	// Authorize loads the project and checks action for actor, resolving membership on the way.
	Authorize(ctx context.Context, actor policy.Actor, id uuid.UUID, action policy.Action) (*entity.Project, error)
	RecomputeAll(ctx context.Context) ([]progress.Result, error)
}

type projectService struct {
	repo      repository.ProjectRepository
	publisher *progress.Publisher
}

func NewProjectService(repo repository.ProjectRepository, publisher *progress.Publisher) ProjectService {
	return &projectService{repo: repo, publisher: publisher}
}

func (s *projectService) List(ctx context.Context, actor policy.Actor) ([]*entity.Project, error) {
	return s.repo.FindAll(ctx, policy.ScopeProjects(actor))
}

func (s *projectService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*entity.Project, error) {
	if _, err := s.Authorize(ctx, actor, id, policy.ActionView); err != nil {
		return nil, err
	}

	project, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return project, nil
}

func (s *projectService) Create(ctx context.Context, actor policy.Actor, req dto.ProjectRequest) (*entity.Project, error) {
	project := &entity.Project{
		CreatorID:   actor.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: sanitizer.OptionalPlainText(req.Description),
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, project.ID)
}

func (s *projectService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req dto.ProjectRequest) (*entity.Project, error) {
	project, err := s.Authorize(ctx, actor, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	project.Name = strings.TrimSpace(req.Name)
	project.Description = sanitizer.OptionalPlainText(req.Description)

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, project.ID)
}

func (s *projectService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if _, err := s.Authorize(ctx, actor, id, policy.ActionDelete); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("project: %w", err)
	}
	return nil
}

func (s *projectService) Authorize(ctx context.Context, actor policy.Actor, id uuid.UUID, action policy.Action) (*entity.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}

	subject := policy.ProjectSubject{Project: project}
	// Membership only matters for a non-creator developer viewing the project.
	if action == policy.ActionView && !actor.IsAdmin() && project.CreatorID != actor.ID {
		subject.HasAssignedTask, err = s.repo.HasAssignedTask(ctx, project.ID, actor.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := policy.Enforce(actor, action, subject); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) RecomputeAll(ctx context.Context) ([]progress.Result, error) {
	results, err := s.repo.RecomputeAll(ctx)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		if err := s.publisher.Publish(ctx, res); err != nil {
			log.Printf("failed to publish progress for project %s: %v", res.ProjectID, err)
		}
	}
	return results, nil
}
