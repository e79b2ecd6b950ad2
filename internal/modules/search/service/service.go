package service

import (
	"encoding/json"
	"fmt"
	"log"

	"anoa.com/taskmanager/internal/entity"
	"anoa.com/taskmanager/pkg/apperror"
	"anoa.com/taskmanager/pkg/sanitizer"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
)

const tasksIndex = "tasks"

// TaskIndex keeps a full-text copy of tasks. Search returns ids only; callers re-load and
// re-scope the rows from the database.
type TaskIndex interface {
	Enabled() bool
	IndexTask(task *entity.Task) error
	DeleteTask(id uuid.UUID) error
	SearchTaskIDs(query string, status *entity.TaskStatus, limit int64) ([]uuid.UUID, error)
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
}

// NewMeiliSearchService returns a disabled index when client is nil.
func NewMeiliSearchService(client meilisearch.ServiceManager) TaskIndex {
	s := &meiliSearchService{client: client}
	if client != nil {
		s.initIndexes()
	}
	return s
}

func (s *meiliSearchService) Enabled() bool {
	return s.client != nil
}

func (s *meiliSearchService) initIndexes() {
	filterableAttrs := []string{"status", "project_id", "assignee_id"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	_, err := s.client.Index(tasksIndex).UpdateFilterableAttributes(&filterableInterface)
	if err != nil {
		log.Printf("Failed to update tasks filterable attributes: %v", err)
	}

	sortableAttrs := []string{"created_at"}
	_, err = s.client.Index(tasksIndex).UpdateSortableAttributes(&sortableAttrs)
	if err != nil {
		log.Printf("Failed to update tasks sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliTaskDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	AssigneeID  string `json:"assignee_id"`
	CreatedAt   int64  `json:"created_at"`
}

func newTaskDoc(task *entity.Task) meiliTaskDoc {
	doc := meiliTaskDoc{
		ID:        task.ID.String(),
		Title:     sanitizer.PlainText(task.Title),
		Status:    task.Status.String(),
		ProjectID: task.ProjectID.String(),
		CreatedAt: task.CreatedAt.Unix(),
	}
	if task.Description != nil {
		doc.Description = sanitizer.PlainText(*task.Description)
	}
	if task.Project != nil {
		doc.ProjectName = task.Project.Name
	}
	if task.AssigneeID != nil {
		doc.AssigneeID = task.AssigneeID.String()
	}
	return doc
}

func (s *meiliSearchService) IndexTask(task *entity.Task) error {
	if !s.Enabled() {
		return nil
	}

	info, err := s.client.Index(tasksIndex).AddDocuments([]meiliTaskDoc{newTaskDoc(task)}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed task %s, task id: %d", task.ID, info.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteTask(id uuid.UUID) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.client.Index(tasksIndex).DeleteDocument(id.String())
	return err
}

type searchHits struct {
	Hits []struct {
		ID string `json:"id"`
	} `json:"hits"`
}

func (s *meiliSearchService) SearchTaskIDs(query string, status *entity.TaskStatus, limit int64) ([]uuid.UUID, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("task search is not configured: %w", apperror.ErrUnavailable)
	}

	req := &meilisearch.SearchRequest{
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	}
	if status != nil {
		req.Filter = fmt.Sprintf("status = %q", status.String())
	}

	raw, err := s.client.Index(tasksIndex).SearchRaw(query, req)
	if err != nil {
		return nil, fmt.Errorf("task search failed: %v: %w", err, apperror.ErrUnavailable)
	}

	return parseHitIDs(*raw)
}

func parseHitIDs(raw []byte) ([]uuid.UUID, error) {
	var hits searchHits
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(hits.Hits))
	for _, h := range hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
