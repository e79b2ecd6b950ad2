package dto

import (
	"bytes"
	"encoding/json"

	"anoa.com/taskmanager/internal/entity"
	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	ProjectID   string  `json:"project_id" binding:"required,uuid"`
	Title       string  `json:"title" binding:"required,max=255"`
	Description *string `json:"description"`
	AssigneeID  *string `json:"assignee_id" binding:"omitempty,uuid"`
	Status      *string `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
}

// UpdateTaskRequest is a partial update: absent fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string          `json:"title" binding:"omitempty,max=255"`
	Description OptionalString   `json:"description"`
	AssigneeID  OptionalAssignee `json:"assignee_id"`
	Status      *string          `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
}

// OptionalString distinguishes an absent field from an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// OptionalAssignee is the assignee_id of a partial update. Null unassigns the task.
// Raw keeps the submitted text so an invalid id is reported as a field error.
type OptionalAssignee struct {
	Set bool
	Raw *string
}

func (o *OptionalAssignee) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Raw = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Raw = &s
	return nil
}

// TaskQuery is the raw listing query string.
type TaskQuery struct {
	ProjectID  string `form:"project_id"`
	Status     string `form:"status"`
	AssigneeID string `form:"assignee_id"`
	UserID     string `form:"user_id"`
}

type SearchQuery struct {
	Q      string `form:"q" binding:"required"`
	Status string `form:"status"`
	Limit  int64  `form:"limit" binding:"omitempty,min=1,max=100"`
}

// TaskFilter narrows a listing. Nil fields do not filter.
type TaskFilter struct {
	ProjectID  *uuid.UUID
	Status     *entity.TaskStatus
	AssigneeID *uuid.UUID
	IDs        []uuid.UUID
}

type TaskResponse struct {
	Message string       `json:"message"`
	Task    *entity.Task `json:"task"`
}

// TaskSummary counts tasks per status. Keys match the status wire values.
type TaskSummary struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Total      int64 `json:"total"`
}
