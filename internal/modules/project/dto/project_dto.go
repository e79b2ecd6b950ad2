package dto

import "anoa.com/taskmanager/internal/entity"

// ProjectRequest is the body of both create and update. Progress is derived and never accepted.
type ProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
}

type ProjectResponse struct {
	Message string          `json:"message"`
	Project *entity.Project `json:"project"`
}
