package handler

import (
	"fmt"
	"net/http"

	"anoa.com/taskmanager/internal/modules/task/dto"
	"anoa.com/taskmanager/internal/modules/task/service"
	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/pkg/apperror"
	"anoa.com/taskmanager/pkg/response"
	"anoa.com/taskmanager/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	service service.TaskService
}

func NewTaskHandler(service service.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query dto.TaskQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.FormatValidationErrors(err))
		return
	}

	tasks, err := h.service.List(c.Request.Context(), actor, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	task, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.FormatValidationErrors(err))
		return
	}

	task, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TaskResponse{Message: "task created successfully", Task: task})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.FormatValidationErrors(err))
		return
	}

	task, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{Message: "task updated successfully", Task: task})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) GetSummary(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), actor, c.Query("user_id"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *TaskHandler) SearchTasks(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, validator.FormatValidationErrors(err))
		return
	}

	tasks, err := h.service.Search(c.Request.Context(), actor, query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tasks, "query": query.Q})
}

func actorAndID(c *gin.Context) (actor policy.Actor, id uuid.UUID, ok bool) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.ResponseError(c, err)
		return actor, id, false
	}

	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, fmt.Errorf("task: %w", apperror.ErrNotFound))
		return actor, id, false
	}

	return actor, id, true
}
