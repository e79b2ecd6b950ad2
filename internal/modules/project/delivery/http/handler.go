package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"anoa.com/taskmanager/internal/modules/project/dto"
	"anoa.com/taskmanager/internal/modules/project/service"
	"anoa.com/taskmanager/internal/policy"
	"anoa.com/taskmanager/internal/progress"
	"anoa.com/taskmanager/pkg/apperror"
	"anoa.com/taskmanager/pkg/response"
	"anoa.com/taskmanager/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type ProjectHandler struct {
	service   service.ProjectService
	publisher *progress.Publisher
	upgrader  websocket.Upgrader
}

func NewProjectHandler(service service.ProjectService, publisher *progress.Publisher, checkOrigin func(r *http.Request) bool) *ProjectHandler {
	return &ProjectHandler{
		service:   service,
		publisher: publisher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *ProjectHandler) GetProjects(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	projects, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	project, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.FormatValidationErrors(err))
		return
	}

	project, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ProjectResponse{Message: "project created successfully", Project: project})
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var req dto.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, validator.FormatValidationErrors(err))
		return
	}

	project, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProjectResponse{Message: "project updated successfully", Project: project})
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
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

func (h *ProjectHandler) RecomputeProgress(c *gin.Context) {
	results, err := h.service.RecomputeAll(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "project progress recomputed", "data": results})
}

// ProgressFeed streams progress updates of one project over a websocket.
// The first frame is the current value.
func (h *ProjectHandler) ProgressFeed(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	project, err := h.service.Authorize(ctx, actor, id, policy.ActionView)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if !h.publisher.Enabled() {
		response.ResponseError(c, fmt.Errorf("progress feed requires redis: %w", apperror.ErrUnavailable))
		return
	}

	pubsub, err := h.publisher.Subscribe(ctx, project.ID)
	if err != nil {
		response.ResponseError(c, fmt.Errorf("%v: %w", err, apperror.ErrUnavailable))
		return
	}
	defer pubsub.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	snapshot, err := json.Marshal(progress.Result{ProjectID: project.ID, ProgressPercentage: project.ProgressPercentage})
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, snapshot); err != nil {
		return
	}

	ch := pubsub.Channel()
	clientClosed := make(chan struct{})

	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("Failed to write message to websocket: %v", err)
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}

func actorAndID(c *gin.Context) (actor policy.Actor, id uuid.UUID, ok bool) {
	actor, err := response.GetActor(c)
	if err != nil {
		response.ResponseError(c, err)
		return actor, id, false
	}

	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		response.ResponseError(c, fmt.Errorf("project: %w", apperror.ErrNotFound))
		return actor, id, false
	}

	return actor, id, true
}
