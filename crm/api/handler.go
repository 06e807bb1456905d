package api

import (
	"net/http"

	"clientdesk/backend/crm/models"
	"clientdesk/backend/crm/service"
	"clientdesk/backend/pkg/errors"
	"clientdesk/backend/pkg/jwt"
	"clientdesk/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// CRMHandler exposes client and task management endpoints
type CRMHandler struct {
	clients *service.ClientService
	tasks   *service.TaskService
}

func NewCRMHandler(clients *service.ClientService, tasks *service.TaskService) *CRMHandler {
	return &CRMHandler{clients: clients, tasks: tasks}
}

// RegisterRoutesV1 mounts the CRM routes under /api/v1. Mutations are
// admin-only; a portal user may read its own client record and tasks.
func (h *CRMHandler) RegisterRoutesV1(v1 *gin.RouterGroup, jwtAuth gin.HandlerFunc) {
	clients := v1.Group("/clients")
	clients.Use(jwtAuth)
	{
		clients.POST("", middleware.RequireRole(jwt.RoleAdmin), h.CreateClient)
		clients.GET("", middleware.RequireRole(jwt.RoleAdmin), h.ListClients)
		clients.GET("/:client_id", middleware.RequireConversationAccess(), h.GetClient)
		clients.PUT("/:client_id", middleware.RequireRole(jwt.RoleAdmin), h.UpdateClient)
		clients.POST("/:client_id/archive", middleware.RequireRole(jwt.RoleAdmin), h.ArchiveClient)

		clients.POST("/:client_id/tasks", middleware.RequireRole(jwt.RoleAdmin), h.CreateTask)
		clients.GET("/:client_id/tasks", middleware.RequireConversationAccess(), h.ListTasks)
	}

	tasks := v1.Group("/tasks")
	tasks.Use(jwtAuth, middleware.RequireRole(jwt.RoleAdmin))
	{
		tasks.GET("/:id", h.GetTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
	}
}

func (h *CRMHandler) CreateClient(c *gin.Context) {
	var req models.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	client, err := h.clients.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *CRMHandler) ListClients(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *CRMHandler) GetClient(c *gin.Context) {
	client, err := h.clients.GetByID(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *CRMHandler) UpdateClient(c *gin.Context) {
	var req models.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	client, err := h.clients.Update(c.Request.Context(), c.Param("client_id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *CRMHandler) ArchiveClient(c *gin.Context) {
	client, err := h.clients.Archive(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *CRMHandler) CreateTask(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), c.Param("client_id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *CRMHandler) ListTasks(c *gin.Context) {
	tasks, err := h.tasks.ListByClient(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *CRMHandler) GetTask(c *gin.Context) {
	task, err := h.tasks.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *CRMHandler) UpdateTask(c *gin.Context) {
	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *CRMHandler) DeleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
