package handlers

import (
	"errors"
	"net/http"

	"tasklist/internal/auth"
	"tasklist/internal/dto"
	"tasklist/internal/service"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := auth.UserIDFromContext(c)

	t, err := h.svc.Create(c.Request.Context(), userID, req.Name, req.DueDate.Ptr())
	if err != nil {
		if errors.Is(err, service.ErrEmptyName) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create todo"})
		return
	}

	c.JSON(http.StatusCreated, dto.ItemResponse{Item: dto.ToTodoResponse(t)})
}

// List godoc
// @Summary      List the caller's todos, optionally filtered by name
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Substring match on name (case-insensitive)"
// @Success      200     {object}  dto.ListTodosResponse
// @Failure      401     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	list, err := h.svc.List(c.Request.Context(), userID, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list todos"})
		return
	}
	c.JSON(http.StatusOK, dto.ListTodosResponse{Items: dto.ToTodoResponses(list)})
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.ItemResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	t, err := h.svc.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get todo"})
		return
	}
	c.JSON(http.StatusOK, dto.ItemResponse{Item: dto.ToTodoResponse(t)})
}

// Update godoc
// @Summary      Replace a todo's name, due date and done flag
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Todo ID"
// @Param        body  body      dto.UpdateTodoRequest  true  "Full mutable state"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /todos/{id} [patch]
func (h *TodoHandler) Update(c *gin.Context) {
	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	due := req.DueDate.Ptr()
	if due == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dueDate is required"})
		return
	}
	userID := auth.UserIDFromContext(c)

	t, err := h.svc.Update(c.Request.Context(), userID, c.Param("id"), req.Name, *due, *req.Done)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		case errors.Is(err, service.ErrEmptyName):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update todo"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ItemResponse{Item: dto.ToTodoResponse(t)})
}

// Delete godoc
// @Summary      Delete a todo and its attachment
// @Tags         todos
// @Security     BearerAuth
// @Param        id   path  string  true  "Todo ID"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete todo"})
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadURL godoc
// @Summary      Get a short-lived URL to upload an attachment to
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.UploadURLResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id}/attachment [post]
func (h *TodoHandler) UploadURL(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	url, err := h.svc.AttachmentUploadURL(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create upload url"})
		return
	}
	c.JSON(http.StatusOK, dto.UploadURLResponse{UploadURL: url})
}
