// Package server exposes the task manager over HTTP.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskmind/internal/auth"
	"taskmind/internal/chat"
	"taskmind/internal/store"
	"taskmind/internal/types"
)

const deadlineLayout = "2006-01-02 15:04"

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	store    *store.Store
	composer *chat.Composer
	logger   *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(st *store.Store, composer *chat.Composer, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{store: st, composer: composer, logger: logger}
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// taskRequest is the create/update payload for /tasks.
type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Deadline    string `json:"deadline"` // YYYY-MM-DD HH:MM
	Duration    int    `json:"duration"`
	IsDueDate   bool   `json:"is_due_date"`
	UserID      *int64 `json:"user_id"`
}

func (r taskRequest) toTask() (types.Task, error) {
	deadline, err := time.ParseInLocation(deadlineLayout, r.Deadline, time.Local)
	if err != nil {
		return types.Task{}, err
	}

	priority := r.Priority
	if priority == "" {
		priority = types.PriorityNormal
	}
	duration := r.Duration
	if duration <= 0 {
		duration = 60
	}

	return types.Task{
		Title:       r.Title,
		Description: r.Description,
		Priority:    priority,
		Deadline:    deadline,
		Duration:    duration,
		IsDueDate:   r.IsDueDate,
		OwnerID:     r.UserID,
	}, nil
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleListTasks handles GET /tasks. An optional user_id query parameter
// scopes the list to one owner.
func (h *Handlers) HandleListTasks(c *gin.Context) {
	var ownerID *int64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id must be an integer"})
			return
		}
		ownerID = &id
	}

	tasks, err := h.store.ListTasks(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("list tasks failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list tasks"})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// HandleCreateTask handles POST /tasks.
func (h *Handlers) HandleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "title is required"})
		return
	}

	task, err := req.toTask()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "deadline must be formatted as YYYY-MM-DD HH:MM"})
		return
	}
	if !types.ValidPriority(task.Priority) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "priority must be Low, Normal or High"})
		return
	}

	created, err := h.store.CreateTask(c.Request.Context(), task)
	if err != nil {
		h.logger.Error("create task failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create task"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// HandleUpdateTask handles PUT /tasks/:id.
func (h *Handlers) HandleUpdateTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id must be an integer"})
		return
	}

	existing, err := h.store.GetTask(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "task not found"})
		return
	}
	if err != nil {
		h.logger.Error("get task failed", zap.Error(err), zap.Int64("id", id))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load task"})
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "title is required"})
		return
	}

	task, err := req.toTask()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "deadline must be formatted as YYYY-MM-DD HH:MM"})
		return
	}
	if !types.ValidPriority(task.Priority) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "priority must be Low, Normal or High"})
		return
	}
	task.ID = existing.ID
	if task.OwnerID == nil {
		task.OwnerID = existing.OwnerID
	}

	if err := h.store.SaveTask(c.Request.Context(), task); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "task not found"})
			return
		}
		h.logger.Error("update task failed", zap.Error(err), zap.Int64("id", id))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to update task"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// HandleDeleteTask handles DELETE /tasks/:id.
func (h *Handlers) HandleDeleteTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id must be an integer"})
		return
	}

	deleted, err := h.store.DeleteTask(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "task not found"})
		return
	}
	if err != nil {
		h.logger.Error("delete task failed", zap.Error(err), zap.Int64("id", id))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete task"})
		return
	}
	c.JSON(http.StatusOK, deleted)
}

// chatRequest is the POST /chat payload.
type chatRequest struct {
	Message string `json:"message"`
	UserID  *int64 `json:"user_id"`
}

// HandleChat handles POST /chat. The whole conversational pipeline runs
// synchronously within the request.
func (h *Handlers) HandleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
		return
	}

	reply, err := h.composer.Chat(c.Request.Context(), req.Message, req.UserID)
	if err != nil {
		h.logger.Error("chat turn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to process message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// HandleSuggestTask handles GET /suggest-task. An optional user_id query
// parameter scopes the schedule to one owner.
func (h *Handlers) HandleSuggestTask(c *gin.Context) {
	var ownerID *int64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id must be an integer"})
			return
		}
		ownerID = &id
	}

	suggestion, err := h.composer.SuggestTask(c.Request.Context(), ownerID)
	if err != nil {
		h.logger.Error("task suggestion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to suggest a task"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggested_task": suggestion})
}

// registerRequest is the POST /users/register payload.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister handles POST /users/register.
func (h *Handlers) HandleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	switch {
	case !auth.ValidUsername(req.Username):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username must be at least 3 alphanumeric characters"})
		return
	case req.Email == "":
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "email is required"})
		return
	case !auth.ValidPassword(req.Password):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "password must be at least 6 characters"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to register user"})
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), types.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		IsActive:       true,
	})
	if errors.Is(err, store.ErrDuplicate) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username or email already registered"})
		return
	}
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to register user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// loginRequest is the POST /users/login payload.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles POST /users/login. On success it returns the user
// record; there is no session token.
func (h *Handlers) HandleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username and password are required"})
		return
	}

	user, err := h.store.GetUserByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "incorrect username or password"})
		return
	}
	if err != nil {
		h.logger.Error("user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to log in"})
		return
	}

	if err := auth.CheckPassword(user.HashedPassword, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "incorrect username or password"})
		return
	}
	c.JSON(http.StatusOK, user)
}
