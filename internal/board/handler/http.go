// Package handler serves the board endpoints under /api.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"task-board/backend/internal/board/domain"
	"task-board/backend/internal/board/service"
	"task-board/backend/internal/logging"
	"task-board/backend/internal/server/httpx"
	"task-board/backend/internal/server/middleware"
)

// BoardService is the subset of *service.BoardService used by the handlers.
type BoardService interface {
	GetBoard(ctx context.Context) (*service.Board, error)
	CreateTask(ctx context.Context, accountID string, t *domain.Task) (*domain.Task, error)
	UpdateTask(ctx context.Context, accountID, id string, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, accountID, id string) error
}

// BoardHandler serves GET /api/data and task writes. Every route sits behind the auth gate.
type BoardHandler struct {
	svc    BoardService
	log    logging.Logger
	detail bool
}

// NewBoardHandler returns a BoardHandler. detail adds internal error text to 500 responses.
func NewBoardHandler(svc BoardService, log logging.Logger, detail bool) *BoardHandler {
	if log == nil {
		log = logging.Nop()
	}
	return &BoardHandler{svc: svc, log: log, detail: detail}
}

type columnJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Ord   int    `json:"ord"`
}

type taskJSON struct {
	ID          string    `json:"id"`
	ColumnID    string    `json:"columnId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     string    `json:"dueDate"`
	Assignees   string    `json:"assignees"`
	Priority    string    `json:"priority"`
	Tags        []string  `json:"tags"`
	Completed   bool      `json:"completed"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type boardJSON struct {
	Columns []columnJSON `json:"columns"`
	Tasks   []taskJSON   `json:"tasks"`
}

type createTaskRequest struct {
	ID          string   `json:"id"`
	ColumnID    string   `json:"columnId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	Assignees   string   `json:"assignees"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	// Completed is accepted from clients that echo the whole task; new tasks always start open.
	Completed *bool `json:"completed"`
}

type updateTaskRequest struct {
	ColumnID    *string   `json:"columnId"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	DueDate     *string   `json:"dueDate"`
	Assignees   *string   `json:"assignees"`
	Priority    *string   `json:"priority"`
	Tags        *[]string `json:"tags"`
	Completed   *bool     `json:"completed"`
}

type deleteTaskResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// GetData handles GET /api/data.
func (h *BoardHandler) GetData(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBoard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := boardJSON{Columns: make([]columnJSON, 0, len(b.Columns)), Tasks: make([]taskJSON, 0, len(b.Tasks))}
	for _, c := range b.Columns {
		out.Columns = append(out.Columns, columnJSON{ID: c.ID, Title: c.Title, Ord: c.Position})
	}
	for _, t := range b.Tasks {
		out.Tasks = append(out.Tasks, toJSON(t))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// CreateTask handles POST /api/tasks.
func (h *BoardHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())
	var req createTaskRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Malformed request body")
		return
	}
	t, err := h.svc.CreateTask(r.Context(), accountID, &domain.Task{
		ID:          req.ID,
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Assignees:   req.Assignees,
		Priority:    req.Priority,
		Tags:        req.Tags,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toJSON(t))
}

// UpdateTask handles PUT /api/tasks/{id}. Only fields present in the body change.
func (h *BoardHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())
	var req updateTaskRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Malformed request body")
		return
	}
	t, err := h.svc.UpdateTask(r.Context(), accountID, r.PathValue("id"), domain.TaskPatch{
		ColumnID:    req.ColumnID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Assignees:   req.Assignees,
		Priority:    req.Priority,
		Tags:        req.Tags,
		Completed:   req.Completed,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toJSON(t))
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *BoardHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.GetAccountID(r.Context())
	id := r.PathValue("id")
	if err := h.svc.DeleteTask(r.Context(), accountID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, deleteTaskResponse{Message: "Task deleted", ID: id})
}

func (h *BoardHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidTask):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeMissingFields, "id, columnId and title are required")
	case errors.Is(err, domain.ErrEmptyPatch):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Nothing to update")
	case errors.Is(err, domain.ErrColumnNotFound):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Unknown column")
	case errors.Is(err, domain.ErrTaskExists):
		httpx.WriteError(w, http.StatusConflict, httpx.CodeConflict, "A task with this id already exists")
	case errors.Is(err, domain.ErrTaskNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "Task not found")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "Only the creator may modify this task")
	default:
		accountID, _ := middleware.GetAccountID(r.Context())
		h.log.Error(r.Context(), "board handler failed",
			"method", r.Method, "path", r.URL.Path, "account_id", accountID,
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
		httpx.WriteInternal(w, err, h.detail)
	}
}

func toJSON(t *domain.Task) taskJSON {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskJSON{
		ID:          t.ID,
		ColumnID:    t.ColumnID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Assignees:   t.Assignees,
		Priority:    t.Priority,
		Tags:        tags,
		Completed:   t.Completed,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
