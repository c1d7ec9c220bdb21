package api

import (
	"net/http"

	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service"
)

// TaskHandler serves the /api/tasks routes. Every route is scoped to the
// authenticated user; tasks of other users are reported as not found.
type TaskHandler struct {
	tasks service.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	params, err := parseListParams(r.URL.Query(), userID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	tasks, err := h.tasks.List(r.Context(), params)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, ok := h.ownedTask(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var input domain.TaskInput
	if err := shared.DecodeJSON(w, r, &input); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	task, err := h.tasks.Create(r.Context(), input, userID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// Replace handles PUT /api/tasks/{id}.
func (h *TaskHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, service.UpdateFull)
}

// Patch handles PATCH /api/tasks/{id}.
func (h *TaskHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, service.UpdatePartial)
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request, mode service.UpdateMode) {
	current, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	var input domain.TaskInput
	if err := shared.DecodeJSON(w, r, &input); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	task, err := h.tasks.Update(r.Context(), current.ID, input, mode)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if task == nil {
		respondTaskNotFound(w, r)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	current, ok := h.ownedTask(w, r)
	if !ok {
		return
	}

	deleted, err := h.tasks.Delete(r.Context(), current.ID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	if !deleted {
		respondTaskNotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedTask loads the {id} task for the authenticated user. Malformed ids,
// missing tasks and tasks of other users all produce the same 404.
func (h *TaskHandler) ownedTask(w http.ResponseWriter, r *http.Request) (*domain.Task, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return nil, false
	}

	id, ok := getPathUUID(r, "id")
	if !ok {
		respondTaskNotFound(w, r)
		return nil, false
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return nil, false
	}
	if task == nil || task.OwnerID != userID {
		respondTaskNotFound(w, r)
		return nil, false
	}
	return task, true
}

func respondTaskNotFound(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
}
