package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/aristath/planner/internal/config"
	"github.com/aristath/planner/internal/logging"
	"github.com/aristath/planner/internal/persistence"
	"github.com/aristath/planner/internal/project"
	"github.com/aristath/planner/internal/scheduler"
)

// Version is reported by /health.
const Version = "1.0.0"

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty request body")

// Handler wires HTTP requests to the project service.
type Handler struct {
	svc       *project.Service
	auth      Authenticator
	limits    config.LimitsConfig
	startedAt time.Time
	version   string

	storeState func() string // nil when the store has no breaker
}

type createProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type projectResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	TaskCount   *int      `json:"taskCount,omitempty"`
}

type projectDetailResponse struct {
	projectResponse
	Tasks []taskResponse `json:"tasks"`
}

type createTaskRequest struct {
	Title          string   `json:"title"`
	DueDate        *string  `json:"dueDate"`
	EstimatedHours *float64 `json:"estimatedHours"`
	Dependencies   []string `json:"dependencies"`
}

// updateTaskRequest fields are optional; an empty dueDate clears the date.
type updateTaskRequest struct {
	Title          *string   `json:"title"`
	DueDate        *string   `json:"dueDate"`
	EstimatedHours *float64  `json:"estimatedHours"`
	Dependencies   *[]string `json:"dependencies"`
	IsCompleted    *bool     `json:"isCompleted"`
}

type taskResponse struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"projectId"`
	Title          string     `json:"title"`
	DueDate        *time.Time `json:"dueDate"`
	EstimatedHours float64    `json:"estimatedHours"`
	Dependencies   []string   `json:"dependencies"`
	IsCompleted    bool       `json:"isCompleted"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// NewHandler creates a Handler.
func NewHandler(svc *project.Service, auth Authenticator, limits config.LimitsConfig) *Handler {
	return &Handler{
		svc:       svc,
		auth:      auth,
		limits:    limits,
		startedAt: time.Now().UTC(),
		version:   Version,
	}
}

// storeStateOpen is the breaker state in which store calls fail fast.
const storeStateOpen = "open"

// Register registers all HTTP routes.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("GET /api/projects", h.authenticated(h.listProjects))
	mux.HandleFunc("POST /api/projects", h.authenticated(h.createProject))
	mux.HandleFunc("GET /api/projects/{projectId}", h.authenticated(h.getProject))
	mux.HandleFunc("DELETE /api/projects/{projectId}", h.authenticated(h.deleteProject))
	mux.HandleFunc("POST /api/projects/{projectId}/tasks", h.authenticated(h.createTask))

	mux.HandleFunc("PUT /api/tasks/{taskId}", h.authenticated(h.updateTask))
	mux.HandleFunc("DELETE /api/tasks/{taskId}", h.authenticated(h.deleteTask))

	mux.HandleFunc("POST /api/v1/projects/{projectId}/schedule", h.authenticated(h.schedule))
	mux.HandleFunc("GET /api/v1/projects/{projectId}/schedule", h.authenticated(h.scheduleStored))
}

type userHandler func(w http.ResponseWriter, r *http.Request, user string)

// authenticated resolves the caller before invoking next.
func (h *Handler) authenticated(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.auth.Authenticate(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		next(w, r, user)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, logging.FromContext(r.Context()), err)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":     "ok",
		"version":    h.version,
		"uptime_sec": time.Since(h.startedAt).Seconds(),
	}
	if h.storeState != nil {
		state := h.storeState()
		payload["store"] = state
		if state == storeStateOpen {
			payload["status"] = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request, user string) {
	summaries, err := h.svc.ListProjects(r.Context(), user)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]projectResponse, 0, len(summaries))
	for _, summary := range summaries {
		count := summary.TaskCount
		resp := toProjectResponse(&summary.Project)
		resp.TaskCount = &count
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request, user string) {
	var req createProjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validateTitle("title", req.Title, h.limits); err != nil {
		h.fail(w, r, err)
		return
	}

	created, err := h.svc.CreateProject(r.Context(), user, req.Title, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(created))
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request, user string) {
	detail, err := h.svc.GetProject(r.Context(), user, r.PathValue("projectId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := projectDetailResponse{
		projectResponse: toProjectResponse(&detail.Project),
		Tasks:           make([]taskResponse, 0, len(detail.Tasks)),
	}
	for _, task := range detail.Tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(task))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request, user string) {
	if err := h.svc.DeleteProject(r.Context(), user, r.PathValue("projectId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request, user string) {
	var req createTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	spec, err := h.taskSpec(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	task, err := h.svc.CreateTask(r.Context(), user, r.PathValue("projectId"), spec)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

func (h *Handler) taskSpec(req createTaskRequest) (project.TaskSpec, error) {
	if err := validateTitle("title", req.Title, h.limits); err != nil {
		return project.TaskSpec{}, err
	}
	due, err := parseStoredDueDate("dueDate", req.DueDate)
	if err != nil {
		return project.TaskSpec{}, err
	}

	spec := project.TaskSpec{Title: req.Title, DueDate: due, Dependencies: req.Dependencies}
	if req.EstimatedHours != nil {
		if err := validateHours("estimatedHours", *req.EstimatedHours, h.limits); err != nil {
			return project.TaskSpec{}, err
		}
		spec.EstimatedHours = *req.EstimatedHours
	}
	return spec, nil
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request, user string) {
	var req updateTaskRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	update, err := h.taskUpdate(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	task, err := h.svc.UpdateTask(r.Context(), user, r.PathValue("taskId"), update)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *Handler) taskUpdate(req updateTaskRequest) (project.TaskUpdate, error) {
	update := project.TaskUpdate{
		Title:          req.Title,
		EstimatedHours: req.EstimatedHours,
		Dependencies:   req.Dependencies,
		IsCompleted:    req.IsCompleted,
	}

	if req.Title != nil {
		if err := validateTitle("title", *req.Title, h.limits); err != nil {
			return project.TaskUpdate{}, err
		}
	}
	if req.EstimatedHours != nil {
		if err := validateHours("estimatedHours", *req.EstimatedHours, h.limits); err != nil {
			return project.TaskUpdate{}, err
		}
	}
	if req.DueDate != nil {
		due, err := parseStoredDueDate("dueDate", req.DueDate)
		if err != nil {
			return project.TaskUpdate{}, err
		}
		update.DueDate = due
		update.ClearDueDate = due == nil
	}
	return update, nil
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request, user string) {
	if err := h.svc.DeleteTask(r.Context(), user, r.PathValue("taskId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request, user string) {
	// Foreign projects are 404 whatever the body holds
	if err := h.svc.Authorize(r.Context(), user, r.PathValue("projectId")); err != nil {
		h.fail(w, r, err)
		return
	}

	var req scheduler.ScheduleRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validateScheduleRequest(req, h.limits); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.svc.Schedule(r.Context(), user, r.PathValue("projectId"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) scheduleStored(w http.ResponseWriter, r *http.Request, user string) {
	resp, err := h.svc.ScheduleStored(r.Context(), user, r.PathValue("projectId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeBody reads a single JSON value of bounded size into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func toProjectResponse(p *persistence.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func toTaskResponse(t *persistence.Task) taskResponse {
	deps := t.Dependencies
	if deps == nil {
		deps = []string{}
	}
	return taskResponse{
		ID:             t.ID,
		ProjectID:      t.ProjectID,
		Title:          t.Title,
		DueDate:        t.DueDate,
		EstimatedHours: t.EstimatedHours,
		Dependencies:   deps,
		IsCompleted:    t.IsCompleted,
		CreatedAt:      t.CreatedAt,
	}
}
