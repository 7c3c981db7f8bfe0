package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aristath/planner/internal/api"
	"github.com/aristath/planner/internal/config"
	"github.com/aristath/planner/internal/events"
	"github.com/aristath/planner/internal/persistence"
	"github.com/aristath/planner/internal/project"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	store, err := persistence.NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	bus := events.NewBus()
	t.Cleanup(func() {
		bus.Close()
		store.Close()
	})

	cfg := config.DefaultConfig()
	cfg.Limits.MaxTasks = 10
	cfg.Limits.MaxTitleLength = 20
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewServer(project.NewService(store, bus), *cfg, logger).Handler()
}

func do(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func assertStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", resp.Code, want, resp.Body.String())
	}
}

func decodeJSON(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to decode response %s: %v", data, err)
	}
}

func createProject(t *testing.T, h http.Handler, user string) string {
	t.Helper()
	resp := do(t, h, http.MethodPost, "/api/projects", user, `{"title":"Launch","description":"v1"}`)
	assertStatus(t, resp, http.StatusCreated)
	var payload struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp.Body.Bytes(), &payload)
	return payload.ID
}

func errorMessage(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	decodeJSON(t, resp.Body.Bytes(), &payload)
	return payload.Error
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	resp := do(t, h, http.MethodGet, "/health", "", "")
	assertStatus(t, resp, http.StatusOK)

	var payload map[string]any
	decodeJSON(t, resp.Body.Bytes(), &payload)
	if payload["status"] != "ok" || payload["version"] != api.Version {
		t.Errorf("unexpected health payload: %+v", payload)
	}
}

func TestHealthReportsStoreState(t *testing.T) {
	store, err := persistence.NewMemoryStore(context.Background())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := api.NewServer(project.NewService(store, events.NewBus()), *config.DefaultConfig(), logger)
	state := "closed"
	server.ReportStoreState(func() string { return state })

	tests := []struct {
		state      string
		wantStatus string
	}{
		{state: "closed", wantStatus: "ok"},
		{state: "half-open", wantStatus: "ok"},
		{state: "open", wantStatus: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			state = tt.state
			resp := do(t, server.Handler(), http.MethodGet, "/health", "", "")
			assertStatus(t, resp, http.StatusOK)

			var payload map[string]any
			decodeJSON(t, resp.Body.Bytes(), &payload)
			if payload["status"] != tt.wantStatus || payload["store"] != tt.state {
				t.Errorf("unexpected health payload: %+v", payload)
			}
		})
	}
}

func TestRequiresAuthentication(t *testing.T) {
	h := newTestHandler(t)

	resp := do(t, h, http.MethodGet, "/api/projects", "", "")
	assertStatus(t, resp, http.StatusUnauthorized)

	resp = do(t, h, http.MethodPost, "/api/v1/projects/p/schedule", "  ", `{"tasks":[]}`)
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestScheduleEndpoint(t *testing.T) {
	h := newTestHandler(t)
	projectID := createProject(t, h, "alice")
	path := "/api/v1/projects/" + projectID + "/schedule"

	tests := []struct {
		name      string
		body      string
		status    int
		wantOrder []string
		wantError string
	}{
		{
			name: "diamond",
			body: `{"tasks":[
				{"title":"Design API","estimatedHours":5,"dueDate":"2025-10-25","dependencies":[]},
				{"title":"Implement Backend","estimatedHours":12,"dueDate":"2025-10-28","dependencies":["Design API"]},
				{"title":"Build Frontend","estimatedHours":10,"dueDate":"2025-10-30","dependencies":["Design API"]},
				{"title":"End-to-End Test","estimatedHours":8,"dueDate":"2025-10-31","dependencies":["Implement Backend","Build Frontend"]}
			]}`,
			status:    http.StatusOK,
			wantOrder: []string{"Design API", "Implement Backend", "Build Frontend", "End-to-End Test"},
		},
		{
			name:      "empty list",
			body:      `{"tasks":[]}`,
			status:    http.StatusOK,
			wantOrder: []string{},
		},
		{
			name: "missing dependency",
			body: `{"tasks":[
				{"title":"Task A","estimatedHours":5,"dependencies":["Non-existent Task"]}
			]}`,
			status:    http.StatusBadRequest,
			wantError: "Non-existent Task",
		},
		{
			name: "cycle",
			body: `{"tasks":[
				{"title":"Task A","estimatedHours":5,"dependencies":["Task B"]},
				{"title":"Task B","estimatedHours":5,"dependencies":["Task A"]}
			]}`,
			status:    http.StatusBadRequest,
			wantError: "Circular dependency detected",
		},
		{
			name:      "hours out of range",
			body:      `{"tasks":[{"title":"A","estimatedHours":0,"dependencies":[]}]}`,
			status:    http.StatusBadRequest,
			wantError: "tasks[0].estimatedHours",
		},
		{
			name:      "title too long",
			body:      `{"tasks":[{"title":"` + strings.Repeat("x", 21) + `","estimatedHours":1}]}`,
			status:    http.StatusBadRequest,
			wantError: "tasks[0].title",
		},
		{
			name:      "malformed body",
			body:      `{"tasks":[`,
			status:    http.StatusBadRequest,
			wantError: "malformed request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, h, http.MethodPost, path, "alice", tt.body)
			assertStatus(t, resp, tt.status)

			if tt.wantError != "" {
				if msg := errorMessage(t, resp); !strings.Contains(msg, tt.wantError) {
					t.Errorf("error %q does not contain %q", msg, tt.wantError)
				}
				return
			}

			var payload struct {
				RecommendedOrder []string `json:"recommendedOrder"`
			}
			decodeJSON(t, resp.Body.Bytes(), &payload)
			if diff := cmp.Diff(tt.wantOrder, payload.RecommendedOrder); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScheduleTooManyTasks(t *testing.T) {
	h := newTestHandler(t)
	projectID := createProject(t, h, "alice")

	var tasks []string
	for i := 0; i < 11; i++ {
		tasks = append(tasks, `{"title":"T`+string(rune('a'+i))+`","estimatedHours":1}`)
	}
	body := `{"tasks":[` + strings.Join(tasks, ",") + `]}`

	resp := do(t, h, http.MethodPost, "/api/v1/projects/"+projectID+"/schedule", "alice", body)
	assertStatus(t, resp, http.StatusBadRequest)
}

func TestForeignProjectIsNotFound(t *testing.T) {
	h := newTestHandler(t)
	projectID := createProject(t, h, "alice")

	resp := do(t, h, http.MethodGet, "/api/projects/"+projectID, "bob", "")
	assertStatus(t, resp, http.StatusNotFound)

	resp = do(t, h, http.MethodPost, "/api/v1/projects/"+projectID+"/schedule", "bob", `{"tasks":[]}`)
	assertStatus(t, resp, http.StatusNotFound)

	// Ownership is checked before the body is looked at
	for _, body := range []string{`{"tasks":[{"title":"","estimatedHours":-1}]}`, `{"tasks":`, ""} {
		resp = do(t, h, http.MethodPost, "/api/v1/projects/"+projectID+"/schedule", "bob", body)
		assertStatus(t, resp, http.StatusNotFound)
	}

	resp = do(t, h, http.MethodDelete, "/api/projects/"+projectID, "bob", "")
	assertStatus(t, resp, http.StatusNotFound)
}

func TestTaskLifecycle(t *testing.T) {
	h := newTestHandler(t)
	projectID := createProject(t, h, "alice")
	tasksPath := "/api/projects/" + projectID + "/tasks"

	resp := do(t, h, http.MethodPost, tasksPath, "alice", `{"title":"Setup","dueDate":"2025-10-20","estimatedHours":2}`)
	assertStatus(t, resp, http.StatusCreated)
	var setup struct {
		ID             string   `json:"id"`
		EstimatedHours float64  `json:"estimatedHours"`
		Dependencies   []string `json:"dependencies"`
	}
	decodeJSON(t, resp.Body.Bytes(), &setup)
	if setup.EstimatedHours != 2 || setup.Dependencies == nil {
		t.Errorf("unexpected task: %+v", setup)
	}

	resp = do(t, h, http.MethodPost, tasksPath, "alice", `{"title":"Build","dependencies":["Setup"]}`)
	assertStatus(t, resp, http.StatusCreated)

	// Duplicate titles conflict, unknown dependencies are rejected
	resp = do(t, h, http.MethodPost, tasksPath, "alice", `{"title":"Build"}`)
	assertStatus(t, resp, http.StatusConflict)
	resp = do(t, h, http.MethodPost, tasksPath, "alice", `{"title":"Ship","dependencies":["Nope"]}`)
	assertStatus(t, resp, http.StatusBadRequest)
	resp = do(t, h, http.MethodPost, tasksPath, "alice", `{"title":"Ship","dueDate":"soon"}`)
	assertStatus(t, resp, http.StatusBadRequest)

	resp = do(t, h, http.MethodGet, "/api/v1/projects/"+projectID+"/schedule", "alice", "")
	assertStatus(t, resp, http.StatusOK)
	var order struct {
		RecommendedOrder []string `json:"recommendedOrder"`
	}
	decodeJSON(t, resp.Body.Bytes(), &order)
	if diff := cmp.Diff([]string{"Setup", "Build"}, order.RecommendedOrder); diff != "" {
		t.Errorf("stored order mismatch (-want +got):\n%s", diff)
	}

	resp = do(t, h, http.MethodPut, "/api/tasks/"+setup.ID, "alice", `{"isCompleted":true,"dueDate":""}`)
	assertStatus(t, resp, http.StatusOK)
	var updated struct {
		IsCompleted bool    `json:"isCompleted"`
		DueDate     *string `json:"dueDate"`
	}
	decodeJSON(t, resp.Body.Bytes(), &updated)
	if !updated.IsCompleted || updated.DueDate != nil {
		t.Errorf("unexpected update result: %+v", updated)
	}

	resp = do(t, h, http.MethodDelete, "/api/tasks/"+setup.ID, "alice", "")
	assertStatus(t, resp, http.StatusBadRequest)

	resp = do(t, h, http.MethodGet, "/api/projects", "alice", "")
	assertStatus(t, resp, http.StatusOK)
	var projects []struct {
		ID        string `json:"id"`
		TaskCount int    `json:"taskCount"`
	}
	decodeJSON(t, resp.Body.Bytes(), &projects)
	if len(projects) != 1 || projects[0].TaskCount != 2 {
		t.Errorf("unexpected project list: %+v", projects)
	}

	resp = do(t, h, http.MethodDelete, "/api/projects/"+projectID, "alice", "")
	assertStatus(t, resp, http.StatusNoContent)
	resp = do(t, h, http.MethodGet, "/api/projects/"+projectID, "alice", "")
	assertStatus(t, resp, http.StatusNotFound)
}

func TestCreateProjectValidation(t *testing.T) {
	h := newTestHandler(t)

	resp := do(t, h, http.MethodPost, "/api/projects", "alice", `{"title":"   "}`)
	assertStatus(t, resp, http.StatusBadRequest)

	resp = do(t, h, http.MethodPost, "/api/projects", "alice", "")
	assertStatus(t, resp, http.StatusBadRequest)
}
