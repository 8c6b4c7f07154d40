// Package http provides the REST surface of the service: task endpoints,
// health endpoints, and the router with its middleware chain. The same
// surface serves end users and remote taskgate instances dispatching over
// the HTTP strategy, so the wire error format is the serialized capability
// taxonomy.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/taskgate/taskgate/adapters/metrics"
	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/domain/task"
	"github.com/taskgate/taskgate/ports"
)

// TasksHandler exposes the tasks capability over REST. It is written against
// the capability contract, not a concrete strategy: the same handler serves
// whether tasks are dispatched in-process, over HTTP, or over the bus.
type TasksHandler struct {
	tasks  ports.TaskCapability
	logger zerolog.Logger
}

// NewTasksHandler creates a new tasks REST handler.
func NewTasksHandler(tasks ports.TaskCapability, logger zerolog.Logger) *TasksHandler {
	return &TasksHandler{tasks: tasks, logger: logger}
}

// Routes mounts the task endpoints on a router.
func (h *TasksHandler) Routes(r chi.Router) {
	r.Post("/tasks", h.createTask)
	r.Get("/tasks", h.listTasks)
	r.Get("/tasks/{id}", h.getTask)
	r.Post("/tasks/{id}/complete", h.completeTask)
	r.Delete("/tasks/{id}", h.deleteTask)
}

func (h *TasksHandler) createTask(w http.ResponseWriter, r *http.Request) {
	var req ports.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, capability.Validation("body", "malformed request body"))
		return
	}

	resp, err := h.tasks.CreateTask(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if resp.Accepted {
		writeJSON(w, http.StatusAccepted, resp)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *TasksHandler) getTask(w http.ResponseWriter, r *http.Request) {
	resp, err := h.tasks.GetTask(r.Context(), ports.GetTaskRequest{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TasksHandler) listTasks(w http.ResponseWriter, r *http.Request) {
	req := ports.ListTasksRequest{
		Status: task.Status(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, capability.Validation("limit", "limit must be a non-negative integer"))
			return
		}
		req.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, capability.Validation("offset", "offset must be a non-negative integer"))
			return
		}
		req.Offset = n
	}

	resp, err := h.tasks.ListTasks(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TasksHandler) completeTask(w http.ResponseWriter, r *http.Request) {
	resp, err := h.tasks.CompleteTask(r.Context(), ports.CompleteTaskRequest{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, err)
		return
	}
	if resp.Accepted {
		writeJSON(w, http.StatusAccepted, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *TasksHandler) deleteTask(w http.ResponseWriter, r *http.Request) {
	resp, err := h.tasks.DeleteTask(r.Context(), ports.DeleteTaskRequest{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, err)
		return
	}
	if resp.Accepted {
		writeJSON(w, http.StatusAccepted, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// errorBody is the wire form of a capability error. Remote instances decode
// this exact shape when classifying failures, so it must stay stable.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(kind capability.Kind) int {
	switch kind {
	case capability.KindValidation:
		return http.StatusBadRequest
	case capability.KindNotFound:
		return http.StatusNotFound
	case capability.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var ce *capability.Error
	if !errors.As(err, &ce) {
		ce = capability.Classify(err)
	}
	writeJSON(w, statusFor(ce.Kind), errorBody{Error: errorDetail{
		Kind:    string(ce.Kind),
		Field:   ce.Field,
		ID:      ce.ID,
		Message: ce.Message,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics     *metrics.Collector
	MetricsPath string // default /metrics when Metrics is set
	RateLimit   *rate.Limiter
}

// NewRouter creates the main HTTP router.
func NewRouter(tasksHandler *TasksHandler, healthHandler *HealthHandler, logger zerolog.Logger) chi.Router {
	return NewRouterWithConfig(tasksHandler, healthHandler, logger, RouterConfig{})
}

// NewRouterWithConfig creates the main HTTP router with optional config.
func NewRouterWithConfig(tasksHandler *TasksHandler, healthHandler *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}
	if cfg.RateLimit != nil {
		r.Use(NewRateLimitMiddleware(cfg.RateLimit, cfg.Metrics))
	}

	// Health endpoints (never rate limited or counted)
	r.Get("/health", healthHandler.Liveness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	tasksHandler.Routes(r)

	return r
}
