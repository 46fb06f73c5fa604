package fleet

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taskcluster/agent-retention/retention"
	"github.com/taskcluster/agent-retention/runtime"
)

type taskRequest struct {
	TaskID     string `json:"taskId"`
	DurationMs int64  `json:"durationMs"`
}

type agentsResponse struct {
	Agents  []Status   `json:"agents"`
	NextRun *time.Time `json:"nextRun,omitempty"`
}

type api struct {
	fleet     *Fleet
	scheduler *Scheduler
	monitor   runtime.Monitor
}

// NewHandler returns an http.Handler exposing fleet over HTTP, metrics are
// served from gatherer at /metrics. The scheduler may be nil.
func NewHandler(fleet *Fleet, scheduler *Scheduler, gatherer prometheus.Gatherer, monitor runtime.Monitor) http.Handler {
	a := &api{
		fleet:     fleet,
		scheduler: scheduler,
		monitor:   monitor.WithPrefix("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.logging)
	r.Use(middleware.Recoverer)

	r.Get("/agents", a.listAgents)
	r.Route("/agents/{name}", func(r chi.Router) {
		r.Get("/", a.getAgent)
		r.Post("/check", a.checkAgent)
		r.Post("/connect", a.setDisconnected(false))
		r.Post("/disconnect", a.setDisconnected(true))
		r.Post("/tasks/accepted", a.taskAccepted)
		r.Post("/tasks/completed", a.taskCompleted)
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (a *api) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.monitor.WithTags(map[string]string{
			"requestId": middleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
		}).Debugf("status %d in %s", ww.Status(), time.Since(start))
	})
}

func (a *api) listAgents(w http.ResponseWriter, r *http.Request) {
	res := agentsResponse{Agents: []Status{}}
	for _, agent := range a.fleet.Agents() {
		res.Agents = append(res.Agents, agent.Status())
	}
	if a.scheduler != nil {
		res.NextRun = a.scheduler.NextRun()
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) getAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := a.fleet.Agent(chi.URLParam(r, "name"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agent.Status())
}

func (a *api) checkAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := a.fleet.Check(r.Context(), name); err != nil {
		a.writeError(w, err)
		return
	}
	a.getAgent(w, r)
}

func (a *api) setDisconnected(disconnected bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agent, err := a.fleet.Agent(chi.URLParam(r, "name"))
		if err != nil {
			a.writeError(w, err)
			return
		}
		agent.SetDisconnected(disconnected)
		writeJSON(w, http.StatusOK, agent.Status())
	}
}

func (a *api) taskAccepted(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	req, ok := readTaskRequest(w, r)
	if !ok {
		return
	}
	if err := a.fleet.TaskAccepted(name, retention.Task{ID: req.TaskID}); err != nil {
		a.writeError(w, err)
		return
	}
	a.getAgent(w, r)
}

func (a *api) taskCompleted(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	req, ok := readTaskRequest(w, r)
	if !ok {
		return
	}
	d := time.Duration(req.DurationMs) * time.Millisecond
	if err := a.fleet.TaskCompleted(name, retention.Task{ID: req.TaskID}, d); err != nil {
		a.writeError(w, err)
		return
	}
	a.getAgent(w, r)
}

func readTaskRequest(w http.ResponseWriter, r *http.Request) (taskRequest, bool) {
	var req taskRequest
	if r.ContentLength == 0 {
		return req, true
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if req.DurationMs < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "durationMs must be non-negative"})
		return req, false
	}
	return req, true
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch errors.Cause(err) {
	case ErrAgentNotFound:
		status = http.StatusNotFound
	case ErrNotAcceptingTasks, ErrNoActiveTasks:
		status = http.StatusConflict
	default:
		a.monitor.ReportWarning(err, "request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
