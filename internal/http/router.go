package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"wisefido-handover/internal/domain"
)

const apiPrefix = "/api/v1"

// Router uses the standard http.ServeMux with method-qualified patterns.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{mux: http.NewServeMux(), logger: logger}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler registers an http.Handler (metrics and the like).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r.mux.ServeHTTP(rec, req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)),
	}
	if rec.status >= http.StatusInternalServerError {
		r.logger.Warn("HTTP request", fields...)
		return
	}
	r.logger.Debug("HTTP request", fields...)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RegisterHealthRoutes wires /healthz and, when metrics is non-nil, /metrics.
func (r *Router) RegisterHealthRoutes(metrics http.Handler) {
	r.Handle("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
	if metrics != nil {
		r.HandleHandler("GET /metrics", metrics)
	}
}

func (r *Router) RegisterHandoverRoutes(h *HandoverHandler) {
	r.Handle("POST "+apiPrefix+"/handovers", h.CreateHandover)
	r.Handle("GET "+apiPrefix+"/handovers/{id}", h.GetHandover)
	for _, tr := range domain.Transitions() {
		r.Handle("POST "+apiPrefix+"/handovers/{id}/"+string(tr.Name), h.transitionHandler(tr.Name))
	}
}

func (r *Router) RegisterSectionRoutes(h *SectionHandler) {
	r.Handle("GET "+apiPrefix+"/handovers/{id}/sections/{kind}", h.GetSection)
	r.Handle("PUT "+apiPrefix+"/handovers/{id}/sections/{kind}", h.UpdateSection)
}

func (r *Router) RegisterActionItemRoutes(h *ActionItemHandler) {
	r.Handle("GET "+apiPrefix+"/handovers/{id}/action-items", h.ListActionItems)
	r.Handle("POST "+apiPrefix+"/handovers/{id}/action-items", h.CreateActionItem)
	r.Handle("PUT "+apiPrefix+"/handovers/{id}/action-items/{itemId}", h.UpdateActionItem)
	r.Handle("DELETE "+apiPrefix+"/handovers/{id}/action-items/{itemId}", h.DeleteActionItem)
}

func (r *Router) RegisterContingencyPlanRoutes(h *ContingencyPlanHandler) {
	r.Handle("GET "+apiPrefix+"/handovers/{id}/contingency-plans", h.ListContingencyPlans)
	r.Handle("POST "+apiPrefix+"/handovers/{id}/contingency-plans", h.CreateContingencyPlan)
	r.Handle("PUT "+apiPrefix+"/handovers/{id}/contingency-plans/{planId}", h.UpdateContingencyPlan)
	r.Handle("DELETE "+apiPrefix+"/handovers/{id}/contingency-plans/{planId}", h.DeleteContingencyPlan)
}

func (r *Router) RegisterAssignmentRoutes(h *AssignmentHandler) {
	r.Handle("POST "+apiPrefix+"/assignments", h.EnsureAssignment)
}
