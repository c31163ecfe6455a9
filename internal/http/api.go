package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"wisefido-handover/internal/service"
)

// NewAPI registers every route over svc. metrics may be nil.
func NewAPI(svc *service.Services, metrics http.Handler, logger *zap.Logger) *Router {
	r := NewRouter(logger)
	logger = r.logger
	r.RegisterHealthRoutes(metrics)
	r.RegisterHandoverRoutes(NewHandoverHandler(svc.Handovers, svc.Query, logger))
	r.RegisterSectionRoutes(NewSectionHandler(svc.Content, logger))
	r.RegisterActionItemRoutes(NewActionItemHandler(svc.ActionItems, logger))
	r.RegisterContingencyPlanRoutes(NewContingencyPlanHandler(svc.ContingencyPlans, logger))
	r.RegisterAssignmentRoutes(NewAssignmentHandler(svc.Assignments, logger))
	return r
}
