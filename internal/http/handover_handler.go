package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"wisefido-handover/internal/domain"
	"wisefido-handover/internal/service"
)

// HandoverHandler serves creation, the composed view and the lifecycle transitions.
type HandoverHandler struct {
	handovers service.HandoverService
	query     service.HandoverQueryService
	logger    *zap.Logger
}

func NewHandoverHandler(handovers service.HandoverService, query service.HandoverQueryService, logger *zap.Logger) *HandoverHandler {
	return &HandoverHandler{handovers: handovers, query: query, logger: logger}
}

type createHandoverBody struct {
	PatientID              string `json:"patientId"`
	FromShiftID            string `json:"fromShiftId"`
	ToShiftID              string `json:"toShiftId"`
	FromDoctorID           string `json:"fromDoctorId"`
	ToDoctorID             string `json:"toDoctorId"`
	FromDoctorName         string `json:"fromDoctorName"`
	ToDoctorName           string `json:"toDoctorName"`
	ResponsiblePhysicianID string `json:"responsiblePhysicianId"`
	HandoverType           string `json:"handoverType"`
	WindowDate             string `json:"windowDate"`
}

type transitionBody struct {
	ExpectedVersion *int64 `json:"expectedVersion"`
	Reason          string `json:"reason"`
}

// CreateHandover handles POST /api/v1/handovers.
func (h *HandoverHandler) CreateHandover(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}
	var body createHandoverBody
	if err := readBodyJSON(w, r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "create handover", err)
		return
	}

	created, err := h.handovers.CreateHandover(r.Context(), service.CreateHandoverRequest{
		PatientID:              body.PatientID,
		FromShiftID:            body.FromShiftID,
		ToShiftID:              body.ToShiftID,
		FromDoctorID:           body.FromDoctorID,
		ToDoctorID:             body.ToDoctorID,
		InitiatedBy:            userID,
		FromDoctorName:         body.FromDoctorName,
		ToDoctorName:           body.ToDoctorName,
		ResponsiblePhysicianID: body.ResponsiblePhysicianID,
		HandoverType:           body.HandoverType,
		WindowDate:             body.WindowDate,
	})
	if err != nil {
		writeError(w, h.logger, "create handover", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(service.NewHandoverResponse(created)))
}

// GetHandover handles GET /api/v1/handovers/{id} with the composed view.
func (h *HandoverHandler) GetHandover(w http.ResponseWriter, r *http.Request) {
	view, err := h.query.GetView(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "get handover", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

func (h *HandoverHandler) transitionHandler(name domain.TransitionName) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromReq(w, r)
		if !ok {
			return
		}
		var body transitionBody
		if err := readBodyJSON(w, r, maxBodyBytes, &body); err != nil {
			writeError(w, h.logger, string(name)+" handover", err)
			return
		}
		updated, err := h.handovers.Transition(r.Context(), name, service.TransitionRequest{
			HandoverID:      r.PathValue("id"),
			ActorID:         userID,
			ExpectedVersion: body.ExpectedVersion,
			Reason:          body.Reason,
		})
		if err != nil {
			writeError(w, h.logger, string(name)+" handover", err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(service.NewHandoverResponse(updated)))
	}
}
