package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"wisefido-handover/internal/service"
)

type ActionItemHandler struct {
	items  service.ActionItemService
	logger *zap.Logger
}

func NewActionItemHandler(items service.ActionItemService, logger *zap.Logger) *ActionItemHandler {
	return &ActionItemHandler{items: items, logger: logger}
}

type createActionItemBody struct {
	Description string `json:"description"`
}

type updateActionItemBody struct {
	Description *string `json:"description"`
	IsCompleted *bool   `json:"isCompleted"`
}

func (h *ActionItemHandler) ListActionItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.ListActionItems(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "list action items", err)
		return
	}
	out := make([]service.ActionItemResponse, 0, len(items))
	for i := range items {
		out = append(out, service.NewActionItemResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *ActionItemHandler) CreateActionItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := userIDFromReq(w, r); !ok {
		return
	}
	var body createActionItemBody
	if err := readBodyJSON(w, r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "create action item", err)
		return
	}
	item, err := h.items.CreateActionItem(r.Context(), service.CreateActionItemRequest{
		HandoverID:  r.PathValue("id"),
		Description: body.Description,
	})
	if err != nil {
		writeError(w, h.logger, "create action item", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(service.NewActionItemResponse(item)))
}

func (h *ActionItemHandler) UpdateActionItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := userIDFromReq(w, r); !ok {
		return
	}
	var body updateActionItemBody
	if err := readBodyJSON(w, r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "update action item", err)
		return
	}
	item, err := h.items.UpdateActionItem(r.Context(), service.UpdateActionItemRequest{
		HandoverID:  r.PathValue("id"),
		ItemID:      r.PathValue("itemId"),
		Description: body.Description,
		IsCompleted: body.IsCompleted,
	})
	if err != nil {
		writeError(w, h.logger, "update action item", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(service.NewActionItemResponse(item)))
}

func (h *ActionItemHandler) DeleteActionItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := userIDFromReq(w, r); !ok {
		return
	}
	if err := h.items.DeleteActionItem(r.Context(), r.PathValue("id"), r.PathValue("itemId")); err != nil {
		writeError(w, h.logger, "delete action item", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

type ContingencyPlanHandler struct {
	plans  service.ContingencyPlanService
	logger *zap.Logger
}

func NewContingencyPlanHandler(plans service.ContingencyPlanService, logger *zap.Logger) *ContingencyPlanHandler {
	return &ContingencyPlanHandler{plans: plans, logger: logger}
}

type createContingencyPlanBody struct {
	ConditionText string `json:"conditionText"`
	ActionText    string `json:"actionText"`
	Priority      string `json:"priority"`
	Status        string `json:"status"`
}

type updateContingencyPlanBody struct {
	Priority *string `json:"priority"`
	Status   *string `json:"status"`
}

func (h *ContingencyPlanHandler) ListContingencyPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListContingencyPlans(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, "list contingency plans", err)
		return
	}
	out := make([]service.ContingencyPlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, service.NewContingencyPlanResponse(&plans[i]))
	}
	writeJSON(w, http.StatusOK, Ok(out))
}

func (h *ContingencyPlanHandler) CreateContingencyPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}
	var body createContingencyPlanBody
	if err := readBodyJSON(w, r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "create contingency plan", err)
		return
	}
	plan, err := h.plans.CreateContingencyPlan(r.Context(), service.CreateContingencyPlanRequest{
		HandoverID:    r.PathValue("id"),
		ConditionText: body.ConditionText,
		ActionText:    body.ActionText,
		Priority:      body.Priority,
		Status:        body.Status,
		CreatedBy:     userID,
	})
	if err != nil {
		writeError(w, h.logger, "create contingency plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(service.NewContingencyPlanResponse(plan)))
}

func (h *ContingencyPlanHandler) UpdateContingencyPlan(w http.ResponseWriter, r *http.Request) {
	if _, ok := userIDFromReq(w, r); !ok {
		return
	}
	var body updateContingencyPlanBody
	if err := readBodyJSON(w, r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "update contingency plan", err)
		return
	}
	plan, err := h.plans.UpdateContingencyPlan(r.Context(), service.UpdateContingencyPlanRequest{
		HandoverID: r.PathValue("id"),
		PlanID:     r.PathValue("planId"),
		Priority:   body.Priority,
		Status:     body.Status,
	})
	if err != nil {
		writeError(w, h.logger, "update contingency plan", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(service.NewContingencyPlanResponse(plan)))
}

func (h *ContingencyPlanHandler) DeleteContingencyPlan(w http.ResponseWriter, r *http.Request) {
	if _, ok := userIDFromReq(w, r); !ok {
		return
	}
	if err := h.plans.DeleteContingencyPlan(r.Context(), r.PathValue("id"), r.PathValue("planId")); err != nil {
		writeError(w, h.logger, "delete contingency plan", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

type AssignmentHandler struct {
	assignments service.AssignmentService
	logger      *zap.Logger
}

func NewAssignmentHandler(assignments service.AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, logger: logger}
}

type ensureAssignmentBody struct {
	UserID    string `json:"userId"`
	ShiftID   string `json:"shiftId"`
	PatientID string `json:"patientId"`
}

// EnsureAssignment handles POST /api/v1/assignments; repeating it returns the same row.
func (h *AssignmentHandler) EnsureAssignment(w http.ResponseWriter, r *http.Request) {
	if _, ok := userIDFromReq(w, r); !ok {
		return
	}
	var body ensureAssignmentBody
	if err := readBodyJSON(w, r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "ensure assignment", err)
		return
	}
	a, err := h.assignments.EnsureAssignment(r.Context(), body.UserID, body.ShiftID, body.PatientID)
	if err != nil {
		writeError(w, h.logger, "ensure assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(service.NewAssignmentResponse(a)))
}
