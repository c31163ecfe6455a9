package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"wisefido-handover/internal/domain"
	"wisefido-handover/internal/service"
)

type SectionHandler struct {
	content service.ContentService
	logger  *zap.Logger
}

func NewSectionHandler(content service.ContentService, logger *zap.Logger) *SectionHandler {
	return &SectionHandler{content: content, logger: logger}
}

type updateSectionBody struct {
	Content         string  `json:"content"`
	Status          string  `json:"status"`
	IllnessSeverity *string `json:"illnessSeverity"`
}

// sectionKind maps the URL form (patient-data) to the stored kind (patient_data).
func sectionKind(r *http.Request) (domain.SectionKind, error) {
	raw := r.PathValue("kind")
	kind := domain.SectionKind(strings.ReplaceAll(raw, "-", "_"))
	if !kind.Valid() {
		return "", domain.Validationf("unknown section kind %q", raw)
	}
	return kind, nil
}

// GetSection handles GET /api/v1/handovers/{id}/sections/{kind}.
func (h *SectionHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	kind, err := sectionKind(r)
	if err != nil {
		writeError(w, h.logger, "get section", err)
		return
	}
	sec, err := h.content.GetSection(r.Context(), r.PathValue("id"), kind)
	if err != nil {
		writeError(w, h.logger, "get section", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(service.NewSectionResponse(sec)))
}

// UpdateSection handles PUT /api/v1/handovers/{id}/sections/{kind} and returns the stored row.
func (h *SectionHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}
	kind, err := sectionKind(r)
	if err != nil {
		writeError(w, h.logger, "update section", err)
		return
	}
	var body updateSectionBody
	if err := readBodyJSON(w, r, maxBodyBytes, &body); err != nil {
		writeError(w, h.logger, "update section", err)
		return
	}

	handoverID := r.PathValue("id")
	found, err := h.content.UpdateSection(r.Context(), service.UpdateSectionRequest{
		HandoverID:      handoverID,
		Kind:            kind,
		Content:         body.Content,
		Status:          body.Status,
		IllnessSeverity: body.IllnessSeverity,
		EditorID:        userID,
	})
	if err != nil {
		writeError(w, h.logger, "update section", err)
		return
	}
	if !found {
		writeError(w, h.logger, "update section", fmt.Errorf("handover %s: %w", handoverID, domain.ErrNotFound))
		return
	}

	sec, err := h.content.GetSection(r.Context(), handoverID, kind)
	if err != nil {
		writeError(w, h.logger, "update section", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(service.NewSectionResponse(sec)))
}
