package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Cocadite/api-pe-na-porta/internal/service"
)

type AdminHandler struct {
	subSvc *service.SubmissionService
	log    logrus.FieldLogger
}

func NewAdminHandler(subSvc *service.SubmissionService, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{subSvc: subSvc, log: log}
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subSvc.List()
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": subs})
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, chi.URLParam(r, "id"), h.subSvc.Approve)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, chi.URLParam(r, "id"), h.subSvc.Reject)
}

func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.subSvc.Logs()
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (h *AdminHandler) transition(w http.ResponseWriter, id string, op func(string) error) {
	if err := op(id); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
