package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Cocadite/api-pe-na-porta/internal/service"
)

type FormHandler struct {
	subSvc *service.SubmissionService
	log    logrus.FieldLogger
}

func NewFormHandler(subSvc *service.SubmissionService, log logrus.FieldLogger) *FormHandler {
	return &FormHandler{subSvc: subSvc, log: log}
}

// Submit accepts any JSON object. An empty body counts as an empty form;
// null and other non-object values are rejected.
func (h *FormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	switch err := readJSON(w, r, &fields); {
	case err == errEmptyBody:
		fields = map[string]json.RawMessage{}
	case err != nil, fields == nil:
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	sub, err := h.subSvc.Submit(fields)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true, ID: sub.ID})
}
