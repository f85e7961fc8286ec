package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Cocadite/api-pe-na-porta/internal/service"
)

var validate = validator.New()

type BotHandler struct {
	subSvc *service.SubmissionService
	log    logrus.FieldLogger
}

func NewBotHandler(subSvc *service.SubmissionService, log logrus.FieldLogger) *BotHandler {
	return &BotHandler{subSvc: subSvc, log: log}
}

// Approved lists the work queue: approved submissions not yet done.
func (h *BotHandler) Approved(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subSvc.ListApprovedPending()
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": subs})
}

type markDoneRequest struct {
	ID string `json:"id" validate:"required"`
}

func (h *BotHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	var req markDoneRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := h.subSvc.MarkDone(req.ID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
