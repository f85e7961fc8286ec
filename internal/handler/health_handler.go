package handler

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Cocadite/api-pe-na-porta/internal/service"
)

type HealthHandler struct {
	subSvc  *service.SubmissionService
	log     logrus.FieldLogger
	started time.Time
}

func NewHealthHandler(subSvc *service.SubmissionService, log logrus.FieldLogger, started time.Time) *HealthHandler {
	return &HealthHandler{subSvc: subSvc, log: log, started: started}
}

// Live answers liveness probes without touching storage.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Admin reports uptime in seconds plus submission counts.
func (h *HealthHandler) Admin(w http.ResponseWriter, r *http.Request) {
	stats, err := h.subSvc.Stats()
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.started).Seconds(),
		"stats":  stats,
	})
}
