package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/Cocadite/api-pe-na-porta/internal/service"
	"github.com/Cocadite/api-pe-na-porta/internal/store"
)

func TestWriteServiceError(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{errors.Wrap(service.ErrNotFound, "approve"), http.StatusNotFound, `{"error":"Not found"}`},
		{errors.Wrap(store.ErrCorrupt, "db.json"), http.StatusInternalServerError, `{"error":"storage corrupt"}`},
		{errors.New("disk full"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		writeServiceError(rr, log, tt.err)
		assert.Equal(t, tt.status, rr.Code, tt.err.Error())
		assert.JSONEq(t, tt.body, rr.Body.String())
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
	assert.Len(t, hook.AllEntries(), 2, "only server-side failures are logged")
}

func TestReadJSONLimitsBodySize(t *testing.T) {
	body := `{"blob":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/form/submit", strings.NewReader(body))
	rr := httptest.NewRecorder()

	var dst map[string]any
	err := readJSON(rr, req, &dst)
	assert.Error(t, err)
	assert.NotEqual(t, errEmptyBody, err)
}

func TestReadJSONEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/bot/mark-done", nil)
	var dst markDoneRequest
	assert.Equal(t, errEmptyBody, readJSON(httptest.NewRecorder(), req, &dst))
}
