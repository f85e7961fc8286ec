package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Cocadite/api-pe-na-porta/internal/auth"
	"github.com/Cocadite/api-pe-na-porta/internal/handler"
	"github.com/Cocadite/api-pe-na-porta/internal/metrics"
	mw "github.com/Cocadite/api-pe-na-porta/internal/middleware"
)

type Options struct {
	Log         logrus.FieldLogger
	Auth        auth.Authenticator
	CORSOrigins []string
	// RateLimit is applied globally when non-nil.
	RateLimit func(http.Handler) http.Handler

	Health *handler.HealthHandler
	Form   *handler.FormHandler
	Admin  *handler.AdminHandler
	Bot    *handler.BotHandler
}

func New(o Options) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery(o.Log))
	r.Use(mw.Logger(o.Log))
	r.Use(mw.Metrics)
	r.Use(mw.CORS(o.CORSOrigins))
	if o.RateLimit != nil {
		r.Use(o.RateLimit)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Public routes
	r.Get("/", o.Health.Live)
	r.Get("/health", o.Health.Live)
	r.Get("/api/health", o.Health.Live)
	r.Post("/api/form/submit", o.Form.Submit)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(o.Auth))

		// Admin
		r.Get("/admin/health", o.Health.Admin)
		r.Get("/admin/submissions", o.Admin.List)
		r.Post("/admin/submissions/{id}/approve", o.Admin.Approve)
		r.Post("/admin/submissions/{id}/reject", o.Admin.Reject)
		r.Get("/admin/logs", o.Admin.Logs)
		r.Method(http.MethodGet, "/admin/metrics", metrics.Handler())

		// Bot
		r.Get("/bot/approved", o.Bot.Approved)
		r.Post("/bot/mark-done", o.Bot.MarkDone)
	})

	return r
}
