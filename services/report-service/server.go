package main

import (
	"context"
	"net/http"
	"time"

	"police-dispatch-system/pkg/middleware"
	"police-dispatch-system/pkg/queue"
	"police-dispatch-system/pkg/response"
	"police-dispatch-system/services/report-service/assignment"
	"police-dispatch-system/services/report-service/evidence"
	"police-dispatch-system/services/report-service/records"

	"github.com/apex/log"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 10 * time.Second
)

type server struct {
	assign    *assignment.Service
	records   records.Store
	gallery   *evidence.Gallery
	publisher queue.Publisher
	sealer    records.Sealer
	ping      func(ctx context.Context) error
	now       func() time.Time
}

func (s *server) routes(secret []byte) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.AuthMiddleware(secret)
	station := middleware.RequireRole(middleware.RoleStation)
	officer := middleware.RequireRole(middleware.RoleOfficer)
	authed := func(h http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
		return middleware.Chain(h, append([]func(http.Handler) http.Handler{auth}, mws...)...)
	}

	mux.Handle("POST /api/assign-case", authed(s.assignCase, station))
	mux.Handle("GET /api/unassigned-reports", authed(s.unassignedReports))
	mux.Handle("GET /api/emergency-reports", authed(s.emergencyReports))
	mux.Handle("GET /api/reports/{officerId}", authed(s.reportsForOfficer))
	mux.Handle("GET /api/reports-for-officer/{officerId}", authed(s.reportsForOfficer))
	mux.Handle("GET /api/available-officers", authed(s.availableOfficers, station))
	mux.Handle("GET /api/officer", authed(s.currentOfficer, officer))
	mux.Handle("GET /api/analytics", authed(s.analytics, station))

	mux.Handle("POST /api/reports", authed(s.createReport))
	mux.Handle("GET /api/locations", authed(s.locations))
	mux.Handle("GET /api/heatmap", authed(s.heatmap))
	mux.Handle("POST /api/reports/{id}/evidence", authed(s.uploadEvidence))
	mux.Handle("GET /api/reports/{id}/evidence", authed(s.listEvidence))

	mux.HandleFunc("GET /api/stations", s.stations)
	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /metrics", middleware.GetMetricsHandler())

	return middleware.Chain(mux,
		middleware.TraceMiddleware,
		middleware.LoggerMiddleware,
		middleware.MetricsMiddleware,
	)
}

// writeError renders a workflow error. Server-side failures keep their
// detail in the log, not in the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := assignment.HTTPStatus(err)
	detail := err.Error()
	if status >= http.StatusInternalServerError {
		middleware.LogError(middleware.GetTraceID(r), "Request failed", err)
		detail = ""
	}
	if assignment.Retryable(err) {
		w.Header().Set("Retry-After", "1")
	}
	response.Fail(w, status, assignment.Kind(err), assignment.Message(err), detail)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.ping != nil {
		if err := s.ping(ctx); err != nil {
			log.WithError(err).Warn("Health check failed")
			response.Error(w, http.StatusServiceUnavailable, "Database unreachable", "")
			return
		}
	}
	response.Success(w, http.StatusOK, "Report service is healthy", nil)
}
