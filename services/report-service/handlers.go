package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"police-dispatch-system/pkg/dispatch"
	"police-dispatch-system/pkg/middleware"
	"police-dispatch-system/pkg/queue"
	"police-dispatch-system/pkg/response"
	"police-dispatch-system/services/report-service/assignment"
	"police-dispatch-system/services/report-service/evidence"
	"police-dispatch-system/services/report-service/heatmap"
	"police-dispatch-system/services/report-service/records"

	"github.com/apex/log"
)

func (s *server) assignCase(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ReportID  string `json:"reportId"`
		OfficerID string `json:"officerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Fail(w, http.StatusBadRequest, "invalid_argument", "Invalid request payload", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	conf, err := s.assign.Assign(ctx, strings.TrimSpace(input.ReportID), strings.TrimSpace(input.OfficerID))
	if err != nil {
		caseAssignmentsTotal.WithLabelValues(assignment.Kind(err)).Inc()
		writeError(w, r, err)
		return
	}
	caseAssignmentsTotal.WithLabelValues("assigned").Inc()

	event := queue.CaseAssignedEvent{
		ReportID:      conf.ReportID,
		OfficerID:     conf.OfficerID,
		OfficerUserID: conf.OfficerUserID,
		Priority:      string(conf.Priority),
		AssignedAt:    conf.AssignedAt,
	}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		event.AssignedBy = claims.UserID
	}
	// The assignment is committed; a lost event only delays the notification.
	if err := s.publisher.Publish(r.Context(), queue.RouteCaseAssigned, event); err != nil {
		log.WithError(err).WithField("report_id", conf.ReportID).Warn("Case assigned but failed to publish event")
	}

	response.Success(w, http.StatusOK, "Case assigned successfully", conf)
}

func (s *server) unassignedReports(w http.ResponseWriter, r *http.Request) {
	var f assignment.Filter
	if raw := r.URL.Query().Get("priority"); raw != "" {
		p, err := dispatch.ParsePriority(raw)
		if err != nil {
			writeError(w, r, fmt.Errorf("%v: %w", err, assignment.ErrInvalidArgument))
			return
		}
		f.Priority = &p
	}
	s.listUnassigned(w, r, f)
}

func (s *server) emergencyReports(w http.ResponseWriter, r *http.Request) {
	p := dispatch.PriorityEmergency
	s.listUnassigned(w, r, assignment.Filter{Priority: &p})
}

func (s *server) listUnassigned(w http.ResponseWriter, r *http.Request, f assignment.Filter) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	reports, err := s.assign.ListUnassigned(ctx, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Unassigned reports fetched successfully", reports)
}

// reportsForOfficer lets stations read any officer's cases and officers only
// their own.
func (s *server) reportsForOfficer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("officerId")
	if !dispatch.ValidID(id) {
		writeError(w, r, fmt.Errorf("officer id %q: %w", id, assignment.ErrInvalidArgument))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	if claims, _ := middleware.ClaimsFromContext(r.Context()); claims.Role == middleware.RoleOfficer {
		self, err := s.records.OfficerByUser(ctx, claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if self.ID != id {
			response.Fail(w, http.StatusForbidden, "forbidden", "You can only view your own cases", "")
			return
		}
	}

	reports, err := s.assign.ListAssignedTo(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(reports) == 0 {
		response.Success(w, http.StatusOK, "No active reports found for this officer", reports)
		return
	}
	response.Success(w, http.StatusOK, "Officer reports fetched successfully", reports)
}

func (s *server) availableOfficers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	officers, err := s.assign.ListAvailableOfficers(ctx, r.URL.Query().Get("stationId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Available officers fetched successfully", officers)
}

func (s *server) currentOfficer(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	officer, err := s.records.OfficerByUser(ctx, claims.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Officer details fetched successfully", officer)
}

func (s *server) stations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	stations, err := s.records.ListStations(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Stations fetched successfully", stations)
}

func (s *server) createReport(w http.ResponseWriter, r *http.Request) {
	var input records.Intake
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Fail(w, http.StatusBadRequest, "invalid_argument", "Invalid request payload", err.Error())
		return
	}

	report, err := records.NewReport(input, s.sealer, s.now().UTC())
	if err != nil {
		if errors.Is(err, assignment.ErrInvalidArgument) {
			response.Fail(w, http.StatusBadRequest, "invalid_argument", "Invalid report", err.Error())
			return
		}
		writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if err := s.records.CreateReport(ctx, report); err != nil {
		writeError(w, r, err)
		return
	}
	reportsCreatedTotal.WithLabelValues(string(report.Priority)).Inc()
	log.WithFields(log.Fields{"report_id": report.ID, "priority": report.Priority}).Info("Report created")

	event := queue.ReportCreatedEvent{
		ReportID:  report.ID,
		CrimeType: report.CrimeType,
		Priority:  string(report.Priority),
		Latitude:  report.Latitude,
		Longitude: report.Longitude,
		CreatedAt: report.CreatedAt,
	}
	if err := s.publisher.Publish(r.Context(), queue.RouteReportCreated, event); err != nil {
		log.WithError(err).WithField("report_id", report.ID).Warn("Report saved but failed to publish event")
	}

	response.Success(w, http.StatusCreated, "Report created successfully", report)
}

func (s *server) locations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	reports, err := s.records.ListLocated(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Locations fetched successfully", records.Locations(reports))
}

func (s *server) heatmap(w http.ResponseWriter, r *http.Request) {
	level := heatmap.DefaultLevel
	if raw := r.URL.Query().Get("level"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, fmt.Errorf("level %q: %w", raw, assignment.ErrInvalidArgument))
			return
		}
		level = heatmap.ClampLevel(n)
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	reports, err := s.records.ListLocated(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	agg := heatmap.NewAggregator(level)
	for _, rep := range reports {
		agg.Add(heatmap.Point{Lat: *rep.Latitude, Lng: *rep.Longitude, Weight: rep.Priority.Weight()})
	}
	response.Success(w, http.StatusOK, "Heatmap generated", map[string]interface{}{
		"level": agg.Level(),
		"cells": agg.Cells(),
	})
}

func (s *server) analytics(w http.ResponseWriter, r *http.Request) {
	timeRange, days := records.ParseTimeRange(r.URL.Query().Get("timeRange"))

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	tallies, err := s.records.Tally(ctx, s.now().AddDate(0, 0, -days))
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary := records.Summarize(timeRange, tallies)
	log.WithFields(log.Fields{"total": summary.Total, "time_range": timeRange}).Info("Analytics generated")
	response.Success(w, http.StatusOK, "Analytics data retrieved", summary)
}

// evidenceReport resolves the {id} path value to an existing report.
func (s *server) evidenceReport(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.gallery == nil {
		response.Fail(w, http.StatusServiceUnavailable, "store_unavailable", "Evidence storage is not configured", "")
		return "", false
	}
	id := r.PathValue("id")
	if !dispatch.ValidID(id) {
		writeError(w, r, fmt.Errorf("report id %q: %w", id, assignment.ErrInvalidArgument))
		return "", false
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()
	if _, err := s.assign.Report(ctx, id); err != nil {
		writeError(w, r, err)
		return "", false
	}
	return id, true
}

func (s *server) uploadEvidence(w http.ResponseWriter, r *http.Request) {
	reportID, ok := s.evidenceReport(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, evidence.MaxUploadBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Fail(w, http.StatusBadRequest, "invalid_argument", "Missing or oversized file field", err.Error())
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	item, err := s.gallery.Upload(ctx, reportID, header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	switch {
	case errors.Is(err, evidence.ErrTooLarge):
		response.Fail(w, http.StatusRequestEntityTooLarge, "invalid_argument", "Evidence file exceeds 20MB", "")
		return
	case errors.Is(err, evidence.ErrUnsupportedType), errors.Is(err, evidence.ErrInvalidReportID):
		response.Fail(w, http.StatusBadRequest, "invalid_argument", "Unsupported evidence file", err.Error())
		return
	case err != nil:
		writeError(w, r, fmt.Errorf("%w: %w", assignment.ErrStoreUnavailable, err))
		return
	}

	log.WithFields(log.Fields{"report_id": reportID, "key": item.Key, "size": item.Size}).Info("Evidence uploaded")
	response.Success(w, http.StatusCreated, "Evidence uploaded successfully", item)
}

func (s *server) listEvidence(w http.ResponseWriter, r *http.Request) {
	reportID, ok := s.evidenceReport(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	items, err := s.gallery.List(ctx, reportID)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", assignment.ErrStoreUnavailable, err))
		return
	}
	response.Success(w, http.StatusOK, "Evidence fetched successfully", items)
}
