package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"police-dispatch-system/pkg/dispatch"

	"github.com/apex/log"
)

// Confirmation describes a successful assignment.
type Confirmation struct {
	ReportID           string            `json:"report_id"`
	OfficerID          string            `json:"officer_id"`
	OfficerUserID      string            `json:"-"`
	Priority           dispatch.Priority `json:"priority"`
	Status             dispatch.Status   `json:"current_status"`
	OfficerActiveCases int               `json:"officer_active_cases"`
	OfficerAvailable   bool              `json:"officer_available"`
	AssignedAt         time.Time         `json:"assigned_at"`
}

type Filter struct {
	Priority *dispatch.Priority
}

// openStatuses are the non-terminal states listed for an officer.
var openStatuses = []dispatch.Status{dispatch.StatusActive, dispatch.StatusInProgress}

// Service is the only writer of a report's assignment state. It keeps no
// state between calls; every call re-reads the store.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Assign reserves an unassigned report for one officer. Among concurrent
// callers for the same report at most one succeeds; the others get
// ErrAlreadyAssigned whether they lost at the pre-check or at the write.
func (s *Service) Assign(ctx context.Context, reportID, officerID string) (*Confirmation, error) {
	if !dispatch.ValidID(reportID) {
		return nil, fmt.Errorf("report id %q: %w", reportID, ErrInvalidArgument)
	}
	if !dispatch.ValidID(officerID) {
		return nil, fmt.Errorf("officer id %q: %w", officerID, ErrInvalidArgument)
	}

	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, storeError("get report", err)
	}
	if !report.Unassigned() {
		return nil, fmt.Errorf("report %s: %w", reportID, ErrAlreadyAssigned)
	}

	officer, err := s.store.GetOfficer(ctx, officerID)
	if err != nil {
		return nil, storeError("get officer", err)
	}
	if err := classifyOfficer(officer); err != nil {
		return nil, fmt.Errorf("officer %s: %w", officerID, err)
	}

	at := s.now().UTC()
	updated, err := s.store.AssignReport(ctx, reportID, officerID, at)
	if err != nil {
		if errors.Is(err, ErrAlreadyAssigned) {
			log.WithFields(log.Fields{"report_id": reportID, "officer_id": officerID}).
				Info("Lost assignment race")
		}
		return nil, storeError("assign report", err)
	}

	log.WithFields(log.Fields{
		"report_id":    reportID,
		"officer_id":   officerID,
		"active_cases": updated.ActiveCases,
		"available":    updated.IsAvailable,
	}).Info("Case assigned")

	return &Confirmation{
		ReportID:           reportID,
		OfficerID:          officerID,
		OfficerUserID:      updated.UserID,
		Priority:           report.Priority,
		Status:             dispatch.StatusInProgress,
		OfficerActiveCases: updated.ActiveCases,
		OfficerAvailable:   updated.IsAvailable,
		AssignedAt:         at,
	}, nil
}

func (s *Service) Report(ctx context.Context, reportID string) (*dispatch.Report, error) {
	if !dispatch.ValidID(reportID) {
		return nil, fmt.Errorf("report id %q: %w", reportID, ErrInvalidArgument)
	}
	r, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, storeError("get report", err)
	}
	return r, nil
}

// ListUnassigned returns active reports nobody has taken, newest first.
func (s *Service) ListUnassigned(ctx context.Context, f Filter) ([]dispatch.Report, error) {
	if f.Priority != nil && !f.Priority.Valid() {
		return nil, fmt.Errorf("priority %q: %w", *f.Priority, ErrInvalidArgument)
	}
	reports, err := s.store.ListUnassigned(ctx, f.Priority)
	if err != nil {
		return nil, storeError("list unassigned", err)
	}
	return reports, nil
}

// ListAssignedTo returns the officer's reports that are not yet resolved.
func (s *Service) ListAssignedTo(ctx context.Context, officerID string) ([]dispatch.Report, error) {
	if !dispatch.ValidID(officerID) {
		return nil, fmt.Errorf("officer id %q: %w", officerID, ErrInvalidArgument)
	}
	reports, err := s.store.ListAssignedTo(ctx, officerID, openStatuses)
	if err != nil {
		return nil, storeError("list assigned", err)
	}
	return reports, nil
}

// ListAvailableOfficers is informational; it reserves nothing.
func (s *Service) ListAvailableOfficers(ctx context.Context, stationID string) ([]dispatch.Officer, error) {
	if !dispatch.ValidID(stationID) {
		return nil, fmt.Errorf("station id %q: %w", stationID, ErrInvalidArgument)
	}
	officers, err := s.store.ListAvailableOfficers(ctx, stationID)
	if err != nil {
		return nil, storeError("list officers", err)
	}
	return officers, nil
}

// storeError keeps domain errors as they are and tags everything else as a
// transient store failure.
func storeError(op string, err error) error {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
