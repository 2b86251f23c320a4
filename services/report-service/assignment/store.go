package assignment

import (
	"context"
	"time"

	"police-dispatch-system/pkg/dispatch"
)

// Store is the persistence contract of the workflow. Implementations return
// ErrNotFound, ErrAlreadyAssigned, ErrOfficerUnavailable and
// ErrOfficerAtCapacity as-is; any other error is treated as an
// infrastructure failure.
type Store interface {
	GetReport(ctx context.Context, id string) (*dispatch.Report, error)
	GetOfficer(ctx context.Context, id string) (*dispatch.Officer, error)

	// AssignReport atomically sets the report's officer and status (only if
	// it is still unassigned and active) and takes one unit of the
	// officer's capacity. Either both writes happen or neither does.
	AssignReport(ctx context.Context, reportID, officerID string, at time.Time) (*dispatch.Officer, error)

	ListUnassigned(ctx context.Context, priority *dispatch.Priority) ([]dispatch.Report, error)
	ListAssignedTo(ctx context.Context, officerID string, statuses []dispatch.Status) ([]dispatch.Report, error)
	ListAvailableOfficers(ctx context.Context, stationID string) ([]dispatch.Officer, error)
}

// classifyOfficer explains why an officer cannot take a case, or returns nil.
// Capacity is checked first so an officer that filled up reports as such.
func classifyOfficer(o *dispatch.Officer) error {
	if o.AtCapacity() {
		return ErrOfficerAtCapacity
	}
	if !o.IsAvailable {
		return ErrOfficerUnavailable
	}
	return nil
}
