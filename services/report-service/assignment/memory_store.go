package assignment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"police-dispatch-system/pkg/dispatch"
)

// MemoryStore is an in-process Store with the same conditional-write
// semantics as GormStore. A single mutex serializes writers.
type MemoryStore struct {
	mu       sync.Mutex
	reports  map[string]dispatch.Report
	officers map[string]dispatch.Officer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports:  make(map[string]dispatch.Report),
		officers: make(map[string]dispatch.Officer),
	}
}

func (m *MemoryStore) PutReport(r dispatch.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = cloneReport(r)
}

func (m *MemoryStore) PutOfficer(o dispatch.Officer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.officers[o.ID] = o
}

func (m *MemoryStore) GetReport(_ context.Context, id string) (*dispatch.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	r = cloneReport(r)
	return &r, nil
}

func (m *MemoryStore) GetOfficer(_ context.Context, id string) (*dispatch.Officer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.officers[id]
	if !ok {
		return nil, fmt.Errorf("officer %s: %w", id, ErrNotFound)
	}
	return &o, nil
}

func (m *MemoryStore) AssignReport(_ context.Context, reportID, officerID string, at time.Time) (*dispatch.Officer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[reportID]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", reportID, ErrNotFound)
	}
	if !r.Unassigned() {
		return nil, fmt.Errorf("report %s: %w", reportID, ErrAlreadyAssigned)
	}
	o, ok := m.officers[officerID]
	if !ok {
		return nil, fmt.Errorf("officer %s: %w", officerID, ErrNotFound)
	}
	if err := classifyOfficer(&o); err != nil {
		return nil, fmt.Errorf("officer %s: %w", officerID, err)
	}

	id := officerID
	r.AssignedOfficer = &id
	r.CurrentStatus = dispatch.StatusInProgress
	r.UpdatedAt = at

	o.ActiveCases++
	if o.ActiveCases >= o.MaxCapacity {
		o.IsAvailable = false
	}
	o.UpdatedAt = at

	m.reports[reportID] = r
	m.officers[officerID] = o
	return &o, nil
}

func (m *MemoryStore) ListUnassigned(_ context.Context, priority *dispatch.Priority) ([]dispatch.Report, error) {
	return m.filterReports(func(r dispatch.Report) bool {
		return r.Unassigned() && (priority == nil || r.Priority == *priority)
	}), nil
}

func (m *MemoryStore) ListAssignedTo(_ context.Context, officerID string, statuses []dispatch.Status) ([]dispatch.Report, error) {
	return m.filterReports(func(r dispatch.Report) bool {
		if r.AssignedOfficer == nil || *r.AssignedOfficer != officerID {
			return false
		}
		for _, st := range statuses {
			if r.CurrentStatus == st {
				return true
			}
		}
		return false
	}), nil
}

func (m *MemoryStore) ListAvailableOfficers(_ context.Context, stationID string) ([]dispatch.Officer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]dispatch.Officer, 0)
	for _, o := range m.officers {
		if o.StationID == stationID && o.IsAvailable && !o.AtCapacity() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActiveCases != out[j].ActiveCases {
			return out[i].ActiveCases < out[j].ActiveCases
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) filterReports(keep func(dispatch.Report) bool) []dispatch.Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]dispatch.Report, 0)
	for _, r := range m.reports {
		if keep(r) {
			out = append(out, cloneReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneReport(r dispatch.Report) dispatch.Report {
	if r.AssignedOfficer != nil {
		id := *r.AssignedOfficer
		r.AssignedOfficer = &id
	}
	return r
}
