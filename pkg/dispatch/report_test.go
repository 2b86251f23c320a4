package dispatch

import "testing"

func ptr[T any](v T) *T { return &v }

const (
	reportID  = "0f5c8a4e-1b2d-4c3e-9f6a-7b8c9d0e1f2a"
	officerID = "5a1e2d3c-4b5a-4f6e-8d7c-9b0a1f2e3d4c"
)

func TestReportValidate(t *testing.T) {
	base := func() Report {
		return Report{ID: reportID, CrimeType: "theft", Priority: PriorityNormal, CurrentStatus: StatusActive}
	}

	tests := []struct {
		name    string
		mutate  func(r *Report)
		wantErr bool
	}{
		{"unassigned", func(r *Report) {}, false},
		{"assigned in progress", func(r *Report) { r.AssignedOfficer = ptr(officerID); r.CurrentStatus = StatusInProgress }, false},
		{"bad id", func(r *Report) { r.ID = "not-a-uuid" }, true},
		{"bad priority", func(r *Report) { r.Priority = "urgent" }, true},
		{"bad status", func(r *Report) { r.CurrentStatus = "closed" }, true},
		{"in progress without officer", func(r *Report) { r.CurrentStatus = StatusInProgress }, true},
		{"assigned but active", func(r *Report) { r.AssignedOfficer = ptr(officerID) }, true},
		{"half a location", func(r *Report) { r.Latitude = ptr(12.9) }, true},
		{"latitude out of range", func(r *Report) { r.Latitude = ptr(91.0); r.Longitude = ptr(0.0) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			if err := r.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOfficerValidate(t *testing.T) {
	o := Officer{ID: officerID, StationID: reportID, IsAvailable: true, ActiveCases: 1, MaxCapacity: 3}
	if err := o.Validate(); err != nil {
		t.Fatalf("valid officer rejected: %v", err)
	}

	o.ActiveCases = 4
	if err := o.Validate(); err == nil {
		t.Fatal("expected error when active cases exceed capacity")
	}

	o.ActiveCases, o.MaxCapacity = 0, 0
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority("emergency"); err != nil || p != PriorityEmergency {
		t.Fatalf("ParsePriority(emergency) = %q, %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
	if PriorityEmergency.Weight() <= PriorityNormal.Weight() {
		t.Fatal("emergency should outweigh normal")
	}
}
