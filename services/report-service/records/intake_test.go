package records

import (
	"errors"
	"testing"
	"time"

	"police-dispatch-system/pkg/dispatch"
	"police-dispatch-system/pkg/security"
	"police-dispatch-system/services/report-service/assignment"
)

func testCipher(t *testing.T) *security.Cipher {
	t.Helper()
	key, err := security.KeyFrom("", "test-secret")
	if err != nil {
		t.Fatal(err)
	}
	c, err := security.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func ptr(f float64) *float64 { return &f }

func TestNewReport(t *testing.T) {
	c := testCipher(t)
	now := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	r, err := NewReport(Intake{
		CrimeType:          " robbery ",
		Priority:           "emergency",
		Latitude:           ptr(-6.2),
		Longitude:          ptr(106.8),
		ComplainantContact: "+62 812 0000",
	}, c, now)
	if err != nil {
		t.Fatalf("NewReport: %v", err)
	}

	if !r.Unassigned() || r.Priority != dispatch.PriorityEmergency || r.CrimeType != "robbery" {
		t.Errorf("unexpected report %+v", r)
	}
	if !dispatch.ValidID(r.ID) || !r.CreatedAt.Equal(now) {
		t.Errorf("id/timestamp not set: %+v", r)
	}
	if r.ComplainantContactEnc == "" || r.ComplainantContactEnc == "+62 812 0000" {
		t.Fatalf("contact not sealed: %q", r.ComplainantContactEnc)
	}
	plain, err := c.DecryptString(r.ComplainantContactEnc)
	if err != nil || plain != "+62 812 0000" {
		t.Errorf("DecryptString = %q, %v", plain, err)
	}
}

func TestNewReportDefaultsToNormal(t *testing.T) {
	r, err := NewReport(Intake{CrimeType: "vandalism"}, testCipher(t), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if r.Priority != dispatch.PriorityNormal || r.ComplainantContactEnc != "" {
		t.Errorf("got %+v", r)
	}
}

func TestNewReportRejects(t *testing.T) {
	tests := []struct {
		name string
		in   Intake
	}{
		{"missing crime type", Intake{Priority: "HIGH"}},
		{"unknown priority", Intake{CrimeType: "theft", Priority: "URGENT"}},
		{"half a location", Intake{CrimeType: "theft", Latitude: ptr(1)}},
		{"latitude out of range", Intake{CrimeType: "theft", Latitude: ptr(91), Longitude: ptr(0)}},
		{"bad station id", Intake{CrimeType: "theft", StationID: "station-7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReport(tt.in, testCipher(t), time.Now())
			if !errors.Is(err, assignment.ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestLocations(t *testing.T) {
	reports := []dispatch.Report{
		{CrimeType: "theft", Latitude: ptr(1.5), Longitude: ptr(2.5)},
		{CrimeType: "fraud"},
	}
	got := Locations(reports)
	if len(got) != 1 || got[0] != (Location{Lat: 1.5, Lng: 2.5, Type: "theft"}) {
		t.Errorf("Locations = %+v", got)
	}
	if Locations(nil) == nil {
		t.Error("want an empty slice, not nil")
	}
}

func TestSummarize(t *testing.T) {
	a := Summarize("7d", []Tally{
		{CurrentStatus: dispatch.StatusActive, Priority: dispatch.PriorityEmergency, Count: 2},
		{CurrentStatus: dispatch.StatusResolved, Priority: dispatch.PriorityEmergency, Count: 1},
		{CurrentStatus: dispatch.StatusResolved, Priority: dispatch.PriorityNormal, Count: 1},
		{CurrentStatus: "closed", Priority: dispatch.PriorityNormal, Count: 9},
	})
	if a.Total != 4 || a.ByStatus[dispatch.StatusResolved] != 2 || a.ByPriority[dispatch.PriorityEmergency] != 3 {
		t.Errorf("unexpected summary %+v", a)
	}
	if a.ResolutionRate != 50 {
		t.Errorf("ResolutionRate = %v, want 50", a.ResolutionRate)
	}
	if a.ByStatus[dispatch.StatusInProgress] != 0 {
		t.Error("missing statuses should be reported as zero")
	}
}

func TestParseTimeRange(t *testing.T) {
	for in, want := range map[string]int{"7d": 7, "90d": 90, "30d": 30, "": 30, "1y": 30} {
		if _, days := ParseTimeRange(in); days != want {
			t.Errorf("ParseTimeRange(%q) = %d, want %d", in, days, want)
		}
	}
}
