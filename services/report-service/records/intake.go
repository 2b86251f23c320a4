package records

import (
	"fmt"
	"strings"
	"time"

	"police-dispatch-system/pkg/dispatch"
	"police-dispatch-system/services/report-service/assignment"

	"github.com/google/uuid"
)

// Intake is the body of POST /api/reports.
type Intake struct {
	CrimeType          string   `json:"crime_type"`
	Description        string   `json:"description"`
	Priority           string   `json:"priority"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	StationID          string   `json:"station_id"`
	ComplainantContact string   `json:"complainant_contact"`
}

type Sealer interface {
	EncryptString(plaintext string) (string, error)
}

// NewReport builds an unassigned, active report from an intake request.
// Priority defaults to NORMAL. The complainant contact is sealed before it
// reaches the record.
func NewReport(in Intake, sealer Sealer, now time.Time) (*dispatch.Report, error) {
	crimeType := strings.TrimSpace(in.CrimeType)
	if crimeType == "" {
		return nil, fmt.Errorf("crime_type is required: %w", assignment.ErrInvalidArgument)
	}

	priority := dispatch.PriorityNormal
	if strings.TrimSpace(in.Priority) != "" {
		p, err := dispatch.ParsePriority(in.Priority)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, assignment.ErrInvalidArgument)
		}
		priority = p
	}

	r := &dispatch.Report{
		ID:            uuid.NewString(),
		CrimeType:     crimeType,
		Description:   strings.TrimSpace(in.Description),
		Priority:      priority,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		CurrentStatus: dispatch.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if id := strings.TrimSpace(in.StationID); id != "" {
		if !dispatch.ValidID(id) {
			return nil, fmt.Errorf("station id %q: %w", id, assignment.ErrInvalidArgument)
		}
		r.StationID = &id
	}

	if contact := strings.TrimSpace(in.ComplainantContact); contact != "" {
		sealed, err := sealer.EncryptString(contact)
		if err != nil {
			return nil, fmt.Errorf("seal complainant contact: %w", err)
		}
		r.ComplainantContactEnc = sealed
	}

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, assignment.ErrInvalidArgument)
	}
	return r, nil
}

// Location is one point of the crime map.
type Location struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Type string  `json:"type"`
}

func Locations(reports []dispatch.Report) []Location {
	out := make([]Location, 0, len(reports))
	for _, r := range reports {
		if !r.Located() {
			continue
		}
		out = append(out, Location{Lat: *r.Latitude, Lng: *r.Longitude, Type: r.CrimeType})
	}
	return out
}
