package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityEmergency Priority = "EMERGENCY"
	PriorityHigh      Priority = "HIGH"
	PriorityNormal    Priority = "NORMAL"
)

// ParsePriority accepts any letter case.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityEmergency, PriorityHigh, PriorityNormal:
		return true
	}
	return false
}

// Weight is the heatmap contribution of one report.
func (p Priority) Weight() int {
	switch p {
	case PriorityEmergency:
		return 3
	case PriorityHigh:
		return 2
	default:
		return 1
	}
}

type Status string

const (
	StatusActive     Status = "active"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

type Report struct {
	ID                    string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CrimeType             string    `gorm:"not null" json:"crime_type"`
	Description           string    `json:"description"`
	Priority              Priority  `gorm:"type:varchar(16);not null;index" json:"priority"`
	Latitude              *float64  `json:"latitude"`
	Longitude             *float64  `json:"longitude"`
	CurrentStatus         Status    `gorm:"type:varchar(16);not null;index" json:"current_status"`
	AssignedOfficer       *string   `gorm:"type:uuid;index" json:"assigned_officer"`
	StationID             *string   `gorm:"type:uuid" json:"station_id,omitempty"`
	ComplainantContactEnc string    `json:"-"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (Report) TableName() string { return "crime_reports" }

// Unassigned reports are the only ones the assignment workflow may take.
func (r *Report) Unassigned() bool {
	return r.AssignedOfficer == nil && r.CurrentStatus == StatusActive
}

func (r *Report) Located() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Validate rejects rows that do not describe a well-formed report.
func (r *Report) Validate() error {
	if !ValidID(r.ID) {
		return fmt.Errorf("report id %q is not a uuid", r.ID)
	}
	if !r.Priority.Valid() {
		return fmt.Errorf("report %s: unknown priority %q", r.ID, r.Priority)
	}
	if !r.CurrentStatus.Valid() {
		return fmt.Errorf("report %s: unknown status %q", r.ID, r.CurrentStatus)
	}
	if r.AssignedOfficer != nil && !ValidID(*r.AssignedOfficer) {
		return fmt.Errorf("report %s: assigned officer %q is not a uuid", r.ID, *r.AssignedOfficer)
	}
	if r.AssignedOfficer == nil && r.CurrentStatus == StatusInProgress {
		return fmt.Errorf("report %s: in progress without an assigned officer", r.ID)
	}
	if r.AssignedOfficer != nil && r.CurrentStatus == StatusActive {
		return fmt.Errorf("report %s: assigned but still active", r.ID)
	}
	if err := ValidateCoordinates(r.Latitude, r.Longitude); err != nil {
		return fmt.Errorf("report %s: %w", r.ID, err)
	}
	return nil
}

func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// ValidateCoordinates allows both or neither coordinate to be unknown.
func ValidateCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return fmt.Errorf("latitude and longitude must be given together")
	}
	if lat == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 {
		return fmt.Errorf("latitude %v out of range", *lat)
	}
	if *lng < -180 || *lng > 180 {
		return fmt.Errorf("longitude %v out of range", *lng)
	}
	return nil
}
