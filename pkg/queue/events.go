package queue

import "time"

type ReportCreatedEvent struct {
	ReportID  string    `json:"report_id"`
	CrimeType string    `json:"crime_type"`
	Priority  string    `json:"priority"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CaseAssignedEvent struct {
	ReportID      string    `json:"report_id"`
	OfficerID     string    `json:"officer_id"`
	OfficerUserID string    `json:"officer_user_id"`
	AssignedBy    string    `json:"assigned_by"`
	Priority      string    `json:"priority"`
	AssignedAt    time.Time `json:"assigned_at"`
}
