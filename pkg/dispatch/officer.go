package dispatch

import (
	"fmt"
	"time"
)

type Officer struct {
	ID               string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	BadgeNumber      string    `json:"badge_number"`
	StationID        string    `gorm:"type:uuid;index;not null" json:"station_id"`
	IsAvailable      bool      `gorm:"not null" json:"is_available"`
	ActiveCases      int       `gorm:"not null" json:"active_cases"`
	MaxCapacity      int       `gorm:"not null" json:"max_capacity"`
	CurrentLatitude  *float64  `json:"current_latitude,omitempty"`
	CurrentLongitude *float64  `json:"current_longitude,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Officer) TableName() string { return "police_officers" }

func (o *Officer) AtCapacity() bool {
	return o.ActiveCases >= o.MaxCapacity
}

func (o *Officer) Validate() error {
	if !ValidID(o.ID) {
		return fmt.Errorf("officer id %q is not a uuid", o.ID)
	}
	if !ValidID(o.StationID) {
		return fmt.Errorf("officer %s: station id %q is not a uuid", o.ID, o.StationID)
	}
	if o.MaxCapacity < 1 {
		return fmt.Errorf("officer %s: max capacity %d < 1", o.ID, o.MaxCapacity)
	}
	if o.ActiveCases < 0 {
		return fmt.Errorf("officer %s: negative active case count", o.ID)
	}
	if o.ActiveCases > o.MaxCapacity {
		return fmt.Errorf("officer %s: %d active cases exceeds capacity %d", o.ID, o.ActiveCases, o.MaxCapacity)
	}
	return ValidateCoordinates(o.CurrentLatitude, o.CurrentLongitude)
}

type Station struct {
	ID            string    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Name          string    `gorm:"not null" json:"name"`
	ContactNumber string    `json:"contact_number"`
	Address       string    `json:"address"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Station) TableName() string { return "police_stations" }
